package app

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-roadsense/internal/log"
	"github.com/teslashibe/go-roadsense/pkg/advisory"
	"github.com/teslashibe/go-roadsense/pkg/camera"
	"github.com/teslashibe/go-roadsense/pkg/detection"
)

type recordingSink struct {
	mu     sync.Mutex
	events []advisory.Event
}

func (r *recordingSink) Notify(_ context.Context, ev advisory.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingSink) actions() []advisory.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]advisory.Action, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Action
	}
	return out
}

func frames(n int) []image.Image {
	imgs := make([]image.Image, n)
	for i := range imgs {
		img := image.NewRGBA(image.Rect(0, 0, 640, 480))
		draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{40, 40, 40, 255}}, image.Point{}, draw.Src)
		imgs[i] = img
	}
	return imgs
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.DashboardAddr = ""
	cfg.FrameInterval = time.Millisecond
	cfg.RetryDelay = time.Millisecond
	return cfg
}

func newApp(t *testing.T, cfg Config, opts ...Option) *App {
	t.Helper()
	opts = append(opts, WithLogger(log.Discard()))
	a, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := a.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(a.Shutdown)
	return a
}

var person = detection.Detection{
	Label: "person",
	BBox:  detection.BBox{X: 200, Y: 100, W: 200, H: 300},
	Score: 0.9,
}

func TestRunUntilExhausted(t *testing.T) {
	sink := &recordingSink{}
	a := newApp(t, testConfig(),
		WithSource(camera.NewStaticSource(frames(3)...)),
		WithDetector(detection.NewMock(nil, []detection.Detection{person}, []detection.Detection{person})),
		WithSink(sink),
	)

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := sink.actions()
	want := []advisory.Action{advisory.ActionProceedSlowly, advisory.ActionStop}
	if len(got) != len(want) {
		t.Fatalf("notifications = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notification %d = %v, want %v", i, got[i], want[i])
		}
	}
	if a.Pipeline().Last().Seq != 3 {
		t.Errorf("last seq = %d, want 3", a.Pipeline().Last().Seq)
	}
}

func TestRunRecoversFromIntermittentFailures(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	det := &detection.Mock{
		DetectFunc: func(ctx context.Context, img image.Image) ([]detection.Detection, error) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if calls%2 == 0 {
				return nil, errors.New("inference timeout")
			}
			return nil, nil
		},
	}

	cfg := testConfig()
	cfg.MaxFailures = 1
	a := newApp(t, cfg,
		WithSource(camera.NewStaticSource(frames(6)...)),
		WithDetector(det),
		WithSink(&recordingSink{}),
	)

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestRunGivesUp(t *testing.T) {
	det := &detection.Mock{
		DetectFunc: func(ctx context.Context, img image.Image) ([]detection.Detection, error) {
			return nil, errors.New("model crashed")
		},
	}
	src := camera.NewStaticSource(frames(1)...)
	src.Loop = true

	cfg := testConfig()
	cfg.MaxFailures = 2
	a := newApp(t, cfg, WithSource(src), WithDetector(det), WithSink(&recordingSink{}))

	err := a.Run(context.Background())
	if !errors.Is(err, ErrTooManyFailures) {
		t.Fatalf("Run() error = %v, want ErrTooManyFailures", err)
	}
	if det.Calls() != 3 {
		t.Errorf("detector calls = %d, want 3", det.Calls())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	src := camera.NewStaticSource(frames(1)...)
	src.Loop = true
	a := newApp(t, testConfig(), WithSource(src), WithDetector(detection.NewMock()), WithSink(&recordingSink{}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestRunBeforeInit(t *testing.T) {
	a, err := New(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Run(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestInitWithoutTTSLogsAdvisories(t *testing.T) {
	a := newApp(t, testConfig(),
		WithSource(camera.NewStaticSource(frames(1)...)),
		WithDetector(detection.NewMock()),
	)
	if a.sink == nil {
		t.Fatal("no sink configured")
	}
	if a.speaker != nil {
		t.Error("speaker built with tts disabled")
	}
}

func TestInitPhrasesAndLanguage(t *testing.T) {
	cfg := testConfig()
	cfg.Phrases = "ko"
	cfg.Language = "ko-KR"
	a := newApp(t, cfg,
		WithSource(camera.NewStaticSource(frames(1)...)),
		WithDetector(detection.NewMock()),
	)

	pc := a.Pipeline().Config()
	if pc.Phrases != advisory.KoreanPhrases {
		t.Errorf("phrases = %+v, want Korean", pc.Phrases)
	}
	if pc.Language != "ko-KR" {
		t.Errorf("language = %q", pc.Language)
	}
	if pc.FrameInterval != time.Millisecond {
		t.Errorf("frame interval = %v", pc.FrameInterval)
	}
}
