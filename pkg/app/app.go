package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-roadsense/internal/metrics"
	"github.com/teslashibe/go-roadsense/pkg/audio"
	"github.com/teslashibe/go-roadsense/pkg/camera"
	"github.com/teslashibe/go-roadsense/pkg/detection"
	"github.com/teslashibe/go-roadsense/pkg/overlay"
	"github.com/teslashibe/go-roadsense/pkg/pipeline"
	"github.com/teslashibe/go-roadsense/pkg/speech"
	"github.com/teslashibe/go-roadsense/pkg/tts"
	"github.com/teslashibe/go-roadsense/pkg/web"
)

// ErrTooManyFailures is returned by Run when the pipeline keeps failing
// without processing a frame in between.
var ErrTooManyFailures = errors.New("app: too many consecutive frame failures")

// Option overrides a component Init would otherwise build.
type Option func(*App)

// WithSource uses src instead of opening the camera or input directory.
func WithSource(src camera.Source) Option {
	return func(a *App) {
		a.source = src
	}
}

// WithDetector uses d instead of the configured backend.
func WithDetector(d detection.Detector) Option {
	return func(a *App) {
		a.detector = d
	}
}

// WithSink uses s instead of the configured speech output.
func WithSink(s pipeline.Sink) Option {
	return func(a *App) {
		a.sink = s
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// App is the roadsense application orchestrator.
// It manages all components and their lifecycle.
type App struct {
	config Config
	logger *slog.Logger

	source   camera.Source
	detector detection.Detector
	sink     pipeline.Sink
	speaker  *speech.Speaker
	metrics  *metrics.Metrics
	pipeline *pipeline.Pipeline

	// Web dashboard
	webServer *web.Server
	webCancel context.CancelFunc
	webDone   chan error

	shutdownOnce sync.Once
}

// New creates an application with the given configuration.
func New(cfg Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		config: cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "app")
	return a, nil
}

// Init builds every component not supplied through options.
// Call this after New() and before Run().
func (a *App) Init() error {
	if err := a.initSource(); err != nil {
		return fmt.Errorf("source init: %w", err)
	}
	if err := a.initDetector(); err != nil {
		return fmt.Errorf("detector init: %w", err)
	}
	if err := a.initSpeech(); err != nil {
		return fmt.Errorf("speech init: %w", err)
	}

	phrases, _ := a.config.Phrasebook()
	pcfg := pipeline.DefaultConfig()
	pcfg.Phrases = phrases
	pcfg.Language = a.config.Language
	if a.config.FrameInterval > 0 {
		pcfg.FrameInterval = a.config.FrameInterval
	}

	a.metrics = metrics.New()
	presenters := []pipeline.Presenter{pipeline.NewLogPresenter(a.logger)}

	if a.config.DashboardAddr != "" {
		a.webServer = web.NewServer(a.config.DashboardAddr,
			web.WithRenderer(overlay.NewRenderer(overlay.DefaultConfig())),
			web.WithMetrics(a.metrics),
			web.WithConfig(pcfg),
			web.WithLogger(a.logger),
		)
		presenters = append(presenters, a.webServer)
	}

	p, err := pipeline.New(pcfg, a.source, a.detector,
		pipeline.WithSink(a.sink),
		pipeline.WithPresenter(presenters...),
		pipeline.WithMetrics(a.metrics),
		pipeline.WithLogger(a.logger),
	)
	if err != nil {
		return fmt.Errorf("pipeline init: %w", err)
	}
	a.pipeline = p

	a.logger.Info("initialized",
		"detector", a.config.Detector,
		"tts", a.config.TTSMode,
		"language", pcfg.Language,
		"dashboard", a.config.DashboardAddr,
	)
	return nil
}

func (a *App) initSource() error {
	if a.source != nil {
		return nil
	}
	if a.config.InputDir != "" {
		src, err := camera.OpenDir(a.config.InputDir, a.config.Loop)
		if err != nil {
			return err
		}
		a.logger.Info("replaying images", "dir", a.config.InputDir, "frames", src.Len(), "loop", a.config.Loop)
		a.source = src
		return nil
	}

	cfg := camera.GetPreset(a.config.CameraPreset)
	cfg.Device = a.config.CameraDevice
	src, err := camera.OpenWebcam(*cfg, a.logger)
	if err != nil {
		return err
	}
	a.source = src
	return nil
}

func (a *App) initDetector() error {
	if a.detector != nil {
		return nil
	}
	switch a.config.Detector {
	case DetectorRemote:
		cfg := detection.DefaultRemoteConfig()
		cfg.URL = a.config.DetectorURL
		a.detector = detection.NewRemote(cfg, a.logger)
	default:
		cfg := detection.DefaultConfig()
		cfg.ModelPath = a.config.ModelPath
		d, err := detection.NewYOLO(cfg, a.logger)
		if err != nil {
			return err
		}
		a.detector = d
	}
	return nil
}

func (a *App) initSpeech() error {
	if a.sink != nil {
		return nil
	}
	if a.config.TTSMode == TTSNone {
		a.sink = speech.NewLogSink(a.logger)
		return nil
	}

	provider, err := a.newProvider()
	if err != nil {
		return err
	}

	player := audio.NewPlayer(a.logger)
	if !player.Available() {
		a.logger.Warn("audio player not found, advisories will only be logged", "command", audio.DefaultCommand)
		provider.Close()
		a.sink = speech.NewLogSink(a.logger)
		return nil
	}

	a.speaker = speech.NewSpeaker(provider, player, a.logger)
	a.sink = a.speaker
	return nil
}

func (a *App) newProvider() (tts.Provider, error) {
	openai := func() (tts.Provider, error) {
		return tts.NewOpenAI(
			tts.WithAPIKey(a.config.OpenAIKey),
			tts.WithLanguage(a.config.Language),
			tts.WithLogger(a.logger),
		)
	}
	elevenlabs := func() (tts.Provider, error) {
		return tts.NewElevenLabs(
			tts.WithAPIKey(a.config.ElevenLabsKey),
			tts.WithVoice(a.config.TTSVoice),
			tts.WithLanguage(a.config.Language),
			tts.WithLogger(a.logger),
		)
	}

	switch a.config.TTSMode {
	case TTSOpenAI:
		return openai()
	case TTSElevenLabs:
		return elevenlabs()
	}

	primary, err := elevenlabs()
	if err != nil {
		return nil, err
	}
	fallback, err := openai()
	if err != nil {
		primary.Close()
		return nil, err
	}
	return tts.NewChain(a.logger, primary, fallback)
}

// Run processes frames until ctx is cancelled or the source is exhausted.
// A failed frame restarts the loop after RetryDelay; advisory state
// carries over. Run gives up after MaxFailures restarts in a row with no
// frame processed in between.
func (a *App) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return errors.New("app: Run called before Init")
	}

	if a.webServer != nil {
		webCtx, cancel := context.WithCancel(ctx)
		a.webCancel = cancel
		a.webDone = make(chan error, 1)
		go func() {
			a.webDone <- a.webServer.Start(webCtx)
		}()
	}

	failures := 0
	last := a.pipeline.Last()

	for {
		err := a.pipeline.Run(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, camera.ErrExhausted) {
			a.logger.Info("input exhausted")
			return nil
		}

		if cur := a.pipeline.Last(); cur != last {
			failures = 0
			last = cur
		}
		failures++
		a.logger.Warn("frame failed", "error", err, "failures", failures)
		if failures > a.config.MaxFailures {
			return fmt.Errorf("%w: %w", ErrTooManyFailures, err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(a.config.RetryDelay):
		}
	}
}

// Pipeline returns the frame pipeline, nil before Init.
func (a *App) Pipeline() *pipeline.Pipeline {
	return a.pipeline
}

// Shutdown releases all components. Safe to call more than once.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(func() {
		// Closing the speaker also closes its provider
		if a.speaker != nil {
			a.speaker.Close()
		}
		if a.detector != nil {
			if err := a.detector.Close(); err != nil {
				a.logger.Warn("close detector", "error", err)
			}
		}
		if a.source != nil {
			if err := a.source.Close(); err != nil {
				a.logger.Warn("close source", "error", err)
			}
		}
		if a.webCancel != nil {
			a.webCancel()
			if err := <-a.webDone; err != nil {
				a.logger.Warn("dashboard stopped", "error", err)
			}
		}
		a.logger.Info("shut down")
	})
}
