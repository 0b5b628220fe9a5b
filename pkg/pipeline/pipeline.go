// Package pipeline runs the per-frame perception-to-advisory loop.
//
// Each cycle acquires a frame, waits for the detector, then runs the
// non-blocking decision path (interpret, decide, debounce) before handing
// the result to the notification sink and presenters. Frames never overlap.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-roadsense/internal/metrics"
	"github.com/teslashibe/go-roadsense/pkg/advisory"
	"github.com/teslashibe/go-roadsense/pkg/camera"
	"github.com/teslashibe/go-roadsense/pkg/detection"
	"github.com/teslashibe/go-roadsense/pkg/perception"
)

// Sink receives advisory notifications. Implementations cancel any
// utterance still in flight.
type Sink interface {
	Notify(ctx context.Context, ev advisory.Event) error
}

// Presenter observes each frame's report. It must not block for long
// and has no way to influence the decision.
type Presenter interface {
	Present(ctx context.Context, r *Report)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(ctx context.Context, r *Report)

// Present calls f.
func (f PresenterFunc) Present(ctx context.Context, r *Report) {
	f(ctx, r)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSink sets the notification sink.
func WithSink(s Sink) Option {
	return func(p *Pipeline) {
		p.sink = s
	}
}

// WithPresenter adds presenters, called in order.
func WithPresenter(ps ...Presenter) Option {
	return func(p *Pipeline) {
		p.presenters = append(p.presenters, ps...)
	}
}

// WithMetrics records pipeline metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// Pipeline owns one source, one detector and the advisory state.
type Pipeline struct {
	config      Config
	source      camera.Source
	detector    detection.Detector
	interpreter *perception.Interpreter
	debouncer   *advisory.Debouncer
	sink        Sink
	presenters  []Presenter
	metrics     *metrics.Metrics
	logger      *slog.Logger
	runID       string

	mu   sync.RWMutex
	last *Report
}

// New creates a pipeline.
func New(cfg Config, source camera.Source, detector detection.Detector, opts ...Option) (*Pipeline, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, errs)
	}
	if source == nil || detector == nil {
		return nil, fmt.Errorf("%w: source and detector are required", ErrInvalidConfig)
	}

	p := &Pipeline{
		config:   cfg,
		source:   source,
		detector: detector,
		logger:   slog.Default(),
		runID:    uuid.New().String(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.logger = p.logger.With("component", "pipeline", "run_id", p.runID)
	p.interpreter = perception.NewInterpreter(cfg.Perception, p.logger)
	p.debouncer = advisory.NewDebouncer(cfg.Language)

	return p, nil
}

// Run processes frames until ctx is cancelled, returning nil, or until a
// frame fails, returning its *FrameError. The caller decides whether to
// call Run again; advisory state survives across calls.
func (p *Pipeline) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.config.FrameInterval)
	defer ticker.Stop()

	p.logger.Info("pipeline started", "interval", p.config.FrameInterval)

	for {
		if _, err := p.Step(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Step acquires one frame and processes it.
func (p *Pipeline) Step(ctx context.Context) (*Report, error) {
	frame, err := p.source.Next(ctx)
	if err != nil {
		p.metrics.FrameError(StageCapture)
		return nil, &FrameError{Stage: StageCapture, Err: err}
	}
	return p.ProcessFrame(ctx, frame)
}

// ProcessFrame runs detection and the decision path on one frame.
func (p *Pipeline) ProcessFrame(ctx context.Context, frame *camera.Frame) (*Report, error) {
	start := time.Now()

	dets, err := p.detector.Detect(ctx, frame.Image)
	if err != nil {
		p.metrics.FrameError(StageDetect)
		return nil, &FrameError{Stage: StageDetect, Seq: frame.Seq, Err: err}
	}

	px := perception.NewImagePixels(frame.Image)
	sig, results, state := p.Evaluate(dets, px)

	report := &Report{
		RunID:           p.runID,
		Seq:             frame.Seq,
		Captured:        frame.Captured,
		FrameWidth:      frame.Width(),
		FrameHeight:     frame.Height(),
		Interpretations: results,
		Signals:         sig,
		State:           state,
		Display:         NewDisplay(sig, state),
		Frame:           frame.Image,
	}

	if ev, ok := p.debouncer.MaybeNotify(state); ok {
		report.Event = &ev
		p.metrics.Notification(state.Action.String())
		p.logger.Info("advisory changed",
			"seq", frame.Seq,
			"action", state.Action.String(),
			"text", state.Text,
		)
		if p.sink != nil {
			if err := p.sink.Notify(ctx, ev); err != nil {
				p.logger.Warn("notification failed", "error", err)
			}
		}
	}

	report.Latency = time.Since(start)
	p.record(report)

	for _, pr := range p.presenters {
		pr.Present(ctx, report)
	}

	p.logger.Debug("frame processed",
		"seq", frame.Seq,
		"detections", len(dets),
		"action", state.Action.String(),
		"latency", report.Latency,
	)

	return report, nil
}

// Evaluate interprets one frame's detections and decides the action.
// It never blocks and keeps no state.
func (p *Pipeline) Evaluate(dets []detection.Detection, px perception.PixelReader) (perception.FrameSignals, []perception.Interpretation, advisory.State) {
	sig, results := p.interpreter.InterpretAll(dets, px)
	return sig, results, advisory.Decide(sig, p.config.Phrases)
}

func (p *Pipeline) record(r *Report) {
	p.mu.Lock()
	p.last = r
	p.mu.Unlock()

	p.metrics.FrameProcessed(r.Latency)
	p.metrics.SetAction(r.State.Action.Code())
	for _, in := range r.Interpretations {
		if in.Ignored {
			continue
		}
		p.metrics.Detection(in.Category.String())
		if in.Light != nil {
			p.metrics.RegionErrors(in.Light.RegionErrors)
		}
	}
}

// Last returns the most recent report, or nil before the first frame.
func (p *Pipeline) Last() *Report {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

// LastAction returns the debouncer's current action.
func (p *Pipeline) LastAction() advisory.Action {
	return p.debouncer.Last()
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.config
}

// RunID identifies this pipeline instance in logs and reports.
func (p *Pipeline) RunID() string {
	return p.runID
}
