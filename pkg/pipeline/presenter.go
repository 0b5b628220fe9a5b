package pipeline

import (
	"context"
	"log/slog"
)

// LogPresenter writes each frame's display lines to the log. Frames that
// change the advisory log at Info, the rest at Debug.
type LogPresenter struct {
	logger *slog.Logger
}

// NewLogPresenter creates a LogPresenter.
func NewLogPresenter(logger *slog.Logger) *LogPresenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPresenter{logger: logger.With("component", "pipeline.display")}
}

// Present logs r.
func (l *LogPresenter) Present(ctx context.Context, r *Report) {
	level := slog.LevelDebug
	if r.Notified() {
		level = slog.LevelInfo
	}
	l.logger.Log(ctx, level, r.Display.Action,
		"seq", r.Seq,
		"objects", r.Display.Objects,
		"distance", r.Display.Distance,
	)
}
