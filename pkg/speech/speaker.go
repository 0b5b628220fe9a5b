// Package speech delivers advisory notifications as spoken audio.
package speech

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-roadsense/pkg/advisory"
	"github.com/teslashibe/go-roadsense/pkg/tts"
)

// ErrClosed is returned by Notify after Close.
var ErrClosed = errors.New("speech: speaker closed")

// Player plays synthesized audio, returning early when ctx is cancelled.
type Player interface {
	Play(ctx context.Context, result *tts.AudioResult) error
}

// Speaker speaks the latest advisory. A new notification cancels the one
// still being synthesized or played, then waits for it to wind down
// before starting, so utterances never overlap.
type Speaker struct {
	provider tts.Provider
	player   Player
	logger   *slog.Logger

	// OnDelivered, if set, is called after each utterance ends.
	// err is nil on success and context.Canceled when superseded.
	OnDelivered func(ev advisory.Event, err error)

	base     context.Context
	shutdown context.CancelFunc

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// NewSpeaker creates a speaker. player may be nil to synthesize only.
func NewSpeaker(provider tts.Provider, player Player, logger *slog.Logger) *Speaker {
	if logger == nil {
		logger = slog.Default()
	}
	base, shutdown := context.WithCancel(context.Background())
	return &Speaker{
		provider: provider,
		player:   player,
		logger:   logger.With("component", "speech.speaker"),
		base:     base,
		shutdown: shutdown,
	}
}

// Notify starts speaking ev and returns without waiting for it.
// The frame context is not used for delivery; an utterance outlives the
// frame that triggered it.
func (s *Speaker) Notify(_ context.Context, ev advisory.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithCancel(s.base)
	prev := s.done
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go s.deliver(ctx, prev, done, ev)
	return nil
}

func (s *Speaker) deliver(ctx context.Context, prev <-chan struct{}, done chan<- struct{}, ev advisory.Event) {
	defer close(done)

	if prev != nil {
		<-prev
	}

	err := s.speak(ctx, ev)
	switch {
	case err == nil:
		s.logger.Info("advisory spoken", "action", ev.Action.String(), "text", ev.Text, "lang", ev.Lang)
	case ctx.Err() != nil:
		err = context.Canceled
		s.logger.Debug("advisory superseded", "action", ev.Action.String())
	default:
		s.logger.Warn("advisory not spoken", "action", ev.Action.String(), "error", err)
	}

	if s.OnDelivered != nil {
		s.OnDelivered(ev, err)
	}
}

func (s *Speaker) speak(ctx context.Context, ev advisory.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	result, err := s.provider.Synthesize(ctx, tts.Utterance{Text: ev.Text, Lang: ev.Lang})
	if err != nil {
		return err
	}
	s.logger.Debug("synthesized", "bytes", len(result.Audio), "elapsed", time.Since(start))

	if s.player == nil {
		return nil
	}
	return s.player.Play(ctx, result)
}

// Wait blocks until the current utterance, if any, has ended.
func (s *Speaker) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Close cancels any utterance, waits for it, and closes the provider.
func (s *Speaker) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.shutdown()
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}
	return s.provider.Close()
}

// LogSink writes notifications to the log instead of speaking them.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger.With("component", "speech.log")}
}

// Notify logs the event.
func (l *LogSink) Notify(_ context.Context, ev advisory.Event) error {
	l.logger.Info("advisory",
		"id", ev.ID,
		"action", ev.Action.String(),
		"text", ev.Text,
		"lang", ev.Lang,
	)
	return nil
}
