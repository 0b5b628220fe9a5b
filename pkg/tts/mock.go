package tts

import (
	"context"
	"sync"
	"time"
)

// Mock implements Provider for testing.
type Mock struct {
	// SynthesizeFunc is called when Synthesize is invoked.
	// If nil, returns silence sized to the text.
	SynthesizeFunc func(ctx context.Context, u Utterance) (*AudioResult, error)

	// HealthFunc is called when Health is invoked. If nil, healthy.
	HealthFunc func(ctx context.Context) error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Text   string
	Lang   string
	Time   time.Time
}

// NewMock creates a mock that returns ~20ms of 24kHz PCM silence per character.
func NewMock() *Mock {
	return &Mock{}
}

// Synthesize calls SynthesizeFunc and records the call.
func (m *Mock) Synthesize(ctx context.Context, u Utterance) (*AudioResult, error) {
	m.record("Synthesize", u)
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, u)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chars := len([]rune(u.Text))
	return &AudioResult{
		Audio: make([]byte, chars*960),
		Format: AudioFormat{
			Encoding:   EncodingPCM24,
			SampleRate: 24000,
			Channels:   1,
			BitDepth:   16,
		},
		CharCount: chars,
		Duration:  time.Duration(chars) * 20 * time.Millisecond,
	}, nil
}

// Health calls HealthFunc and records the call.
func (m *Mock) Health(ctx context.Context) error {
	m.record("Health", Utterance{})
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// Close records the call.
func (m *Mock) Close() error {
	m.record("Close", Utterance{})
	return nil
}

func (m *Mock) record(method string, u Utterance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Text: u.Text, Lang: u.Lang, Time: time.Now()})
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// WithError returns a mock that always fails with err.
func WithError(err error) *Mock {
	return &Mock{
		SynthesizeFunc: func(ctx context.Context, u Utterance) (*AudioResult, error) {
			return nil, err
		},
		HealthFunc: func(ctx context.Context) error {
			return err
		},
	}
}

// WithLatency makes m wait delay before answering, or until ctx is done.
func WithLatency(m *Mock, delay time.Duration) *Mock {
	next := m.SynthesizeFunc
	m.SynthesizeFunc = func(ctx context.Context, u Utterance) (*AudioResult, error) {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if next != nil {
			return next(ctx, u)
		}
		return &AudioResult{Audio: []byte{0, 0}, CharCount: len([]rune(u.Text))}, nil
	}
	return m
}

// Verify Mock implements Provider at compile time.
var _ Provider = (*Mock)(nil)
