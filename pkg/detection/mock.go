package detection

import (
	"context"
	"image"
	"sync"
)

// Mock implements Detector for testing.
// Frames are answered from Script in order; once exhausted the last entry repeats.
type Mock struct {
	// DetectFunc overrides Script when set.
	DetectFunc func(ctx context.Context, img image.Image) ([]Detection, error)

	// Script holds one detection list per call.
	Script [][]Detection

	mu    sync.Mutex
	calls int
}

// NewMock creates a mock that returns each scripted frame in turn.
func NewMock(frames ...[]Detection) *Mock {
	return &Mock{Script: frames}
}

// Detect returns the next scripted result.
func (m *Mock) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	m.mu.Lock()
	n := m.calls
	m.calls++
	m.mu.Unlock()

	if m.DetectFunc != nil {
		return m.DetectFunc(ctx, img)
	}
	if len(m.Script) == 0 {
		return nil, nil
	}
	if n >= len(m.Script) {
		n = len(m.Script) - 1
	}
	out := make([]Detection, len(m.Script[n]))
	copy(out, m.Script[n])
	return out, nil
}

// Calls returns how many times Detect ran.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close is a no-op.
func (m *Mock) Close() error {
	return nil
}

// Verify Mock implements Detector at compile time.
var _ Detector = (*Mock)(nil)
