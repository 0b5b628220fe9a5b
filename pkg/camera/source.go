package camera

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"
)

// Sentinel errors for frame sources.
var (
	// ErrSourceClosed is returned after Close.
	ErrSourceClosed = errors.New("camera: source closed")

	// ErrNoFrame is returned when the device produced no frame.
	ErrNoFrame = errors.New("camera: no frame available")

	// ErrExhausted is returned by finite sources once every frame was delivered.
	ErrExhausted = errors.New("camera: source exhausted")
)

// Frame is one captured image.
type Frame struct {
	Seq      uint64      // Monotonic per source, starting at 1
	Captured time.Time   // Acquisition time
	Image    image.Image // Pixel data
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int {
	return f.Image.Bounds().Dx()
}

// Height returns the frame height in pixels.
func (f *Frame) Height() int {
	return f.Image.Bounds().Dy()
}

// Source delivers frames. Next may block until a frame is ready.
type Source interface {
	Next(ctx context.Context) (*Frame, error)
	Close() error
}

// StaticSource replays a fixed list of images, then returns ErrExhausted.
// With Loop set it starts over instead.
type StaticSource struct {
	Images []image.Image
	Loop   bool

	mu     sync.Mutex
	pos    int
	seq    uint64
	closed bool
}

// NewStaticSource creates a source over the given images.
func NewStaticSource(images ...image.Image) *StaticSource {
	return &StaticSource{Images: images}
}

// Next returns the next image.
func (s *StaticSource) Next(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSourceClosed
	}
	if len(s.Images) == 0 {
		return nil, ErrNoFrame
	}
	if s.pos >= len(s.Images) {
		if !s.Loop {
			return nil, ErrExhausted
		}
		s.pos = 0
	}

	img := s.Images[s.pos]
	s.pos++
	s.seq++
	return &Frame{Seq: s.seq, Captured: time.Now(), Image: img}, nil
}

// Close stops the source.
func (s *StaticSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Verify StaticSource implements Source at compile time.
var _ Source = (*StaticSource)(nil)
