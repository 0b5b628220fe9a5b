package camera

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Webcam captures frames from a local device or stream URL through OpenCV.
type Webcam struct {
	config Config
	logger *slog.Logger

	mu     sync.Mutex
	cap    *gocv.VideoCapture
	mat    gocv.Mat
	seq    uint64
	closed bool
}

// OpenWebcam opens the configured device and requests its resolution.
func OpenWebcam(cfg Config, logger *slog.Logger) (*Webcam, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("camera: invalid config: %v", errs)
	}
	if logger == nil {
		logger = slog.Default()
	}

	var device interface{} = cfg.Device
	if idx, err := strconv.Atoi(cfg.Device); err == nil {
		device = idx
	}

	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("camera: open %s: %w", cfg.Device, err)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))

	w := &Webcam{
		config: cfg,
		logger: logger.With("component", "camera.webcam"),
		cap:    vc,
		mat:    gocv.NewMat(),
	}

	w.logger.Info("camera opened",
		"device", cfg.Device,
		"width", int(vc.Get(gocv.VideoCaptureFrameWidth)),
		"height", int(vc.Get(gocv.VideoCaptureFrameHeight)),
	)

	return w, nil
}

// Next reads one frame. The returned image is a copy and safe to keep.
func (w *Webcam) Next(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrSourceClosed
	}

	if ok := w.cap.Read(&w.mat); !ok || w.mat.Empty() {
		return nil, ErrNoFrame
	}

	img, err := w.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("camera: convert frame: %w", err)
	}

	w.seq++
	return &Frame{Seq: w.seq, Captured: time.Now(), Image: img}, nil
}

// Close releases the device.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.mat.Close()
	return w.cap.Close()
}

// Verify Webcam implements Source at compile time.
var _ Source = (*Webcam)(nil)
