// Package detection provides object detection backends for the perception pipeline
package detection

import (
	"context"
	"errors"
	"image"
	"math"
)

// Sentinel errors shared by all backends.
var (
	// ErrModelNotFound is returned when the model file is missing.
	ErrModelNotFound = errors.New("detection: model file not found")

	// ErrEmptyImage is returned when a frame has no pixels.
	ErrEmptyImage = errors.New("detection: empty image")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("detection: detector closed")
)

// BBox is an axis-aligned box in frame pixel coordinates.
// X, Y is the top-left corner.
type BBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Center returns the center point of the box
func (b BBox) Center() (x, y float64) {
	return b.X + b.W/2, b.Y + b.H/2
}

// Area returns the area of the box, zero for degenerate boxes
func (b BBox) Area() float64 {
	if b.W <= 0 || b.H <= 0 {
		return 0
	}
	return b.W * b.H
}

// Rect converts the box to an integer rectangle, rounding outward.
func (b BBox) Rect() image.Rectangle {
	return image.Rect(
		int(math.Floor(b.X)),
		int(math.Floor(b.Y)),
		int(math.Ceil(b.X+b.W)),
		int(math.Ceil(b.Y+b.H)),
	)
}

// Detection is one object found in a frame
type Detection struct {
	Label string  `json:"label"` // COCO class name, e.g. "person", "traffic light"
	BBox  BBox    `json:"bbox"`  // Pixel coordinates relative to the frame
	Score float64 `json:"score"` // Detector confidence (0-1)
}

// Detector is the interface for object detection backends
type Detector interface {
	// Detect finds objects in the frame. It may block on inference or I/O.
	Detect(ctx context.Context, img image.Image) ([]Detection, error)

	// Close releases resources
	Close() error
}

// Config holds detector configuration
type Config struct {
	ModelPath        string  // Path to ONNX model
	ConfidenceThresh float32 // Minimum confidence kept by the backend
	NMSThresh        float32 // Non-maximum suppression IoU threshold
	InputWidth       int     // Model input width
	InputHeight      int     // Model input height
}

// DefaultConfig returns production defaults for YOLOv8n.
// The backend threshold sits below the pipeline's 0.5 cut so the
// interpreter, not the model, decides what counts.
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/yolov8n.onnx",
		ConfidenceThresh: 0.3,
		NMSThresh:        0.45,
		InputWidth:       640,
		InputHeight:      640,
	}
}

// FilterLabel returns the detections with the given label
func FilterLabel(dets []Detection, label string) []Detection {
	var filtered []Detection
	for _, d := range dets {
		if d.Label == label {
			filtered = append(filtered, d)
		}
	}
	return filtered
}
