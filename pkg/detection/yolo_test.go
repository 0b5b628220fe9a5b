package detection

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestNewYOLO_InvalidPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelPath = "/nonexistent/path/model.onnx"

	_, err := NewYOLO(cfg, nil)
	if err == nil {
		t.Fatal("Expected error for invalid model path")
	}
	if !errors.Is(err, ErrModelNotFound) {
		t.Errorf("Expected ErrModelNotFound, got %v", err)
	}
}

func TestYOLODetect_SolidImage(t *testing.T) {
	modelPath := findModelPath("yolov8n.onnx")
	if modelPath == "" {
		t.Skip("YOLO model not found, skipping test")
	}

	cfg := DefaultConfig()
	cfg.ModelPath = modelPath

	detector, err := NewYOLO(cfg, nil)
	if err != nil {
		t.Fatalf("NewYOLO failed: %v", err)
	}
	defer detector.Close()

	img := solidImage(320, 240, color.RGBA{0, 0, 255, 255})

	dets, err := detector.Detect(context.Background(), img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(dets) > 0 {
		t.Errorf("Expected no detections in solid color image, got %d", len(dets))
	}

	if _, err := detector.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 0, 0))); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Expected ErrEmptyImage, got %v", err)
	}
}

func TestYOLOClose(t *testing.T) {
	modelPath := findModelPath("yolov8n.onnx")
	if modelPath == "" {
		t.Skip("YOLO model not found, skipping test")
	}

	cfg := DefaultConfig()
	cfg.ModelPath = modelPath

	detector, err := NewYOLO(cfg, nil)
	if err != nil {
		t.Fatalf("NewYOLO failed: %v", err)
	}
	if err := detector.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if _, err := detector.Detect(context.Background(), solidImage(10, 10, color.RGBA{})); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed after Close, got %v", err)
	}
}

// Helper functions

func findModelPath(name string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for dir := cwd; dir != "/"; dir = filepath.Dir(dir) {
		modelPath := filepath.Join(dir, "models", name)
		if _, err := os.Stat(modelPath); err == nil {
			return modelPath
		}
	}
	return ""
}

func solidImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}
