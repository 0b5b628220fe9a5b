package detection

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// YOLODetector uses YOLOv8 through OpenCV DNN for general object detection
type YOLODetector struct {
	net       gocv.Net
	config    Config
	logger    *slog.Logger
	mu        sync.Mutex
	inputSize image.Point
	closed    bool
}

// NewYOLO creates a new YOLO object detector
func NewYOLO(cfg Config, logger *slog.Logger) (*YOLODetector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load YOLO model from %s", cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	if logger == nil {
		logger = slog.Default()
	}

	return &YOLODetector{
		net:       net,
		config:    cfg,
		logger:    logger.With("component", "detection.yolo"),
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
	}, nil
}

// Detect finds objects in the frame. Boxes are returned in frame pixels.
func (d *YOLODetector) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}

	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()

	imgW := float32(mat.Cols())
	imgH := float32(mat.Rows())

	blob := gocv.BlobFromImage(mat, 1.0/255.0, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	output := d.net.Forward("")
	defer output.Close()

	detections := d.parseOutput(output, imgW, imgH)

	d.logger.Debug("inference complete", "objects", len(detections))

	return detections, nil
}

// parseOutput decodes the YOLOv8 tensor.
// Shape is [1, 84, N]: 4 box values (cx, cy, w, h) then 80 class scores per candidate.
func (d *YOLODetector) parseOutput(output gocv.Mat, imgW, imgH float32) []Detection {
	sizes := output.Size()
	if len(sizes) != 3 {
		d.logger.Warn("unexpected output shape", "dims", sizes)
		return nil
	}
	attrs := sizes[1]
	candidates := sizes[2]

	data, err := output.DataPtrFloat32()
	if err != nil {
		d.logger.Warn("read output tensor", "error", err)
		return nil
	}

	scaleX := imgW / float32(d.config.InputWidth)
	scaleY := imgH / float32(d.config.InputHeight)

	var boxes []image.Rectangle
	var confidences []float32
	var classIDs []int

	for i := 0; i < candidates; i++ {
		maxScore := float32(0)
		maxClassID := 0

		for c := 4; c < attrs; c++ {
			score := data[c*candidates+i]
			if score > maxScore {
				maxScore = score
				maxClassID = c - 4
			}
		}

		if maxScore < d.config.ConfidenceThresh {
			continue
		}

		cx := data[0*candidates+i]
		cy := data[1*candidates+i]
		w := data[2*candidates+i]
		h := data[3*candidates+i]

		x1 := int((cx - w/2) * scaleX)
		y1 := int((cy - h/2) * scaleY)
		x2 := int((cx + w/2) * scaleX)
		y2 := int((cy + h/2) * scaleY)

		boxes = append(boxes, image.Rect(x1, y1, x2, y2))
		confidences = append(confidences, maxScore)
		classIDs = append(classIDs, maxClassID)
	}

	if len(boxes) == 0 {
		return nil
	}

	indices := gocv.NMSBoxes(boxes, confidences, d.config.ConfidenceThresh, d.config.NMSThresh)

	detections := make([]Detection, 0, len(indices))
	for _, idx := range indices {
		box := boxes[idx]
		detections = append(detections, Detection{
			Label: ClassName(classIDs[idx]),
			BBox: BBox{
				X: float64(box.Min.X),
				Y: float64(box.Min.Y),
				W: float64(box.Dx()),
				H: float64(box.Dy()),
			},
			Score: float64(confidences[idx]),
		})
	}

	return detections
}

// Close releases the detector resources
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.net.Close()
}

// Verify YOLODetector implements Detector at compile time.
var _ Detector = (*YOLODetector)(nil)
