package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gorilla/websocket"
)

// RemoteConfig configures a detector running in an inference sidecar.
type RemoteConfig struct {
	URL              string        // ws:// or wss:// endpoint
	HandshakeTimeout time.Duration // Dial timeout
	RequestTimeout   time.Duration // Per-frame round trip limit
	JPEGQuality      int           // Encoding quality for uploaded frames
}

// DefaultRemoteConfig returns defaults for a sidecar on localhost.
func DefaultRemoteConfig() RemoteConfig {
	return RemoteConfig{
		URL:              "ws://127.0.0.1:8765/detect",
		HandshakeTimeout: 5 * time.Second,
		RequestTimeout:   2 * time.Second,
		JPEGQuality:      80,
	}
}

// RemoteDetector sends each frame as a JPEG binary message and reads back
// one JSON message in coco-ssd shape:
//
//	{"predictions":[{"class":"person","bbox":[x,y,w,h],"score":0.91}]}
//
// The connection is dialed lazily and dropped on any error, so the next
// call redials.
type RemoteDetector struct {
	config RemoteConfig
	dialer websocket.Dialer
	logger *slog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

type remotePrediction struct {
	Class string     `json:"class"`
	BBox  [4]float64 `json:"bbox"`
	Score float64    `json:"score"`
}

type remoteResponse struct {
	Predictions []remotePrediction `json:"predictions"`
	Error       string             `json:"error,omitempty"`
}

// NewRemote creates a remote detector. No connection is made until Detect.
func NewRemote(cfg RemoteConfig, logger *slog.Logger) *RemoteDetector {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteDetector{
		config: cfg,
		dialer: websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout},
		logger: logger.With("component", "detection.remote"),
	}
}

// Detect uploads the frame and waits for the sidecar's predictions.
func (d *RemoteDetector) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(d.config.JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}

	conn, err := d.connLocked(ctx)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(d.config.RequestTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	conn.SetWriteDeadline(deadline)
	conn.SetReadDeadline(deadline)

	if err := conn.WriteMessage(websocket.BinaryMessage, buf.Bytes()); err != nil {
		d.dropLocked()
		return nil, fmt.Errorf("send frame: %w", err)
	}

	_, msg, err := conn.ReadMessage()
	if err != nil {
		d.dropLocked()
		return nil, fmt.Errorf("read predictions: %w", err)
	}

	var resp remoteResponse
	if err := json.Unmarshal(msg, &resp); err != nil {
		return nil, fmt.Errorf("decode predictions: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("sidecar: %s", resp.Error)
	}

	detections := make([]Detection, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		detections = append(detections, Detection{
			Label: p.Class,
			BBox:  BBox{X: p.BBox[0], Y: p.BBox[1], W: p.BBox[2], H: p.BBox[3]},
			Score: p.Score,
		})
	}

	return detections, nil
}

func (d *RemoteDetector) connLocked(ctx context.Context) (*websocket.Conn, error) {
	if d.conn != nil {
		return d.conn, nil
	}

	conn, _, err := d.dialer.DialContext(ctx, d.config.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", d.config.URL, err)
	}
	d.logger.Info("connected to detector sidecar", "url", d.config.URL)
	d.conn = conn
	return conn, nil
}

func (d *RemoteDetector) dropLocked() {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}

// Close closes the sidecar connection
func (d *RemoteDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.conn == nil {
		return nil
	}
	d.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := d.conn.Close()
	d.conn = nil
	return err
}

// Verify RemoteDetector implements Detector at compile time.
var _ Detector = (*RemoteDetector)(nil)
