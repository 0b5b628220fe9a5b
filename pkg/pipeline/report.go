package pipeline

import (
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/teslashibe/go-roadsense/pkg/advisory"
	"github.com/teslashibe/go-roadsense/pkg/perception"
)

// Report is everything one frame produced, for presentation.
type Report struct {
	RunID       string        `json:"run_id"`
	Seq         uint64        `json:"seq"`
	Captured    time.Time     `json:"captured"`
	Latency     time.Duration `json:"latency"`
	FrameWidth  int           `json:"frame_width"`
	FrameHeight int           `json:"frame_height"`

	Interpretations []perception.Interpretation `json:"interpretations"`
	Signals         perception.FrameSignals     `json:"signals"`
	State           advisory.State              `json:"state"`

	// Event is set on frames where the action changed.
	Event *advisory.Event `json:"event,omitempty"`

	Display Display `json:"display"`

	// Frame is the source image, for overlays. Presenters must not modify it.
	Frame image.Image `json:"-"`
}

// Display is the three text lines shown to the driver.
type Display struct {
	Objects  string `json:"objects"`
	Distance string `json:"distance"`
	Action   string `json:"action"`
}

// NewDisplay formats a frame's signals and state.
func NewDisplay(sig perception.FrameSignals, s advisory.State) Display {
	objects := "none"
	if len(sig.Descriptors) > 0 {
		objects = strings.Join(sig.Descriptors, ", ")
	}
	return Display{
		Objects:  "Detected: " + objects,
		Distance: "Distance: " + sig.DistanceText(),
		Action:   fmt.Sprintf("Action: %s", s.Text),
	}
}

// Notified reports whether this frame emitted a notification.
func (r *Report) Notified() bool {
	return r.Event != nil
}
