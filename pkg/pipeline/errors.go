package pipeline

import (
	"errors"
	"fmt"
)

// Frame stages that can fail.
const (
	StageCapture = "capture"
	StageDetect  = "detect"
)

// ErrInvalidConfig is returned by New for a config that fails Validate.
var ErrInvalidConfig = errors.New("pipeline: invalid config")

// FrameError reports a collaborator failure that abandoned a frame.
// Seq is zero when no frame was acquired.
type FrameError struct {
	Stage string
	Seq   uint64
	Err   error
}

// Error implements the error interface.
func (e *FrameError) Error() string {
	if e.Seq == 0 {
		return fmt.Sprintf("pipeline: %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("pipeline: frame %d: %s: %v", e.Seq, e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *FrameError) Unwrap() error {
	return e.Err
}
