// Package perception turns raw detections into the per-frame signals the
// advisory is decided from: monocular distance, traffic-light color and
// a short descriptor per object.
package perception

import (
	"math"
	"strconv"

	"github.com/teslashibe/go-roadsense/pkg/detection"
)

// DefaultFOV is the assumed horizontal field of view (60 degrees) in radians.
const DefaultFOV = 60 * math.Pi / 180

// DefaultRealWidth is the width in meters every detected object is assumed to have.
const DefaultRealWidth = 0.5

// DistanceEstimator converts a box width into meters with a pinhole model.
//
// This is an approximation, not ranging: every object is treated as
// RealWidth meters wide and the camera is never calibrated, so the result
// is only good as a coarse near/far signal.
type DistanceEstimator struct {
	FOV       float64 // Horizontal field of view in radians
	RealWidth float64 // Assumed object width in meters
}

// NewDistanceEstimator returns an estimator with the default camera model.
func NewDistanceEstimator() DistanceEstimator {
	return DistanceEstimator{FOV: DefaultFOV, RealWidth: DefaultRealWidth}
}

// Estimate returns the distance to the object in meters, rounded to two
// decimals. ok is false when the box or frame width is not positive.
func (e DistanceEstimator) Estimate(box detection.BBox, frameWidth int) (meters float64, ok bool) {
	if box.W <= 0 || frameWidth <= 0 {
		return 0, false
	}

	d := (e.RealWidth * float64(frameWidth)) / (2 * math.Tan(e.FOV/2) * box.W)
	if math.IsInf(d, 0) || math.IsNaN(d) {
		return 0, false
	}

	return math.Round(d*100) / 100, true
}

// FormatDistance renders meters with the shortest exact representation,
// so 1.5 prints as "1.5" and 2 as "2".
func FormatDistance(meters float64) string {
	return strconv.FormatFloat(meters, 'f', -1, 64)
}
