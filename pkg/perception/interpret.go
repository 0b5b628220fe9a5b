package perception

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/teslashibe/go-roadsense/pkg/detection"
)

// Category says how a detection is interpreted.
type Category int

const (
	// CategoryOther gets a distance descriptor and no signal.
	CategoryOther Category = iota
	// CategoryHazard can trigger a stop when close.
	CategoryHazard
	// CategoryTrafficLight is color classified.
	CategoryTrafficLight
)

// String returns the category name used in logs and metrics.
func (c Category) String() string {
	switch c {
	case CategoryHazard:
		return "hazard"
	case CategoryTrafficLight:
		return "traffic_light"
	default:
		return "other"
	}
}

// MarshalText encodes the category by name.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// TrafficLightLabel is the detector label for traffic lights.
const TrafficLightLabel = "traffic light"

// DefaultHazardLabels are the labels that stop the vehicle when close.
var DefaultHazardLabels = []string{"person", "cat", "dog", "horse", "sheep", "cow"}

// Config holds interpreter policy.
type Config struct {
	ScoreThreshold    float64  `json:"score_threshold"`     // Detections below are ignored
	HazardDistance    float64  `json:"hazard_distance"`     // Meters at or under which a hazard stops
	ExpandScale       float64  `json:"expand_scale"`        // Traffic-light box expansion
	HazardLabels      []string `json:"hazard_labels"`       // Exact, case-sensitive
	TrafficLightLabel string   `json:"traffic_light_label"` // Exact, case-sensitive
	FOV               float64  `json:"fov"`                 // Radians
	RealWidth         float64  `json:"real_width"`          // Meters
}

// DefaultConfig returns the advisory's standard policy.
func DefaultConfig() Config {
	return Config{
		ScoreThreshold:    0.5,
		HazardDistance:    5.0,
		ExpandScale:       DefaultExpandScale,
		HazardLabels:      append([]string(nil), DefaultHazardLabels...),
		TrafficLightLabel: TrafficLightLabel,
		FOV:               DefaultFOV,
		RealWidth:         DefaultRealWidth,
	}
}

// Validate checks the config and returns a list of problems, or nil.
func (c *Config) Validate() []string {
	var errors []string

	if c.ScoreThreshold < 0 || c.ScoreThreshold > 1 {
		errors = append(errors, "score_threshold must be between 0 and 1")
	}
	if c.HazardDistance <= 0 {
		errors = append(errors, "hazard_distance must be positive")
	}
	if c.ExpandScale < 1 {
		errors = append(errors, "expand_scale must be at least 1")
	}
	if c.FOV <= 0 || c.FOV >= math.Pi {
		errors = append(errors, "fov must be between 0 and pi radians")
	}
	if c.RealWidth <= 0 {
		errors = append(errors, "real_width must be positive")
	}
	if c.TrafficLightLabel == "" {
		errors = append(errors, "traffic_light_label must be set")
	}

	return errors
}

// Categorize classifies a label with the default label sets.
func Categorize(label string) Category {
	return categorize(label, defaultHazards, TrafficLightLabel)
}

var defaultHazards = labelSet(DefaultHazardLabels)

func labelSet(labels []string) map[string]bool {
	set := make(map[string]bool, len(labels))
	for _, l := range labels {
		set[l] = true
	}
	return set
}

func categorize(label string, hazards map[string]bool, trafficLight string) Category {
	switch {
	case hazards[label]:
		return CategoryHazard
	case label == trafficLight:
		return CategoryTrafficLight
	default:
		return CategoryOther
	}
}

// FrameSignals aggregates one frame's interpretations.
// A new value is used for every frame.
type FrameSignals struct {
	StopDetected     bool     `json:"stop_detected"`
	GreenLight       bool     `json:"green_light"`
	RedOrYellowLight bool     `json:"red_or_yellow_light"`
	StopDistance     float64  `json:"stop_distance,omitempty"` // First hazard in detector order that triggered the stop
	HasStopDistance  bool     `json:"has_stop_distance"`
	Descriptors      []string `json:"descriptors"` // Detector order
}

// DistanceText returns "<d> m" for the binding stop distance, or "-".
func (s *FrameSignals) DistanceText() string {
	if !s.HasStopDistance {
		return "-"
	}
	return FormatDistance(s.StopDistance) + " m"
}

// Interpretation is the outcome for one detection.
type Interpretation struct {
	Detection   detection.Detection `json:"detection"`
	Category    Category            `json:"category"`
	Ignored     bool                `json:"ignored"` // Below the score threshold
	Distance    float64             `json:"distance,omitempty"`
	HasDistance bool                `json:"has_distance"`
	Light       *ColorReading       `json:"light,omitempty"` // Traffic lights only
	Descriptor  string              `json:"descriptor,omitempty"`
}

// Interpreter routes each detection to distance estimation or color
// classification and folds the result into the frame's signals.
type Interpreter struct {
	config     Config
	distance   DistanceEstimator
	classifier *ColorClassifier
	hazards    map[string]bool
	logger     *slog.Logger
}

// NewInterpreter creates an interpreter.
func NewInterpreter(cfg Config, logger *slog.Logger) *Interpreter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Interpreter{
		config:     cfg,
		distance:   DistanceEstimator{FOV: cfg.FOV, RealWidth: cfg.RealWidth},
		classifier: NewColorClassifier(cfg.ExpandScale, logger),
		hazards:    labelSet(cfg.HazardLabels),
		logger:     logger.With("component", "perception.interpreter"),
	}
}

// Config returns the interpreter's policy.
func (in *Interpreter) Config() Config {
	return in.config
}

// Categorize classifies a label with this interpreter's label sets.
func (in *Interpreter) Categorize(label string) Category {
	return categorize(label, in.hazards, in.config.TrafficLightLabel)
}

// Interpret handles one detection, updating sig. It never fails: bad
// geometry yields an unknown distance and unreadable pixels add no votes.
func (in *Interpreter) Interpret(det detection.Detection, px PixelReader, sig *FrameSignals) Interpretation {
	out := Interpretation{Detection: det, Category: in.Categorize(det.Label)}

	if det.Score < in.config.ScoreThreshold {
		out.Ignored = true
		return out
	}

	frameW, _ := px.Size()

	switch out.Category {
	case CategoryHazard:
		out.Distance, out.HasDistance = in.distance.Estimate(det.BBox, frameW)
		if out.HasDistance && out.Distance <= in.config.HazardDistance {
			sig.StopDetected = true
			if !sig.HasStopDistance {
				sig.StopDistance = out.Distance
				sig.HasStopDistance = true
			}
		}
		out.Descriptor = distanceDescriptor(det.Label, out.Distance, out.HasDistance)

	case CategoryTrafficLight:
		reading := in.classifier.Classify(det.BBox, px)
		out.Light = &reading
		in.logger.Debug("traffic light classified",
			"color", reading.Color.String(),
			"red", reading.Votes.Red,
			"yellow", reading.Votes.Yellow,
			"green", reading.Votes.Green,
		)
		switch reading.Color {
		case ColorGreen:
			sig.GreenLight = true
		case ColorYellow, ColorRed:
			sig.RedOrYellowLight = true
		}
		out.Descriptor = fmt.Sprintf("%s - %s", det.Label, reading.Color.Code())

	default:
		out.Distance, out.HasDistance = in.distance.Estimate(det.BBox, frameW)
		out.Descriptor = distanceDescriptor(det.Label, out.Distance, out.HasDistance)
	}

	sig.Descriptors = append(sig.Descriptors, out.Descriptor)
	return out
}

// InterpretAll runs Interpret over a frame's detections in order.
func (in *Interpreter) InterpretAll(dets []detection.Detection, px PixelReader) (FrameSignals, []Interpretation) {
	var sig FrameSignals
	results := make([]Interpretation, 0, len(dets))
	for _, d := range dets {
		results = append(results, in.Interpret(d, px, &sig))
	}
	return sig, results
}

func distanceDescriptor(label string, meters float64, ok bool) string {
	if !ok {
		return label + " (-)"
	}
	return fmt.Sprintf("%s (%sm)", label, FormatDistance(meters))
}
