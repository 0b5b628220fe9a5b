package pipeline

import (
	"time"

	"github.com/teslashibe/go-roadsense/pkg/advisory"
	"github.com/teslashibe/go-roadsense/pkg/perception"
)

// Config holds pipeline configuration.
type Config struct {
	// FrameInterval is the tick between frames. A frame that takes longer
	// delays the next one; missed ticks are dropped, never queued.
	FrameInterval time.Duration `json:"frame_interval"`

	// Perception is the interpreter policy.
	Perception perception.Config `json:"perception"`

	// Phrases is the advisory text per action.
	Phrases advisory.Phrasebook `json:"phrases"`

	// Language is the tag attached to notifications.
	Language string `json:"language"`
}

// DefaultConfig returns 30 fps with the standard policy.
func DefaultConfig() Config {
	return Config{
		FrameInterval: time.Second / 30,
		Perception:    perception.DefaultConfig(),
		Phrases:       advisory.EnglishPhrases,
		Language:      advisory.DefaultLanguage,
	}
}

// Validate checks the config and returns a list of problems, or nil.
func (c *Config) Validate() []string {
	var errors []string

	if c.FrameInterval <= 0 {
		errors = append(errors, "frame_interval must be positive")
	}
	if c.Phrases.Stop == "" || c.Phrases.ProceedSlowly == "" {
		errors = append(errors, "phrases must be set for every action")
	}
	if c.Language == "" {
		errors = append(errors, "language must be set")
	}
	errors = append(errors, c.Perception.Validate()...)

	return errors
}
