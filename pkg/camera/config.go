// Package camera provides frame sources for the perception pipeline.
package camera

import "fmt"

// Config holds capture parameters.
type Config struct {
	Device    string `json:"device"`    // Device index ("0") or stream URL
	Width     int    `json:"width"`     // Requested frame width in pixels
	Height    int    `json:"height"`    // Requested frame height in pixels
	Framerate int    `json:"framerate"` // Target FPS, also drives the pipeline tick
}

// Capture limits accepted by Validate.
const (
	MinWidth     = 160
	MinHeight    = 120
	MaxWidth     = 3840
	MaxHeight    = 2160
	MaxFramerate = 120
)

// DefaultConfig returns the 640x480 capture the advisory was tuned for.
func DefaultConfig() Config {
	return Config{
		Device:    "0",
		Width:     640,
		Height:    480,
		Framerate: 30,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device == "" {
		errors = append(errors, "device must be set")
	}
	if c.Width < MinWidth || c.Width > MaxWidth {
		errors = append(errors, fmt.Sprintf("width must be between %d and %d", MinWidth, MaxWidth))
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errors = append(errors, fmt.Sprintf("height must be between %d and %d", MinHeight, MaxHeight))
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, fmt.Sprintf("framerate must be between 1 and %d", MaxFramerate))
	}

	return errors
}
