// Package app wires capture, detection, the advisory pipeline, speech and
// the dashboard into the roadsense application.
package app

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-roadsense/internal/config"
	"github.com/teslashibe/go-roadsense/pkg/advisory"
	"github.com/teslashibe/go-roadsense/pkg/camera"
)

// Detector backends.
const (
	DetectorYOLO   = "yolo"
	DetectorRemote = "remote"
)

// TTS modes.
const (
	TTSNone       = "none"
	TTSOpenAI     = "openai"
	TTSElevenLabs = "elevenlabs"
	TTSChain      = "chain" // ElevenLabs with OpenAI fallback
)

// Config holds all configuration for the application.
// Flag parsing is done in cmd/roadsense/main.go; this struct is data only.
type Config struct {
	LogLevel string

	// Frame source. InputDir, when set, replays images instead of the camera.
	CameraDevice string
	CameraPreset string
	InputDir     string
	Loop         bool

	// Detection.
	Detector    string // "yolo" or "remote"
	ModelPath   string
	DetectorURL string

	// Notifications.
	TTSMode  string // "none", "openai", "elevenlabs", "chain"
	TTSVoice string
	Phrases  string // "en" or "ko"
	Language string

	// DashboardAddr is the dashboard listen address; empty disables it.
	DashboardAddr string

	// FrameInterval overrides the pipeline tick when positive.
	FrameInterval time.Duration

	// Failure handling. Run gives up after MaxFailures consecutive failed
	// restarts, sleeping RetryDelay between them.
	MaxFailures int
	RetryDelay  time.Duration

	// API Keys (typically from environment variables).
	OpenAIKey     string
	ElevenLabsKey string
}

// DefaultConfig returns defaults for a dashboard-equipped camera setup.
func DefaultConfig() Config {
	return Config{
		LogLevel:      config.DefaultLogLevel,
		CameraDevice:  config.DefaultCameraDevice,
		CameraPreset:  camera.PresetDefault,
		Detector:      DetectorYOLO,
		ModelPath:     config.DefaultModelPath,
		TTSMode:       TTSNone,
		Phrases:       "en",
		Language:      config.DefaultLanguage,
		DashboardAddr: ":" + config.DefaultDashboardPort,
		MaxFailures:   5,
		RetryDelay:    time.Second,
	}
}

// LoadEnvConfig fills unset fields from the environment.
// Call this after flag parsing so flags win.
func (c *Config) LoadEnvConfig() {
	if c.CameraDevice == "" || c.CameraDevice == config.DefaultCameraDevice {
		c.CameraDevice = config.CameraDevice()
	}
	if c.ModelPath == "" || c.ModelPath == config.DefaultModelPath {
		c.ModelPath = config.ModelPath()
	}
	if c.DetectorURL == "" {
		c.DetectorURL = config.DetectorURL()
	}
	if c.Language == "" || c.Language == config.DefaultLanguage {
		c.Language = config.Language()
	}
	if c.TTSVoice == "" {
		c.TTSVoice = config.ElevenLabsVoice()
	}
	c.OpenAIKey = config.OpenAIKey()
	c.ElevenLabsKey = config.ElevenLabsKey()
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Detector {
	case DetectorYOLO:
		if c.ModelPath == "" {
			return &ConfigError{Field: "ModelPath", Message: "a model path is required for the yolo detector"}
		}
	case DetectorRemote:
		if c.DetectorURL == "" {
			return &ConfigError{Field: "DetectorURL", Message: "DETECTOR_URL is required for the remote detector"}
		}
	default:
		return &ConfigError{Field: "Detector", Message: fmt.Sprintf("unknown detector %q", c.Detector)}
	}

	switch c.TTSMode {
	case TTSNone:
	case TTSOpenAI:
		if c.OpenAIKey == "" {
			return &ConfigError{Field: "OpenAIKey", Message: "OPENAI_API_KEY environment variable is required for OpenAI TTS"}
		}
	case TTSElevenLabs, TTSChain:
		if c.ElevenLabsKey == "" {
			return &ConfigError{Field: "ElevenLabsKey", Message: "ELEVENLABS_API_KEY environment variable is required for ElevenLabs TTS"}
		}
		if c.TTSVoice == "" {
			return &ConfigError{Field: "TTSVoice", Message: "ELEVENLABS_VOICE_ID or -tts-voice is required for ElevenLabs TTS"}
		}
		if c.TTSMode == TTSChain && c.OpenAIKey == "" {
			return &ConfigError{Field: "OpenAIKey", Message: "OPENAI_API_KEY environment variable is required for the fallback chain"}
		}
	default:
		return &ConfigError{Field: "TTSMode", Message: fmt.Sprintf("unknown tts mode %q", c.TTSMode)}
	}

	if _, err := c.Phrasebook(); err != nil {
		return err
	}
	if c.InputDir == "" && camera.GetPreset(c.CameraPreset) == nil {
		return &ConfigError{Field: "CameraPreset", Message: fmt.Sprintf("unknown camera preset %q", c.CameraPreset)}
	}
	if c.MaxFailures < 0 {
		return &ConfigError{Field: "MaxFailures", Message: "max failures cannot be negative"}
	}
	return nil
}

// Phrasebook returns the advisory phrases for c.Phrases.
func (c *Config) Phrasebook() (advisory.Phrasebook, error) {
	switch c.Phrases {
	case "", "en":
		return advisory.EnglishPhrases, nil
	case "ko":
		return advisory.KoreanPhrases, nil
	}
	return advisory.Phrasebook{}, &ConfigError{Field: "Phrases", Message: fmt.Sprintf("unknown phrasebook %q", c.Phrases)}
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
