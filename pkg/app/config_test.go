package app

import (
	"errors"
	"testing"

	"github.com/teslashibe/go-roadsense/pkg/advisory"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"unknown detector", func(c *Config) { c.Detector = "ssd" }, "Detector"},
		{"yolo needs model", func(c *Config) { c.ModelPath = "" }, "ModelPath"},
		{"remote needs url", func(c *Config) { c.Detector = DetectorRemote }, "DetectorURL"},
		{"remote with url", func(c *Config) { c.Detector = DetectorRemote; c.DetectorURL = "ws://localhost:8765/detect" }, ""},
		{"openai needs key", func(c *Config) { c.TTSMode = TTSOpenAI }, "OpenAIKey"},
		{"openai with key", func(c *Config) { c.TTSMode = TTSOpenAI; c.OpenAIKey = "sk" }, ""},
		{"elevenlabs needs key", func(c *Config) { c.TTSMode = TTSElevenLabs; c.TTSVoice = "v" }, "ElevenLabsKey"},
		{"elevenlabs needs voice", func(c *Config) { c.TTSMode = TTSElevenLabs; c.ElevenLabsKey = "k" }, "TTSVoice"},
		{"chain needs openai", func(c *Config) {
			c.TTSMode = TTSChain
			c.ElevenLabsKey = "k"
			c.TTSVoice = "v"
		}, "OpenAIKey"},
		{"unknown tts", func(c *Config) { c.TTSMode = "festival" }, "TTSMode"},
		{"unknown phrases", func(c *Config) { c.Phrases = "fr" }, "Phrases"},
		{"unknown preset", func(c *Config) { c.CameraPreset = "8k" }, "CameraPreset"},
		{"preset ignored for replay", func(c *Config) { c.CameraPreset = "8k"; c.InputDir = "frames" }, ""},
		{"negative failures", func(c *Config) { c.MaxFailures = -1 }, "MaxFailures"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()

			if tt.field == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}

			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Validate() error = %v, want *ConfigError", err)
			}
			if ce.Field != tt.field {
				t.Errorf("field = %q, want %q", ce.Field, tt.field)
			}
		})
	}
}

func TestPhrasebook(t *testing.T) {
	tests := []struct {
		name string
		want advisory.Phrasebook
	}{
		{"", advisory.EnglishPhrases},
		{"en", advisory.EnglishPhrases},
		{"ko", advisory.KoreanPhrases},
	}
	for _, tt := range tests {
		cfg := Config{Phrases: tt.name}
		got, err := cfg.Phrasebook()
		if err != nil || got != tt.want {
			t.Errorf("Phrasebook(%q) = %+v, %v", tt.name, got, err)
		}
	}
}

func TestLoadEnvConfig(t *testing.T) {
	t.Setenv("CAMERA_DEVICE", "rtsp://cam/stream")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ELEVENLABS_VOICE_ID", "voice-1")
	t.Setenv("ROADSENSE_LANG", "en-US")

	cfg := DefaultConfig()
	cfg.LoadEnvConfig()

	if cfg.CameraDevice != "rtsp://cam/stream" {
		t.Errorf("CameraDevice = %q", cfg.CameraDevice)
	}
	if cfg.OpenAIKey != "sk-test" || cfg.TTSVoice != "voice-1" || cfg.Language != "en-US" {
		t.Errorf("env not applied: %+v", cfg)
	}

	// Flags win over the environment
	cfg = DefaultConfig()
	cfg.CameraDevice = "2"
	cfg.LoadEnvConfig()
	if cfg.CameraDevice != "2" {
		t.Errorf("CameraDevice = %q, want flag value", cfg.CameraDevice)
	}
}
