package camera

// Preset names for common configurations
const (
	PresetDefault = "default"
	PresetVGA     = "vga"
	Preset720p    = "720p"
	Preset1080p   = "1080p"
	PresetLowFPS  = "lowfps"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault: DefaultConfig(),
		PresetVGA:     DefaultConfig(),
		Preset720p:    HD720Config(),
		Preset1080p:   HD1080Config(),
		PresetLowFPS:  LowFPSConfig(),
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	if cfg, ok := Presets()[name]; ok {
		return &cfg
	}
	return nil
}

// HD720Config returns 720p HD configuration.
// Larger frames push distance estimates out because box widths grow with resolution.
func HD720Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1280
	cfg.Height = 720
	return cfg
}

// HD1080Config returns 1080p Full HD configuration.
func HD1080Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1920
	cfg.Height = 1080
	cfg.Framerate = 15
	return cfg
}

// LowFPSConfig trades latency for CPU on small boards.
func LowFPSConfig() Config {
	cfg := DefaultConfig()
	cfg.Framerate = 5
	return cfg
}
