// RoadSense - driver assistance advisories from a forward-facing camera.
// Detects hazards and traffic lights each frame and speaks STOP or
// PROCEED SLOWLY whenever the advice changes.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-roadsense/internal/config"
	"github.com/teslashibe/go-roadsense/internal/log"
	"github.com/teslashibe/go-roadsense/pkg/app"
)

func main() {
	cfg := parseFlags()

	log.Init(cfg.LogLevel)
	logger := log.With("cmd", "roadsense")

	a, err := app.New(cfg, app.WithLogger(log.L()))
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(2)
	}

	if err := a.Init(); err != nil {
		logger.Error("initialization failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err = a.Run(ctx)
	cancel()
	a.Shutdown()
	if err != nil {
		logger.Error("runtime error", "error", err)
		os.Exit(1)
	}
}

// parseFlags parses command line flags and returns configuration.
func parseFlags() app.Config {
	cfg := app.DefaultConfig()

	debug := flag.Bool("debug", false, "Enable verbose debug logging (same as -log-level debug)")
	flag.StringVar(&cfg.LogLevel, "log-level", config.LogLevel(), "Log level: debug, info, warn, error")
	flag.StringVar(&cfg.CameraDevice, "camera", cfg.CameraDevice, "Camera index or stream URL (overrides CAMERA_DEVICE)")
	flag.StringVar(&cfg.CameraPreset, "preset", cfg.CameraPreset, "Camera preset: default, vga, 720p, 1080p, lowfps")
	flag.StringVar(&cfg.InputDir, "input", "", "Replay images from this directory instead of the camera")
	flag.BoolVar(&cfg.Loop, "loop", false, "Loop the -input directory")
	flag.StringVar(&cfg.Detector, "detector", cfg.Detector, "Detector backend: yolo, remote")
	flag.StringVar(&cfg.ModelPath, "model", cfg.ModelPath, "YOLOv8 ONNX model path (overrides MODEL_PATH)")
	flag.StringVar(&cfg.DetectorURL, "detector-url", "", "Remote detector websocket URL (overrides DETECTOR_URL)")
	flag.StringVar(&cfg.TTSMode, "tts", cfg.TTSMode, "TTS provider: none, openai, elevenlabs, chain")
	flag.StringVar(&cfg.TTSVoice, "tts-voice", "", "Voice ID for ElevenLabs (overrides ELEVENLABS_VOICE_ID)")
	flag.StringVar(&cfg.Phrases, "phrases", cfg.Phrases, "Advisory phrases: en, ko")
	flag.StringVar(&cfg.Language, "lang", cfg.Language, "Speech language tag (overrides ROADSENSE_LANG)")
	port := flag.String("port", config.DashboardPort(), "Dashboard port, empty to disable (overrides DASHBOARD_PORT)")
	flag.DurationVar(&cfg.FrameInterval, "interval", 0, "Frame interval, default 1/30s")
	flag.IntVar(&cfg.MaxFailures, "max-failures", cfg.MaxFailures, "Consecutive frame failures before exiting")
	flag.DurationVar(&cfg.RetryDelay, "retry-delay", cfg.RetryDelay, "Delay before restarting after a failed frame")
	flag.Parse()

	if *debug {
		cfg.LogLevel = "debug"
	}
	cfg.DashboardAddr = ""
	if *port != "" {
		cfg.DashboardAddr = ":" + *port
	}

	// Environment variables
	cfg.LoadEnvConfig()
	return cfg
}
