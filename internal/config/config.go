// Package config provides configuration helpers for go-roadsense commands.
package config

import (
	"os"
	"strconv"
)

// Defaults used when no environment override is present.
const (
	DefaultCameraDevice  = "0"
	DefaultModelPath     = "models/yolov8n.onnx"
	DefaultDashboardPort = "8080"
	DefaultLanguage      = "ko-KR"
	DefaultLogLevel      = "info"
)

// CameraDevice returns the capture device from CAMERA_DEVICE.
// Accepts a device index ("0") or a stream URL.
func CameraDevice() string {
	return envOr("CAMERA_DEVICE", DefaultCameraDevice)
}

// CameraIndex reports whether the device is a numeric index.
func CameraIndex(device string) (int, bool) {
	idx, err := strconv.Atoi(device)
	if err != nil {
		return 0, false
	}
	return idx, true
}

// ModelPath returns the detector model path from MODEL_PATH.
func ModelPath() string {
	return envOr("MODEL_PATH", DefaultModelPath)
}

// DetectorURL returns the remote detector websocket URL from DETECTOR_URL.
// Empty means the local YOLO detector is used.
func DetectorURL() string {
	return os.Getenv("DETECTOR_URL")
}

// DashboardPort returns the dashboard port from DASHBOARD_PORT.
func DashboardPort() string {
	return envOr("DASHBOARD_PORT", DefaultDashboardPort)
}

// Language returns the notification language tag from ROADSENSE_LANG.
func Language() string {
	return envOr("ROADSENSE_LANG", DefaultLanguage)
}

// LogLevel returns the log level from LOG_LEVEL.
func LogLevel() string {
	return envOr("LOG_LEVEL", DefaultLogLevel)
}

// OpenAIKey returns OPENAI_API_KEY.
func OpenAIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// ElevenLabsKey returns ELEVENLABS_API_KEY.
func ElevenLabsKey() string {
	return os.Getenv("ELEVENLABS_API_KEY")
}

// ElevenLabsVoice returns ELEVENLABS_VOICE_ID.
func ElevenLabsVoice() string {
	return os.Getenv("ELEVENLABS_VOICE_ID")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
