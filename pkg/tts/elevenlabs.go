package tts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teslashibe/go-roadsense/internal/httpc"
)

const (
	elevenLabsBaseURL  = "https://api.elevenlabs.io/v1"
	providerElevenLabs = "elevenlabs"
)

// ElevenLabs model IDs
const (
	// ModelFlashV2_5 is the fastest multilingual model.
	ModelFlashV2_5 = "eleven_flash_v2_5"

	// ModelMultilingualV2 is the highest quality multilingual model.
	ModelMultilingualV2 = "eleven_multilingual_v2"
)

// ElevenLabs implements Provider for ElevenLabs TTS.
type ElevenLabs struct {
	config  *Config
	client  *http.Client
	req     *requester
	logger  *slog.Logger
	baseURL string
}

// NewElevenLabs creates a new ElevenLabs TTS provider.
func NewElevenLabs(opts ...Option) (*ElevenLabs, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.ValidateWithVoice(); err != nil {
		return nil, err
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = elevenLabsBaseURL
	}

	e := &ElevenLabs{
		config:  cfg,
		client:  httpc.NewClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "tts.elevenlabs"),
		baseURL: baseURL,
	}
	e.req = &requester{
		provider:   providerElevenLabs,
		client:     e.client,
		logger:     e.logger,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		setHeaders: e.setHeaders,
		parseError: e.parseError,
	}
	return e, nil
}

// Synthesize converts the utterance to audio in the configured format.
func (e *ElevenLabs) Synthesize(ctx context.Context, u Utterance) (*AudioResult, error) {
	if strings.TrimSpace(u.Text) == "" {
		return nil, WrapError(providerElevenLabs, ErrEmptyText)
	}

	start := time.Now()

	payload, err := e.buildPayload(u)
	if err != nil {
		return nil, WrapError(providerElevenLabs, err)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("marshal payload: %w", err))
	}

	endpoint := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s",
		e.baseURL, url.PathEscape(e.config.VoiceID), url.QueryEscape(string(e.config.OutputFormat)))

	resp, err := e.req.do(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, e.parseError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("read response: %w", err))
	}

	latency := time.Since(start).Milliseconds()

	e.logger.Debug("synthesized audio",
		"chars", len([]rune(u.Text)),
		"lang", payload["language_code"],
		"bytes", len(audio),
		"latency_ms", latency,
		"model", e.config.ModelID,
	)

	format := AudioFormat{
		Encoding:   e.config.OutputFormat,
		SampleRate: SampleRateFromEncoding(e.config.OutputFormat),
		Channels:   1,
	}
	var duration time.Duration
	if format.Encoding.IsPCM() {
		format.BitDepth = 16
		duration = PCMDuration(len(audio), format.SampleRate)
	}

	return &AudioResult{
		Audio:     audio,
		Format:    format,
		CharCount: len([]rune(u.Text)),
		LatencyMs: latency,
		Duration:  duration,
	}, nil
}

// Health validates the API key against the user endpoint.
func (e *ElevenLabs) Health(ctx context.Context) error {
	resp, err := e.req.do(ctx, http.MethodGet, e.baseURL+"/user", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return e.parseError(resp)
	}
	return nil
}

// Close releases resources.
func (e *ElevenLabs) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

// buildPayload creates the request body. The language code is only sent
// for multilingual models; a tag that does not parse is an error.
func (e *ElevenLabs) buildPayload(u Utterance) (map[string]interface{}, error) {
	payload := map[string]interface{}{
		"text":     u.Text,
		"model_id": e.config.ModelID,
		"voice_settings": map[string]interface{}{
			"stability":         e.config.VoiceSettings.Stability,
			"similarity_boost":  e.config.VoiceSettings.SimilarityBoost,
			"style":             e.config.VoiceSettings.Style,
			"use_speaker_boost": e.config.VoiceSettings.SpeakerBoost,
		},
	}

	if tag := e.config.lang(u); tag != "" {
		code, err := LanguageCode(tag)
		if err != nil {
			return nil, err
		}
		payload["language_code"] = code
	}

	return payload, nil
}

func (e *ElevenLabs) setHeaders(req *http.Request) {
	req.Header.Set("xi-api-key", e.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if e.config.OutputFormat.IsPCM() {
		req.Header.Set("Accept", "audio/pcm")
	} else {
		req.Header.Set("Accept", "audio/mpeg")
	}
}

// parseError reads and parses an error response.
func (e *ElevenLabs) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Detail struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"detail"`
	}

	message := string(body)
	code := ""
	if json.Unmarshal(body, &errResp) == nil && errResp.Detail.Message != "" {
		message = errResp.Detail.Message
		code = errResp.Detail.Status
	}

	return newAPIError(providerElevenLabs, resp, code, message)
}

// Verify ElevenLabs implements Provider at compile time.
var _ Provider = (*ElevenLabs)(nil)
