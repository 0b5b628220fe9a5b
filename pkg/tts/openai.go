package tts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teslashibe/go-roadsense/internal/httpc"
)

const (
	openAIBaseURL  = "https://api.openai.com/v1"
	providerOpenAI = "openai"
)

// OpenAI voice options
const (
	VoiceAlloy   = "alloy"   // Neutral voice
	VoiceEcho    = "echo"    // Male voice
	VoiceNova    = "nova"    // Female voice
	VoiceOnyx    = "onyx"    // Deep male voice
	VoiceShimmer = "shimmer" // Soft female voice
)

// OpenAI model options
const (
	ModelTTS1   = "tts-1"    // Standard quality, faster
	ModelTTS1HD = "tts-1-hd" // Higher quality, slower
)

// OpenAI implements Provider for OpenAI TTS.
// The API detects the language from the text, so Utterance.Lang is only logged.
type OpenAI struct {
	config  *Config
	client  *http.Client
	req     *requester
	logger  *slog.Logger
	baseURL string
}

// NewOpenAI creates a new OpenAI TTS provider.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.ModelID = ModelTTS1
	cfg.VoiceID = VoiceNova
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// OpenAI only returns MP3 in this mode
	cfg.OutputFormat = EncodingMP3

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = openAIBaseURL
	}

	o := &OpenAI{
		config:  cfg,
		client:  httpc.NewClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "tts.openai"),
		baseURL: baseURL,
	}
	o.req = &requester{
		provider:   providerOpenAI,
		client:     o.client,
		logger:     o.logger,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		setHeaders: o.setHeaders,
		parseError: o.parseError,
	}
	return o, nil
}

// Synthesize converts the utterance to MP3 audio.
func (o *OpenAI) Synthesize(ctx context.Context, u Utterance) (*AudioResult, error) {
	if strings.TrimSpace(u.Text) == "" {
		return nil, WrapError(providerOpenAI, ErrEmptyText)
	}

	start := time.Now()

	body, err := json.Marshal(map[string]interface{}{
		"model":           o.config.ModelID,
		"voice":           o.config.VoiceID,
		"input":           u.Text,
		"response_format": "mp3",
	})
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("marshal payload: %w", err))
	}

	resp, err := o.req.do(ctx, http.MethodPost, o.baseURL+"/audio/speech", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, o.parseError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("read response: %w", err))
	}

	latency := time.Since(start).Milliseconds()

	o.logger.Debug("synthesized audio",
		"chars", len([]rune(u.Text)),
		"lang", o.config.lang(u),
		"bytes", len(audio),
		"latency_ms", latency,
		"voice", o.config.VoiceID,
	)

	return &AudioResult{
		Audio: audio,
		Format: AudioFormat{
			Encoding:   EncodingMP3,
			SampleRate: 44100,
			Channels:   1,
		},
		CharCount: len([]rune(u.Text)),
		LatencyMs: latency,
	}, nil
}

// Health checks API connectivity through the models endpoint.
func (o *OpenAI) Health(ctx context.Context) error {
	resp, err := o.req.do(ctx, http.MethodGet, o.baseURL+"/models", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return o.parseError(resp)
	}
	return nil
}

// Close releases resources.
func (o *OpenAI) Close() error {
	o.client.CloseIdleConnections()
	return nil
}

// VoiceID returns the configured voice.
func (o *OpenAI) VoiceID() string {
	return o.config.VoiceID
}

func (o *OpenAI) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+o.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
}

// parseError reads and parses an error response.
func (o *OpenAI) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}

	message := string(body)
	code := ""
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
		code = errResp.Error.Code
	}

	return newAPIError(providerOpenAI, resp, code, message)
}

// Verify OpenAI implements Provider at compile time.
var _ Provider = (*OpenAI)(nil)
