// Package tts turns advisory text into speech audio.
//
// Every backend implements Provider, so the notification path can switch
// between OpenAI, ElevenLabs or a fallback Chain without changes:
//
//	provider, _ := tts.NewElevenLabs(
//	    tts.WithAPIKey(os.Getenv("ELEVENLABS_API_KEY")),
//	    tts.WithVoice(os.Getenv("ELEVENLABS_VOICE_ID")),
//	)
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, tts.Utterance{Text: "정지하십시오", Lang: "ko-KR"})
//	// result.Audio holds MP3 bytes
package tts

import (
	"context"
	"time"
)

// Utterance is text to speak and its BCP-47 language tag.
type Utterance struct {
	Text string
	Lang string
}

// Provider defines the TTS provider interface.
type Provider interface {
	// Synthesize converts the utterance to a complete audio buffer.
	Synthesize(ctx context.Context, u Utterance) (*AudioResult, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the encoded audio data.
	Audio []byte

	// Format describes the audio encoding and sample rate.
	Format AudioFormat

	// Duration is the estimated playback duration, zero when unknown.
	Duration time.Duration

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the request round trip in milliseconds.
	LatencyMs int64
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	Encoding   Encoding
	SampleRate int
	Channels   int
	BitDepth   int // PCM only
}

// Encoding names an audio encoding. Values match ElevenLabs output formats.
type Encoding string

const (
	EncodingPCM16 Encoding = "pcm_16000"     // 16kHz mono PCM16
	EncodingPCM22 Encoding = "pcm_22050"     // 22.05kHz mono PCM16
	EncodingPCM24 Encoding = "pcm_24000"     // 24kHz mono PCM16
	EncodingPCM44 Encoding = "pcm_44100"     // 44.1kHz mono PCM16
	EncodingMP3   Encoding = "mp3_44100_128" // MP3 128kbps
)

// IsPCM reports whether e is raw PCM16.
func (e Encoding) IsPCM() bool {
	switch e {
	case EncodingPCM16, EncodingPCM22, EncodingPCM24, EncodingPCM44:
		return true
	}
	return false
}

// VoiceSettings controls voice characteristics for providers that support it.
type VoiceSettings struct {
	// Stability controls voice consistency (0.0-1.0).
	// A calm, consistent voice suits short driving prompts.
	Stability float64

	// SimilarityBoost controls how closely the voice matches the original (0.0-1.0).
	SimilarityBoost float64

	// Style controls style exaggeration (0.0-1.0).
	Style float64

	// SpeakerBoost enhances speaker clarity over road noise.
	SpeakerBoost bool
}

// DefaultVoiceSettings returns settings for clear, steady prompts.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Stability:       0.7,
		SimilarityBoost: 0.75,
		Style:           0.0,
		SpeakerBoost:    true,
	}
}

// SampleRateFromEncoding extracts the sample rate from an encoding type.
func SampleRateFromEncoding(enc Encoding) int {
	switch enc {
	case EncodingPCM16:
		return 16000
	case EncodingPCM22:
		return 22050
	case EncodingPCM24:
		return 24000
	case EncodingPCM44, EncodingMP3:
		return 44100
	default:
		return 44100
	}
}

// PCMDuration returns the playback length of n bytes of mono PCM16.
func PCMDuration(n int, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	samples := n / 2
	return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
}
