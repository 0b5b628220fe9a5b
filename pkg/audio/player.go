// Package audio plays synthesized speech on the local output device.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/teslashibe/go-roadsense/pkg/tts"
)

// ErrNoAudio is returned when there is nothing to play.
var ErrNoAudio = errors.New("audio: no audio data")

// waitDelay bounds how long Wait lingers on pipes held by a killed player's children.
const waitDelay = 500 * time.Millisecond

// DefaultCommand is the player binary. It must read audio from stdin.
const DefaultCommand = "ffplay"

// Player pipes audio into an external player process.
// Cancelling the context passed to Play kills the process, which is how
// an in-flight utterance is cut off.
type Player struct {
	// Command is the player binary, DefaultCommand when empty.
	Command string

	// Args builds the command line for a format. FFplayArgs when nil.
	Args func(tts.AudioFormat) []string

	// Callbacks
	OnPlaybackStart func()
	OnPlaybackEnd   func()

	logger *slog.Logger

	mu       sync.Mutex
	speaking bool
}

// NewPlayer creates a player using ffplay.
func NewPlayer(logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		Command: DefaultCommand,
		Args:    FFplayArgs,
		logger:  logger.With("component", "audio.player"),
	}
}

// FFplayArgs returns ffplay flags for headless playback from stdin.
// Raw PCM needs its layout spelled out; compressed formats are probed.
func FFplayArgs(f tts.AudioFormat) []string {
	args := []string{"-nodisp", "-autoexit", "-loglevel", "error"}
	if f.Encoding.IsPCM() {
		channels := f.Channels
		if channels <= 0 {
			channels = 1
		}
		args = append(args,
			"-f", "s16le",
			"-ar", strconv.Itoa(f.SampleRate),
			"-ch_layout", channelLayout(channels),
		)
	}
	return append(args, "-i", "pipe:0")
}

func channelLayout(channels int) string {
	if channels == 2 {
		return "stereo"
	}
	return "mono"
}

// Available reports whether the player binary is on PATH.
func (p *Player) Available() bool {
	_, err := exec.LookPath(p.command())
	return err == nil
}

// Play blocks until playback finishes or ctx is cancelled.
func (p *Player) Play(ctx context.Context, result *tts.AudioResult) error {
	if result == nil || len(result.Audio) == 0 {
		return ErrNoAudio
	}

	argsFn := p.Args
	if argsFn == nil {
		argsFn = FFplayArgs
	}

	cmd := exec.CommandContext(ctx, p.command(), argsFn(result.Format)...)
	cmd.Stdin = bytes.NewReader(result.Audio)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("audio: start %s: %w", p.command(), err)
	}

	p.setSpeaking(true)
	if p.OnPlaybackStart != nil {
		p.OnPlaybackStart()
	}

	err := cmd.Wait()

	p.setSpeaking(false)
	if p.OnPlaybackEnd != nil {
		p.OnPlaybackEnd()
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		p.logger.Warn("player exited with error", "error", err, "stderr", stderr.String())
		return fmt.Errorf("audio: %s: %w", p.command(), err)
	}
	return nil
}

// IsSpeaking returns true while a process is playing.
func (p *Player) IsSpeaking() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speaking
}

func (p *Player) setSpeaking(v bool) {
	p.mu.Lock()
	p.speaking = v
	p.mu.Unlock()
}

func (p *Player) command() string {
	if p.Command == "" {
		return DefaultCommand
	}
	return p.Command
}
