// Package speech contains the remote services that turn text into audio
// payloads and rewrite text before synthesis.
package speech

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Mrnobodysmkn/TTS-04/internal/pcm"
)

// DefaultTimeout bounds every remote call.
const DefaultTimeout = 60 * time.Second

var (
	// ErrGenerationFailed is the kind of every provider failure, timeouts
	// included.
	ErrGenerationFailed = errors.New("speech generation failed")
	// ErrTimeout is returned when a call exceeds its time budget.
	ErrTimeout = errors.New("operation timed out")
	// ErrNoAudio is returned when a response carries no audio, for example
	// because it was blocked.
	ErrNoAudio = errors.New("no audio data received")
	// ErrMissingAPIKey is returned when a client is created without a key.
	ErrMissingAPIKey = errors.New("API key not set")
	// ErrUnknownVoice is returned for voice ids outside the catalogue.
	ErrUnknownVoice = errors.New("unknown voice")
	// ErrEmptyText is returned when there is nothing to synthesise.
	ErrEmptyText = errors.New("text cannot be empty")
)

// Generator synthesises speech for text in the given voice.
type Generator interface {
	GenerateSpeech(ctx context.Context, text, voice string) (pcm.Payload, error)
}

// Enhancer rewrites text so it reads more naturally when spoken.
type Enhancer interface {
	Enhance(ctx context.Context, text string) (string, error)
}

// GenerationError describes a failed provider call. It matches
// ErrGenerationFailed with errors.Is.
type GenerationError struct {
	Provider string // Provider that failed
	Action   string // "generate" or "enhance"
	Reason   string // Human-readable cause
	Status   int    // HTTP status code, if any
	Err      error  // Underlying error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("%s %s failed", e.Provider, e.Action)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrGenerationFailed.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}
