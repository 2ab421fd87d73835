//go:build nocgo
// +build nocgo

package audio

import (
	"github.com/Mrnobodysmkn/TTS-04/internal/pcm"
)

// Stub implementation for builds without CGO.

// OtoContext is unavailable in nocgo builds.
type OtoContext struct{}

// NewOtoContext always fails in nocgo builds.
func NewOtoContext() (*OtoContext, error) {
	return nil, ErrUnavailable
}

func (c *OtoContext) SampleRate() int { return pcm.SampleRate }

func (c *OtoContext) Suspended() bool { return false }

func (c *OtoContext) Suspend() error { return ErrUnavailable }

func (c *OtoContext) Resume() error { return ErrUnavailable }

func (c *OtoContext) NewSource(*pcm.Buffer) (Source, error) { return nil, ErrUnavailable }

func (c *OtoContext) Close() error { return nil }
