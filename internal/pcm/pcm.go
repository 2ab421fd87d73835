// Package pcm decodes and encodes the speech payloads exchanged with the
// speech-generation providers.
//
// A payload is base64 text wrapping mono signed 16-bit little-endian PCM at a
// fixed 24 kHz sample rate. Decoding turns it into float samples normalised to
// [-1, 1] ready to hand to an audio context.
package pcm

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// Audio format constants for generated speech.
const (
	// SampleRate is the sample rate of every payload in Hz.
	SampleRate = 24000
	// Channels is the number of channels (mono).
	Channels = 1
	// BitDepth is the bit depth per sample.
	BitDepth = 16
	// BytesPerSample is the size of one frame in bytes.
	BytesPerSample = BitDepth / 8 * Channels
)

// ErrMalformedPayload is returned when a payload cannot be turned into PCM
// frames.
var ErrMalformedPayload = errors.New("malformed audio payload")

// Payload is an opaque base64 encoded PCM payload as produced by a speech
// provider. Payloads are never modified once received.
type Payload string

// Buffer holds decoded PCM samples.
type Buffer struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// Frames returns the number of sample frames in the buffer.
func (b *Buffer) Frames() int {
	if b.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration returns the playback length of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate == 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// Bytes decodes the base64 payload into raw little-endian PCM bytes.
func (p Payload) Bytes() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(string(p))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if err := Validate(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Validate checks that raw PCM data is non-empty and aligned to whole frames.
func Validate(raw []byte) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: empty PCM data", ErrMalformedPayload)
	}
	if len(raw)%BytesPerSample != 0 {
		return fmt.Errorf("%w: PCM data length %d is not aligned to %d-byte samples",
			ErrMalformedPayload, len(raw), BytesPerSample)
	}
	return nil
}

// Decode turns a payload into a buffer of normalised float samples.
func Decode(p Payload) (*Buffer, error) {
	raw, err := p.Bytes()
	if err != nil {
		return nil, err
	}

	frames := len(raw) / BytesPerSample
	samples := make([]float32, frames*Channels)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = float32(v) / 32768.0
	}

	return &Buffer{
		Samples:    samples,
		SampleRate: SampleRate,
		Channels:   Channels,
	}, nil
}

// EncodeBytes wraps raw 16-bit PCM bytes into a payload.
func EncodeBytes(raw []byte) Payload {
	return Payload(base64.StdEncoding.EncodeToString(raw))
}

// Encode quantises float samples to 16-bit PCM and wraps them into a payload.
// Samples outside [-1, 1] are clamped.
func Encode(samples []float32) Payload {
	raw := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(quantize(s)))
	}
	return EncodeBytes(raw)
}

func quantize(s float32) int16 {
	v := math.Round(float64(s) * 32768.0)
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}
