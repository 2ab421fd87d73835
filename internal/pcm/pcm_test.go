package pcm

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"
)

// generateTone returns samples of a sine wave at the payload sample rate.
func generateTone(durationMs int, frequency float64) []float32 {
	n := SampleRate * durationMs / 1000
	samples := make([]float32, n)
	for i := range samples {
		t := float64(i) / float64(SampleRate)
		samples[i] = float32(math.Sin(2 * math.Pi * frequency * t))
	}
	return samples
}

func TestDecode(t *testing.T) {
	raw := make([]byte, 6)
	binary.LittleEndian.PutUint16(raw[0:], uint16(0))
	binary.LittleEndian.PutUint16(raw[2:], uint16(16384))
	minusOne := int16(math.MinInt16)
	binary.LittleEndian.PutUint16(raw[4:], uint16(minusOne))

	buf, err := Decode(EncodeBytes(raw))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if buf.SampleRate != 24000 {
		t.Errorf("Expected sample rate 24000, got %d", buf.SampleRate)
	}
	if buf.Channels != 1 {
		t.Errorf("Expected 1 channel, got %d", buf.Channels)
	}

	want := []float32{0, 0.5, -1}
	if len(buf.Samples) != len(want) {
		t.Fatalf("Expected %d samples, got %d", len(want), len(buf.Samples))
	}
	for i := range want {
		if buf.Samples[i] != want[i] {
			t.Errorf("Sample %d: expected %v, got %v", i, want[i], buf.Samples[i])
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
	}{
		{
			name:    "odd byte length",
			payload: Payload(base64.StdEncoding.EncodeToString([]byte{0x00, 0x01, 0x02})),
		},
		{
			name:    "single byte",
			payload: Payload(base64.StdEncoding.EncodeToString([]byte{0x7f})),
		},
		{
			name:    "invalid base64",
			payload: Payload("not base64 at all!"),
		},
		{
			name:    "empty payload",
			payload: Payload(""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.payload)
			if !errors.Is(err, ErrMalformedPayload) {
				t.Errorf("Expected ErrMalformedPayload, got %v", err)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := map[string][]float32{
		"tone":     generateTone(50, 440),
		"extremes": {-1, 1, 0, -0.999, 0.999},
		"small":    {1e-6, -1e-6, 0.25, -0.25},
		"clamped":  {1.5, -2},
	}

	const tolerance = 1.0 / 32768.0

	for name, samples := range inputs {
		t.Run(name, func(t *testing.T) {
			buf, err := Decode(Encode(samples))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if len(buf.Samples) != len(samples) {
				t.Fatalf("Expected %d samples, got %d", len(samples), len(buf.Samples))
			}
			for i, s := range samples {
				want := math.Max(-1, math.Min(1, float64(s)))
				if diff := math.Abs(float64(buf.Samples[i]) - want); diff > tolerance {
					t.Errorf("Sample %d: expected %v, got %v (diff %v)", i, want, buf.Samples[i], diff)
				}
			}
		})
	}
}

func TestBufferDuration(t *testing.T) {
	buf, err := Decode(Encode(make([]float32, SampleRate/2)))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if d := buf.Duration(); d != 500*time.Millisecond {
		t.Errorf("Expected 500ms, got %v", d)
	}
}

func TestWAV(t *testing.T) {
	p := Encode(generateTone(10, 220))
	raw, _ := p.Bytes()

	var out bytes.Buffer
	if err := WriteWAV(&out, p); err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}
	data := out.Bytes()

	if len(data) != 44+len(raw) {
		t.Fatalf("Expected %d bytes, got %d", 44+len(raw), len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Error("Missing RIFF/WAVE header")
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != SampleRate {
		t.Errorf("Expected sample rate %d in header, got %d", SampleRate, got)
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); int(got) != len(raw) {
		t.Errorf("Expected data size %d, got %d", len(raw), got)
	}
	if !bytes.Equal(data[44:], raw) {
		t.Error("PCM data not copied verbatim")
	}

	if err := WriteWAV(&out, Payload("")); !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("Expected ErrMalformedPayload for empty payload, got %v", err)
	}
}
