//go:build !nocgo
// +build !nocgo

package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Mrnobodysmkn/TTS-04/internal/pcm"
	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// oto only allows a single context per process.
var (
	otoOnce    sync.Once
	otoShared  *oto.Context
	otoInitErr error
)

const monitorInterval = 50 * time.Millisecond

// OtoContext renders sources on the system audio device.
type OtoContext struct {
	context   *oto.Context
	mu        sync.Mutex
	suspended bool
	closed    bool
}

// NewOtoContext creates the oto backed context, initialising the device on
// first use.
func NewOtoContext() (*OtoContext, error) {
	otoOnce.Do(func() {
		otoShared, otoInitErr = initOto()
	})
	if otoInitErr != nil {
		return nil, otoInitErr
	}
	return &OtoContext{context: otoShared}, nil
}

func initOto() (*oto.Context, error) {
	options := &oto.NewContextOptions{
		SampleRate:   pcm.SampleRate,
		ChannelCount: pcm.Channels,
		Format:       oto.FormatFloat32LE,
	}

	switch runtime.GOOS {
	case "darwin":
		// macOS benefits from larger buffers
		options.BufferSize = 100 * time.Millisecond
	case "windows":
		options.BufferSize = 80 * time.Millisecond
	default:
		options.BufferSize = 50 * time.Millisecond
	}

	log.Debug("Initializing oto audio context",
		"sample_rate", options.SampleRate,
		"channels", options.ChannelCount,
		"buffer_size", options.BufferSize)

	c, ready, err := oto.NewContext(options)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio context: %w", err)
	}

	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("audio context initialization timeout")
	}
	return c, nil
}

// SampleRate returns the output sample rate.
func (c *OtoContext) SampleRate() int {
	return pcm.SampleRate
}

// Suspended reports whether the device is suspended.
func (c *OtoContext) Suspended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suspended
}

// Suspend suspends the device.
func (c *OtoContext) Suspend() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if err := c.context.Suspend(); err != nil {
		return err
	}
	c.suspended = true
	return nil
}

// Resume resumes a suspended device.
func (c *OtoContext) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if err := c.context.Resume(); err != nil {
		return err
	}
	c.suspended = false
	return nil
}

// NewSource converts buf to the device format and binds it to a new player.
func (c *OtoContext) NewSource(buf *pcm.Buffer) (Source, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if err := c.context.Err(); err != nil {
		return nil, fmt.Errorf("audio context failed: %w", err)
	}

	data := make([]byte, len(buf.Samples)*4)
	for i, s := range buf.Samples {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(s))
	}

	return &otoSource{
		device:   c.context,
		reader:   newTrackingReader(data),
		duration: buf.Duration(),
	}, nil
}

// Close marks the context closed. oto v3 has no way to release the device,
// so it is reclaimed at process exit.
func (c *OtoContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	return nil
}

// trackingReader wraps the player input and tracks how much has been consumed
// by the device goroutine.
type trackingReader struct {
	mu        sync.Mutex
	reader    *bytes.Reader
	remaining atomic.Int64
}

func newTrackingReader(data []byte) *trackingReader {
	r := &trackingReader{reader: bytes.NewReader(data)}
	r.remaining.Store(int64(len(data)))
	return r
}

func (r *trackingReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, err := r.reader.Read(p)
	r.remaining.Add(-int64(n))
	return n, err
}

func (r *trackingReader) drained() bool {
	return r.remaining.Load() <= 0
}

type otoSource struct {
	device   *oto.Context
	reader   *trackingReader
	duration time.Duration

	mu      sync.Mutex
	player  *oto.Player
	cancel  context.CancelFunc
	started bool
	done    bool
}

func (s *otoSource) Start(onEnded func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.player = s.device.NewPlayer(s.reader)
	s.player.Play()

	go s.monitor(ctx, onEnded)
	return nil
}

// monitor polls the player until the buffer has been rendered completely.
func (s *otoSource) monitor(ctx context.Context, onEnded func()) {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.done {
				s.mu.Unlock()
				return
			}
			if !s.reader.drained() || s.player.IsPlaying() {
				s.mu.Unlock()
				continue
			}
			s.done = true
			s.cancel()
			_ = s.player.Close()
			s.mu.Unlock()

			if onEnded != nil {
				onEnded()
			}
			return
		}
	}
}

func (s *otoSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return nil
	}
	s.done = true

	if s.cancel != nil {
		s.cancel()
	}
	if s.player == nil {
		return nil
	}
	s.player.Pause()
	return s.player.Close()
}

func (s *otoSource) Duration() time.Duration {
	return s.duration
}
