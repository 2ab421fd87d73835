package playback

import (
	"fmt"
	"sync"
	"time"

	"github.com/Mrnobodysmkn/TTS-04/internal/audio"
	"github.com/Mrnobodysmkn/TTS-04/internal/pcm"
	"github.com/charmbracelet/log"
)

// Source is the engine's handle on the single rendering source.
type Source struct {
	ID       uint64
	Duration time.Duration

	src         audio.Source
	onCompleted func()
	detached    bool
}

// Renderer plays payloads one at a time.
type Renderer interface {
	PlayRaw(p pcm.Payload, onCompleted func()) (*Source, error)
	StopCurrent()
}

// Engine owns a rendering context and at most one active source.
type Engine struct {
	mu      sync.Mutex
	ctx     audio.Context
	current *Source
	seq     uint64
	closed  bool
}

// NewEngine creates an engine rendering through ctx. The engine takes
// ownership of ctx and closes it on Teardown.
func NewEngine(ctx audio.Context) *Engine {
	return &Engine{ctx: ctx}
}

// PlayRaw replaces the current source with one rendering p.
//
// The previous source is stopped and released before the new one is created.
// onCompleted fires exactly once when the new source ends naturally and never
// after it has been stopped. It is called from an arbitrary goroutine.
func (e *Engine) PlayRaw(p pcm.Payload, onCompleted func()) (*Source, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrEngineClosed
	}

	if e.ctx.Suspended() {
		log.Debug("Resuming suspended rendering context")
		if err := e.ctx.Resume(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrContext, err)
		}
	}

	e.stopLocked()

	buf, err := pcm.Decode(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	src, err := e.ctx.NewSource(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	e.seq++
	s := &Source{
		ID:          e.seq,
		Duration:    src.Duration(),
		src:         src,
		onCompleted: onCompleted,
	}

	if err := src.Start(func() { e.sourceEnded(s) }); err != nil {
		_ = src.Stop()
		return nil, fmt.Errorf("%w: %w", ErrContext, err)
	}
	e.current = s

	log.Debug("Source started", "id", s.ID, "duration", s.Duration)
	return s, nil
}

// sourceEnded handles a natural end reported by the rendering context.
func (e *Engine) sourceEnded(s *Source) {
	e.mu.Lock()
	if s.detached || e.current != s {
		e.mu.Unlock()
		return
	}
	s.detached = true
	e.current = nil
	onCompleted := s.onCompleted
	e.mu.Unlock()

	log.Debug("Source completed", "id", s.ID)
	if onCompleted != nil {
		onCompleted()
	}
}

// StopCurrent detaches the completion callback of the current source, halts
// it and clears it. It does nothing when no source is active.
func (e *Engine) StopCurrent() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *Engine) stopLocked() {
	s := e.current
	if s == nil {
		return
	}
	s.detached = true
	e.current = nil

	if err := s.src.Stop(); err != nil {
		// The source may already have ended on its own.
		log.Debug("Stopping source failed", "id", s.ID, "error", err)
	}
	log.Debug("Source stopped", "id", s.ID)
}

// Current returns the active source, or nil.
func (e *Engine) Current() *Source {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Teardown stops the current source and closes the rendering context. Every
// later PlayRaw fails with ErrEngineClosed.
func (e *Engine) Teardown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.stopLocked()
	e.closed = true

	if err := e.ctx.Close(); err != nil {
		return newError(err, "engine", "teardown")
	}
	log.Debug("Playback engine torn down")
	return nil
}
