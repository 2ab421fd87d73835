package audio

import (
	"sync"
	"time"

	"github.com/Mrnobodysmkn/TTS-04/internal/pcm"
	"github.com/charmbracelet/log"
)

// MockContext implements Context without an audio device.
//
// In manual mode (NewMockContext) sources only end when the test calls
// MockSource.Finish. In timed mode (NewTimedMockContext) sources end on their
// own after their duration divided by the speed factor.
type MockContext struct {
	mu        sync.Mutex
	closed    bool
	suspended bool
	timed     bool
	speed     float64
	sources   []*MockSource

	// ResumeErr, when set, is returned by Resume and leaves the context
	// suspended.
	ResumeErr error
	// SourceErr, when set, is returned by NewSource.
	SourceErr error

	// Test helpers
	Resumes int
}

// NewMockContext creates a manual mock context.
func NewMockContext() *MockContext {
	return &MockContext{speed: 1.0}
}

// NewTimedMockContext creates a mock context that simulates real-time
// playback. speed > 1 plays faster than real time.
func NewTimedMockContext(speed float64) *MockContext {
	if speed <= 0 {
		speed = 1.0
	}
	return &MockContext{timed: true, speed: speed}
}

// SampleRate returns the mock sample rate.
func (m *MockContext) SampleRate() int {
	return pcm.SampleRate
}

// Suspended reports whether the context is suspended.
func (m *MockContext) Suspended() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.suspended
}

// Suspend marks the context suspended.
func (m *MockContext) Suspend() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.suspended = true
	return nil
}

// Resume resumes the context unless ResumeErr is set.
func (m *MockContext) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.Resumes++
	if m.ResumeErr != nil {
		return m.ResumeErr
	}
	m.suspended = false
	return nil
}

// NewSource creates a mock source for buf.
func (m *MockContext) NewSource(buf *pcm.Buffer) (Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if m.SourceErr != nil {
		return nil, m.SourceErr
	}

	src := &MockSource{
		context:  m,
		buffer:   buf,
		duration: buf.Duration(),
		stopCh:   make(chan struct{}),
	}
	m.sources = append(m.sources, src)

	log.Debug("Created mock audio source",
		"frames", buf.Frames(),
		"sources_created", len(m.sources))

	return src, nil
}

// Close closes the context and stops every live source.
func (m *MockContext) Close() error {
	m.mu.Lock()
	sources := m.sources
	m.closed = true
	m.mu.Unlock()

	for _, src := range sources {
		_ = src.Stop()
	}
	log.Debug("Mock audio context closed")
	return nil
}

// Closed reports whether Close has been called.
func (m *MockContext) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Sources returns every source created so far, oldest first.
func (m *MockContext) Sources() []*MockSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*MockSource(nil), m.sources...)
}

// Last returns the most recently created source, or nil.
func (m *MockContext) Last() *MockSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sources) == 0 {
		return nil
	}
	return m.sources[len(m.sources)-1]
}

// Playing returns the sources that have been started and neither stopped nor
// finished.
func (m *MockContext) Playing() []*MockSource {
	var playing []*MockSource
	for _, src := range m.Sources() {
		if src.Playing() {
			playing = append(playing, src)
		}
	}
	return playing
}

// MockSource is the Source created by MockContext.
type MockSource struct {
	context  *MockContext
	buffer   *pcm.Buffer
	duration time.Duration

	mu       sync.Mutex
	onEnded  func()
	started  bool
	stopped  bool
	finished bool
	stopCh   chan struct{}
}

// Start begins simulated playback.
func (s *MockSource) Start(onEnded func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true
	s.onEnded = onEnded

	if s.context.timed {
		go s.simulatePlayback()
	}
	return nil
}

// simulatePlayback ends the source after its scaled duration.
func (s *MockSource) simulatePlayback() {
	d := time.Duration(float64(s.duration) / s.context.speed)
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		s.Finish()
	case <-s.stopCh:
	}
}

// Finish simulates the natural end of playback. It reports whether the
// completion callback was invoked.
func (s *MockSource) Finish() bool {
	s.mu.Lock()
	if !s.started || s.stopped || s.finished {
		s.mu.Unlock()
		return false
	}
	s.finished = true
	onEnded := s.onEnded
	s.mu.Unlock()

	if onEnded != nil {
		onEnded()
	}
	return true
}

// Stop halts simulated playback.
func (s *MockSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.stopCh)
	return nil
}

// Duration returns the buffer duration.
func (s *MockSource) Duration() time.Duration {
	return s.duration
}

// Buffer returns the decoded buffer bound to the source.
func (s *MockSource) Buffer() *pcm.Buffer {
	return s.buffer
}

// Playing reports whether the source is rendering.
func (s *MockSource) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && !s.stopped && !s.finished
}

// Stopped reports whether Stop has been called.
func (s *MockSource) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}
