package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Mrnobodysmkn/TTS-04/internal/audio"
	"github.com/Mrnobodysmkn/TTS-04/internal/pcm"
	"github.com/Mrnobodysmkn/TTS-04/internal/speech"
	"github.com/charmbracelet/log"
)

// Service is the application-facing playback facade. It owns one Engine, one
// Coordinator and one QueuePlayer and runs every channel transition on a
// single loop, in the order the calls were issued.
//
// Methods that start or stop playback return once the resulting synchronous
// notifications have been delivered.
type Service struct {
	engine *Engine
	coord  *Coordinator
	queue  *QueuePlayer
	loop   *loop

	generator  speech.Generator
	sampleText string
	timeout    time.Duration
	onError    func(error)

	closeOnce sync.Once
	closeErr  error
}

// Option configures a Service.
type Option func(*Service)

// WithGenerator sets the generator used for voice samples.
func WithGenerator(g speech.Generator) Option {
	return func(s *Service) {
		s.generator = g
	}
}

// WithSampleText overrides the text spoken by voice samples.
func WithSampleText(text string) Option {
	return func(s *Service) {
		if text != "" {
			s.sampleText = text
		}
	}
}

// WithGenerationTimeout bounds each sample generation call.
func WithGenerationTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithErrorHandler receives errors raised while the queue advances on its
// own. The handler runs on the playback loop.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Service) {
		s.onError = fn
	}
}

// NewService creates a playback service that renders through ctx. The
// service owns ctx and closes it on Close.
func NewService(ctx audio.Context, opts ...Option) *Service {
	s := &Service{
		engine:     NewEngine(ctx),
		sampleText: speech.SampleText,
		timeout:    speech.DefaultTimeout,
		loop:       newLoop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.coord = NewCoordinator(s.engine)
	s.queue = NewQueuePlayer(s.engine, s.coord, s.loop.post)
	if s.onError != nil {
		s.queue.SetErrorHandler(s.onError)
	}
	if s.generator != nil {
		s.generator = speech.WithTimeout(s.generator, s.timeout)
	}
	return s
}

// resetAll stops everything, including the queue. Runs on the loop.
func (s *Service) resetAll() uint64 {
	s.queue.Stop()
	s.coord.ResetAll()
	return s.coord.Epoch()
}

// finisher returns a completion callback that reports finished on ch unless
// the activation it belongs to has been superseded.
func (s *Service) finisher(token uint64, ch Channel, id ID) func() {
	return func() {
		s.loop.post(func() {
			if s.coord.Epoch() != token {
				return
			}
			s.coord.Notify(ch, Status{State: StateFinished, ID: id})
		})
	}
}

// Play plays a complete result on the single channel.
func (s *Service) Play(p pcm.Payload) error {
	var err error
	ok := s.loop.do(func() {
		token := s.resetAll()
		s.coord.Notify(ChannelSingle, Status{State: StateLoading})

		if _, err = s.engine.PlayRaw(p, s.finisher(token, ChannelSingle, ID{})); err != nil {
			s.coord.Notify(ChannelSingle, Status{State: StateIdle})
			err = newError(err, "service", "play")
			return
		}
		s.coord.Notify(ChannelSingle, Status{State: StatePlaying})
	})
	if !ok {
		return ErrServiceClosed
	}
	return err
}

// PlaySample generates the sample text in voice and plays it on the sample
// channel.
//
// The channel reports loading while the generator runs. If generation fails
// or times out the channel returns to idle and the error wraps
// speech.ErrGenerationFailed. If another playback starts while the generator
// runs, the result is discarded and ErrSuperseded is returned.
func (s *Service) PlaySample(ctx context.Context, voice string) error {
	if s.generator == nil {
		return ErrNoGenerator
	}

	id := VoiceID(voice)
	var token uint64
	ok := s.loop.do(func() {
		token = s.resetAll()
		s.coord.Notify(ChannelSample, Status{State: StateLoading, ID: id})
	})
	if !ok {
		return ErrServiceClosed
	}

	log.Debug("Generating voice sample", "voice", voice)
	payload, genErr := s.generator.GenerateSpeech(ctx, s.sampleText, voice)

	var err error
	ok = s.loop.do(func() {
		if s.coord.Epoch() != token {
			log.Debug("Discarding superseded voice sample", "voice", voice)
			err = ErrSuperseded
			return
		}

		if genErr != nil {
			s.coord.Notify(ChannelSample, Status{State: StateIdle, ID: id})
			if !errors.Is(genErr, speech.ErrGenerationFailed) {
				genErr = fmt.Errorf("%w: %w", speech.ErrGenerationFailed, genErr)
			}
			err = newError(genErr, "service", "sample "+voice)
			return
		}

		if _, err = s.engine.PlayRaw(payload, s.finisher(token, ChannelSample, id)); err != nil {
			s.coord.Notify(ChannelSample, Status{State: StateIdle, ID: id})
			err = newError(err, "service", "sample "+voice)
			return
		}
		s.coord.Notify(ChannelSample, Status{State: StatePlaying, ID: id})
	})
	if !ok {
		return ErrServiceClosed
	}
	return err
}

// PlayQueue plays items on the chunk queue channel starting at start. The
// other channels return to idle; the chunk channel keeps its state until the
// queue reports.
func (s *Service) PlayQueue(items []ProcessedChunk, start int) error {
	if start < 0 || start > len(items) {
		return fmt.Errorf("%w: %d (queue has %d items)", ErrInvalidIndex, start, len(items))
	}

	var err error
	ok := s.loop.do(func() {
		s.coord.ResetOthers(ChannelChunkQueue)
		err = s.queue.Play(items, start)
	})
	if !ok {
		return ErrServiceClosed
	}
	return err
}

// PauseQueue stops queue output and keeps its position.
func (s *Service) PauseQueue() error {
	var err error
	if !s.loop.do(func() { err = s.queue.Pause() }) {
		return ErrServiceClosed
	}
	return err
}

// ResumeQueue replays the chunk the queue was paused on and continues from
// there.
func (s *Service) ResumeQueue() error {
	var err error
	if !s.loop.do(func() { err = s.queue.Resume() }) {
		return ErrServiceClosed
	}
	return err
}

// StopAndClear halts output, clears the queue and returns every channel to
// idle. Pending completions and in-flight samples are discarded.
func (s *Service) StopAndClear() {
	s.loop.do(func() { s.resetAll() })
}

// Subscribe registers o on ch and returns a function that removes it.
func (s *Service) Subscribe(ch Channel, o Observer) func() {
	return s.coord.Subscribe(ch, o)
}

// Unsubscribe removes o from ch.
func (s *Service) Unsubscribe(ch Channel, o Observer) {
	s.coord.Unsubscribe(ch, o)
}

// Status returns the latest status of ch.
func (s *Service) Status(ch Channel) Status {
	return s.coord.Status(ch)
}

// QueueState returns the queue state machine position.
func (s *Service) QueueState() QueueState {
	var st QueueState
	if !s.loop.do(func() { st = s.queue.State() }) {
		return QueueStopped
	}
	return st
}

// Close stops playback, returns every channel to idle, tears down the engine
// and stops the loop. Calls after Close fail with ErrServiceClosed.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		s.loop.do(func() {
			s.resetAll()
			s.closeErr = s.engine.Teardown()
		})
		s.loop.stop()
		log.Debug("Playback service closed")
	})
	return s.closeErr
}
