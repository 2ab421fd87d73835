package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Mrnobodysmkn/TTS-04/internal/audio"
	"github.com/Mrnobodysmkn/TTS-04/internal/playback"
	"github.com/Mrnobodysmkn/TTS-04/internal/speech"
	"github.com/charmbracelet/log"
)

// errInterrupted is returned when the user stops playback.
var errInterrupted = errors.New("interrupted")

// newClient creates the speech client of the configured provider.
func newClient() (speech.Client, error) {
	client, err := speech.NewClient(cfg.Speech())
	if errors.Is(err, speech.ErrMissingAPIKey) {
		return nil, fmt.Errorf("%w\n\nRun %s for setup instructions", err, keyword("avaye config check"))
	}
	return client, err
}

// newService opens the configured audio backend and wraps it in a playback
// service.
func newService(opts ...playback.Option) (*playback.Service, error) {
	backend, err := audio.ParseBackend(cfg.Audio.Backend)
	if err != nil {
		return nil, err
	}
	ctx, err := audio.New(backend)
	if err != nil {
		return nil, fmt.Errorf("unable to open audio output: %w", err)
	}

	opts = append([]playback.Option{playback.WithGenerationTimeout(cfg.Timeout)}, opts...)
	return playback.NewService(ctx, opts...), nil
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// waiter turns channel transitions into a single completion signal.
type waiter struct {
	ch   playback.Channel
	last playback.ID
	out  io.Writer
	done chan error
}

func newWaiter(ch playback.Channel, last playback.ID, out io.Writer) *waiter {
	return &waiter{ch: ch, last: last, out: out, done: make(chan error, 1)}
}

// OnStatus runs on the playback loop and only records progress.
func (w *waiter) OnStatus(ch playback.Channel, st playback.Status) {
	if ch != w.ch {
		return
	}

	switch st.State {
	case playback.StatePlaying:
		if i, ok := st.ID.Index(); ok {
			fmt.Fprintf(w.out, "%s %s\n", keyword("▶"), faint(fmt.Sprintf("chunk %d", i+1)))
		}
	case playback.StateFinished:
		if st.ID == w.last {
			w.signal(nil)
		}
	}
}

// fail reports an error raised while the queue advanced.
func (w *waiter) fail(err error) {
	w.signal(err)
}

func (w *waiter) signal(err error) {
	select {
	case w.done <- err:
	default:
	}
}

// wait blocks until playback finishes, fails or ctx is canceled. On
// cancellation all output is stopped.
func (w *waiter) wait(ctx context.Context, svc *playback.Service) error {
	select {
	case err := <-w.done:
		return err
	case <-ctx.Done():
		log.Debug("Stopping playback", "reason", ctx.Err())
		svc.StopAndClear()
		return errInterrupted
	}
}
