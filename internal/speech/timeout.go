package speech

import (
	"context"
	"fmt"
	"time"

	"github.com/Mrnobodysmkn/TTS-04/internal/pcm"
	"github.com/charmbracelet/log"
)

// timeoutGenerator bounds a Generator. The inner call gets a context with
// the deadline, and the wrapper gives up at the deadline even if the inner
// call ignores it; a late result is dropped.
type timeoutGenerator struct {
	next    Generator
	timeout time.Duration
}

// WithTimeout returns a Generator that fails with ErrTimeout once d has
// elapsed. A non-positive d uses DefaultTimeout.
func WithTimeout(g Generator, d time.Duration) Generator {
	if d <= 0 {
		d = DefaultTimeout
	}
	if t, ok := g.(*timeoutGenerator); ok && t.timeout <= d {
		return t
	}
	return &timeoutGenerator{next: g, timeout: d}
}

type generateResult struct {
	payload pcm.Payload
	err     error
}

func (g *timeoutGenerator) GenerateSpeech(ctx context.Context, text, voice string) (pcm.Payload, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	done := make(chan generateResult, 1)
	go func() {
		p, err := g.next.GenerateSpeech(ctx, text, voice)
		done <- generateResult{payload: p, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && ctx.Err() == context.DeadlineExceeded {
			return "", timeoutError(g.timeout)
		}
		return res.payload, res.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			log.Warn("Speech generation timed out", "voice", voice, "timeout", g.timeout)
			return "", timeoutError(g.timeout)
		}
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, ctx.Err())
	}
}

type timeoutEnhancer struct {
	next    Enhancer
	timeout time.Duration
}

// EnhancerWithTimeout returns an Enhancer that fails with ErrTimeout once d
// has elapsed. A non-positive d uses DefaultTimeout.
func EnhancerWithTimeout(e Enhancer, d time.Duration) Enhancer {
	if d <= 0 {
		d = DefaultTimeout
	}
	return &timeoutEnhancer{next: e, timeout: d}
}

type enhanceResult struct {
	text string
	err  error
}

func (e *timeoutEnhancer) Enhance(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan enhanceResult, 1)
	go func() {
		out, err := e.next.Enhance(ctx, text)
		done <- enhanceResult{text: out, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && ctx.Err() == context.DeadlineExceeded {
			return "", timeoutError(e.timeout)
		}
		return res.text, res.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			log.Warn("Text enhancement timed out", "timeout", e.timeout)
			return "", timeoutError(e.timeout)
		}
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, ctx.Err())
	}
}

func timeoutError(d time.Duration) error {
	return fmt.Errorf("%w: %w after %v", ErrGenerationFailed, ErrTimeout, d)
}
