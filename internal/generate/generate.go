// Package generate turns a piece of text into playable audio, either as one
// result or as a numbered sequence of chunk results.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Mrnobodysmkn/TTS-04/internal/chunk"
	"github.com/Mrnobodysmkn/TTS-04/internal/logging"
	"github.com/Mrnobodysmkn/TTS-04/internal/pcm"
	"github.com/Mrnobodysmkn/TTS-04/internal/playback"
	"github.com/Mrnobodysmkn/TTS-04/internal/speech"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// ErrNoEnhancer is returned when enhancement is requested from a runner
// built without an enhancer.
var ErrNoEnhancer = errors.New("text enhancement is not available")

// Options controls a single run.
type Options struct {
	Voice   string
	Enhance bool
	// ChunkSize is the longest text, in characters, generated in one call.
	// Zero means speech.DefaultChunkSize.
	ChunkSize int

	// OnChunkStart is called before chunk i of total is generated.
	OnChunkStart func(i, total int)
	// OnChunkDone is called after chunk i of total has been generated.
	OnChunkDone func(i, total int, p pcm.Payload)
}

// Result is the outcome of a run. Exactly one of Single and Processed is
// populated; after a failed chunked run Processed holds the chunks that
// completed before the failure.
type Result struct {
	RunID     string
	Text      string
	Single    pcm.Payload
	Chunks    []chunk.Record
	Processed []playback.ProcessedChunk
	Elapsed   time.Duration
}

// Chunked reports whether the text was split.
func (r *Result) Chunked() bool {
	return len(r.Chunks) > 0
}

// Runner generates speech through a provider, enhancing text on request.
type Runner struct {
	generator speech.Generator
	enhancer  speech.Enhancer
	provider  string
	timeout   time.Duration
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithEnhancer enables text enhancement.
func WithEnhancer(e speech.Enhancer) RunnerOption {
	return func(r *Runner) {
		r.enhancer = e
	}
}

// WithProvider names the provider in logs and metrics.
func WithProvider(name string) RunnerOption {
	return func(r *Runner) {
		r.provider = name
	}
}

// WithTimeout bounds every generation and enhancement call.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRunner creates a runner around gen.
func NewRunner(gen speech.Generator, opts ...RunnerOption) *Runner {
	r := &Runner{
		generator: gen,
		provider:  "unknown",
		timeout:   speech.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.generator = speech.WithTimeout(r.generator, r.timeout)
	if r.enhancer != nil {
		r.enhancer = speech.EnhancerWithTimeout(r.enhancer, r.timeout)
	}
	return r
}

// Run generates speech for text.
//
// Text no longer than the chunk size produces a single result. Longer text
// is split and the chunks are processed one after another, stopping at the
// first failure.
func (r *Runner) Run(ctx context.Context, text string, opts Options) (*Result, error) {
	text = strings.TrimSpace(norm.NFC.String(text))
	if text == "" {
		return nil, speech.ErrEmptyText
	}
	if opts.Enhance && r.enhancer == nil {
		return nil, ErrNoEnhancer
	}
	if opts.Voice == "" {
		opts.Voice = speech.DefaultVoice
	}
	if opts.ChunkSize == 0 {
		opts.ChunkSize = speech.DefaultChunkSize
	}

	res := &Result{RunID: uuid.NewString(), Text: text}
	start := time.Now()
	defer func() { res.Elapsed = time.Since(start) }()

	logger := log.With("run", res.RunID[:8], "voice", opts.Voice)

	if utf8.RuneCountInString(text) <= opts.ChunkSize {
		logger.Debug("Generating single result", "length", utf8.RuneCountInString(text))
		p, err := r.generate(ctx, text, opts)
		if err != nil {
			return res, err
		}
		res.Single = p
		return res, nil
	}

	records, err := chunk.Records(text, opts.ChunkSize)
	if err != nil {
		return nil, err
	}
	res.Chunks = records
	res.Processed = make([]playback.ProcessedChunk, 0, len(records))
	logger.Debug("Generating chunked result", "chunks", len(records))

	for _, rec := range records {
		if opts.OnChunkStart != nil {
			opts.OnChunkStart(rec.Index, len(records))
		}

		p, err := r.generate(ctx, rec.Text, opts)
		if err != nil {
			logger.Error("Chunk failed", "chunk", rec.Index, "error", err)
			return res, fmt.Errorf("chunk %d of %d: %w", rec.Index+1, len(records), err)
		}

		res.Processed = append(res.Processed, playback.ProcessedChunk{Index: rec.Index, Audio: p})
		if opts.OnChunkDone != nil {
			opts.OnChunkDone(rec.Index, len(records), p)
		}
	}

	return res, nil
}

// generate optionally enhances text and then synthesises it.
func (r *Runner) generate(ctx context.Context, text string, opts Options) (pcm.Payload, error) {
	if opts.Enhance {
		enhanced, err := r.enhancer.Enhance(ctx, text)
		if err != nil {
			return "", err
		}
		if enhanced != "" {
			text = enhanced
		}
	}

	m := logging.StartSynthesis(r.provider, opts.Voice, text)
	p, err := r.generator.GenerateSpeech(ctx, text, opts.Voice)
	m.EndSynthesis(len(p)*3/4, false, err)
	return p, err
}
