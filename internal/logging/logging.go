// Package logging configures the process logger and records synthesis
// metrics.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	humanize "github.com/dustin/go-humanize"
)

// Options controls Setup.
type Options struct {
	Debug bool
	// File, when set, receives a timestamped copy of every debug record.
	File string
	// Output defaults to stderr.
	Output io.Writer
}

var (
	mu      sync.Mutex
	metrics *MetricsLogger
)

// MetricsLogger tracks and logs synthesis metrics.
type MetricsLogger struct {
	enabled bool
	logger  *log.Logger
	records []Metrics
}

// Setup configures the default logger and returns a function that releases
// the log file, if one was opened.
func Setup(opts Options) (func() error, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: opts.Debug,
		TimeFormat:      time.Kitchen,
		Prefix:          "avaye",
	})
	if opts.Debug {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}
	log.SetDefault(logger)

	m := &MetricsLogger{enabled: opts.Debug, logger: logger}
	closer := func() error { return nil }

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return closer, fmt.Errorf("could not create log directory: %w", err)
		}
		file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return closer, fmt.Errorf("could not open log file: %w", err)
		}

		m.logger = log.NewWithOptions(file, log.Options{
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Level:           log.DebugLevel,
		})
		m.enabled = true
		closer = file.Close
		log.Debug("Debug log file opened", "path", opts.File)
	}

	mu.Lock()
	metrics = m
	mu.Unlock()

	return closer, nil
}

// Metrics holds the measurements of one synthesis call.
type Metrics struct {
	Provider   string
	Voice      string
	TextLength int
	Start      time.Time
	Duration   time.Duration
	AudioBytes int
	CacheHit   bool
	Err        error
}

// StartSynthesis starts tracking a synthesis call.
func StartSynthesis(provider, voice, text string) *Metrics {
	m := &Metrics{
		Provider:   provider,
		Voice:      voice,
		TextLength: len([]rune(text)),
		Start:      time.Now(),
	}

	if l := current(); l != nil && l.enabled {
		l.logger.Debug("Synthesis started",
			"provider", provider,
			"voice", voice,
			"textLength", m.TextLength)
	}
	return m
}

// EndSynthesis completes tracking and logs the outcome.
func (m *Metrics) EndSynthesis(audioBytes int, cacheHit bool, err error) {
	m.Duration = time.Since(m.Start)
	m.AudioBytes = audioBytes
	m.CacheHit = cacheHit
	m.Err = err

	l := current()
	if l == nil {
		return
	}

	mu.Lock()
	l.records = append(l.records, *m)
	mu.Unlock()

	if !l.enabled {
		return
	}
	if err != nil {
		l.logger.Error("Synthesis failed",
			"provider", m.Provider,
			"duration", m.Duration,
			"error", err)
		return
	}
	l.logger.Info("Synthesis completed",
		"provider", m.Provider,
		"voice", m.Voice,
		"textLength", m.TextLength,
		"audio", humanize.Bytes(uint64(audioBytes)),
		"duration", m.Duration,
		"cacheHit", cacheHit,
		"throughput", throughput(audioBytes, m.Duration))
}

func throughput(bytes int, d time.Duration) string {
	if d <= 0 {
		return "N/A"
	}
	return humanize.Bytes(uint64(float64(bytes)/d.Seconds())) + "/s"
}

func current() *MetricsLogger {
	mu.Lock()
	defer mu.Unlock()
	return metrics
}

// Stats summarises every synthesis recorded since Setup.
func Stats() string {
	l := current()
	if l == nil {
		return "No synthesis metrics available"
	}

	mu.Lock()
	records := append([]Metrics(nil), l.records...)
	mu.Unlock()

	if len(records) == 0 {
		return "No synthesis metrics available"
	}

	var total time.Duration
	var bytes, hits, failures int
	for _, r := range records {
		total += r.Duration
		bytes += r.AudioBytes
		if r.CacheHit {
			hits++
		}
		if r.Err != nil {
			failures++
		}
	}

	return fmt.Sprintf(
		"Synthesis Stats:\n"+
			"  Total: %d\n"+
			"  Avg Duration: %v\n"+
			"  Total Audio: %s\n"+
			"  Cache Hit Rate: %.1f%%\n"+
			"  Errors: %d",
		len(records),
		(total / time.Duration(len(records))).Round(time.Millisecond),
		humanize.Bytes(uint64(bytes)),
		float64(hits)/float64(len(records))*100,
		failures,
	)
}
