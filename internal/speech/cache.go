package speech

import (
	"context"

	"github.com/Mrnobodysmkn/TTS-04/internal/cache"
	"github.com/Mrnobodysmkn/TTS-04/internal/logging"
	"github.com/Mrnobodysmkn/TTS-04/internal/pcm"
	"github.com/charmbracelet/log"
)

// CachedGenerator remembers generated payloads for the rest of the session,
// so replaying a voice sample does not call the provider again.
type CachedGenerator struct {
	next     Generator
	provider string
	cache    *cache.MemoryCache
}

// NewCachedGenerator wraps next with a cache of at most capacity bytes.
// provider is part of every key. A zero capacity caches nothing but still
// records synthesis metrics.
func NewCachedGenerator(next Generator, provider string, capacity int64) *CachedGenerator {
	return &CachedGenerator{
		next:     next,
		provider: provider,
		cache:    cache.NewMemoryCache(capacity),
	}
}

// GenerateSpeech returns a cached payload or generates and caches one.
// Failures are not cached.
func (g *CachedGenerator) GenerateSpeech(ctx context.Context, text, voice string) (pcm.Payload, error) {
	m := logging.StartSynthesis(g.provider, voice, text)

	key := cache.Key(g.provider, voice, text)
	if p, ok := g.cache.Get(key); ok {
		log.Debug("Speech cache hit", "voice", voice)
		m.EndSynthesis(len(p)*3/4, true, nil)
		return p, nil
	}

	p, err := g.next.GenerateSpeech(ctx, text, voice)
	m.EndSynthesis(len(p)*3/4, false, err)
	if err != nil {
		return "", err
	}

	if err := g.cache.Put(key, p); err != nil {
		// Ignore cache errors as they're non-fatal
		log.Debug("Payload not cached", "voice", voice, "error", err)
	}
	return p, nil
}

// Stats returns cache statistics.
func (g *CachedGenerator) Stats() cache.Stats {
	return g.cache.Stats()
}
