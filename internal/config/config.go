// Package config loads and validates avaye's settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Mrnobodysmkn/TTS-04/internal/audio"
	"github.com/Mrnobodysmkn/TTS-04/internal/speech"
	"gopkg.in/yaml.v3"
)

// Limits for validated values.
const (
	MaxChunkSize    = 8000
	MaxCacheSizeMB  = 1024
	MinTimeout      = time.Second
	MaxRequestsRate = 1000
)

// Config contains every avaye setting.
type Config struct {
	// Provider selects the speech service: gemini or openai.
	Provider string `yaml:"provider" mapstructure:"provider"`
	// Voice is the default voice id.
	Voice string `yaml:"voice" mapstructure:"voice"`
	// ChunkSize is the longest text, in characters, sent in one request.
	ChunkSize int `yaml:"chunk_size" mapstructure:"chunk_size"`
	// Enhance rewrites text before synthesis.
	Enhance bool `yaml:"enhance" mapstructure:"enhance"`
	// Timeout bounds every remote call.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	Audio  AudioConfig    `yaml:"audio" mapstructure:"audio"`
	Cache  CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Gemini ProviderConfig `yaml:"gemini" mapstructure:"gemini"`
	OpenAI ProviderConfig `yaml:"openai" mapstructure:"openai"`
	Log    LogConfig      `yaml:"log" mapstructure:"log"`
}

// AudioConfig selects the output backend.
type AudioConfig struct {
	// Backend is auto, oto or mock.
	Backend string `yaml:"backend" mapstructure:"backend"`
}

// CacheConfig sizes the in-memory speech cache.
type CacheConfig struct {
	// MaxSize in megabytes. Zero disables the cache.
	MaxSize int `yaml:"max_size" mapstructure:"max_size"`
}

// Bytes returns the cache capacity in bytes.
func (c CacheConfig) Bytes() int64 {
	return int64(c.MaxSize) << 20
}

// ProviderConfig contains provider specific settings.
type ProviderConfig struct {
	APIKey            string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL           string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	SpeechModel       string `yaml:"speech_model,omitempty" mapstructure:"speech_model"`
	EnhanceModel      string `yaml:"enhance_model,omitempty" mapstructure:"enhance_model"`
	RequestsPerMinute int    `yaml:"requests_per_minute,omitempty" mapstructure:"requests_per_minute"`
}

// LogConfig controls diagnostics.
type LogConfig struct {
	Debug bool   `yaml:"debug" mapstructure:"debug"`
	File  string `yaml:"file,omitempty" mapstructure:"file"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Provider:  speech.ProviderGemini,
		Voice:     speech.DefaultVoice,
		ChunkSize: speech.DefaultChunkSize,
		Enhance:   false,
		Timeout:   speech.DefaultTimeout,
		Audio: AudioConfig{
			Backend: string(audio.BackendAuto),
		},
		Cache: CacheConfig{
			MaxSize: 64,
		},
		Gemini: ProviderConfig{
			RequestsPerMinute: 30,
		},
		OpenAI: ProviderConfig{
			RequestsPerMinute: 50,
		},
	}
}

// Validate checks the configuration and normalises names.
func (c *Config) Validate() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	switch c.Provider {
	case speech.ProviderGemini, speech.ProviderOpenAI:
	default:
		return fmt.Errorf("invalid provider '%s': must be one of %v",
			c.Provider, []string{speech.ProviderGemini, speech.ProviderOpenAI})
	}

	voice, err := speech.ResolveVoice(c.Voice)
	if err != nil {
		return err
	}
	c.Voice = voice.ID

	if c.ChunkSize < 1 || c.ChunkSize > MaxChunkSize {
		return fmt.Errorf("chunk_size must be between 1 and %d, got %d", MaxChunkSize, c.ChunkSize)
	}

	if c.Timeout < MinTimeout {
		return fmt.Errorf("timeout must be at least %v, got %v", MinTimeout, c.Timeout)
	}

	if _, err := audio.ParseBackend(c.Audio.Backend); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if c.Cache.MaxSize < 0 || c.Cache.MaxSize > MaxCacheSizeMB {
		return fmt.Errorf("cache max_size must be between 0 and %d MB, got %d", MaxCacheSizeMB, c.Cache.MaxSize)
	}

	for name, p := range map[string]ProviderConfig{speech.ProviderGemini: c.Gemini, speech.ProviderOpenAI: c.OpenAI} {
		if p.RequestsPerMinute < 0 || p.RequestsPerMinute > MaxRequestsRate {
			return fmt.Errorf("%s config: requests_per_minute must be between 0 and %d, got %d",
				name, MaxRequestsRate, p.RequestsPerMinute)
		}
	}

	return nil
}

// Selected returns the settings of the configured provider.
func (c *Config) Selected() ProviderConfig {
	if c.Provider == speech.ProviderOpenAI {
		return c.OpenAI
	}
	return c.Gemini
}

// Speech returns the client configuration of the selected provider.
func (c *Config) Speech() speech.ProviderConfig {
	p := c.Selected()
	return speech.ProviderConfig{
		Name:              c.Provider,
		APIKey:            p.APIKey,
		BaseURL:           p.BaseURL,
		SpeechModel:       p.SpeechModel,
		EnhanceModel:      p.EnhanceModel,
		RequestsPerMinute: p.RequestsPerMinute,
	}
}

// Save writes c to path as YAML. API keys are never written.
func Save(path string, c Config) error {
	c.Gemini.APIKey = ""
	c.OpenAI.APIKey = ""

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("unable to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("unable create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("unable to write config file: %w", err)
	}
	return nil
}
