package speech

import (
	"fmt"
	"strings"
)

// Provider names.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Client both generates speech and enhances text.
type Client interface {
	Generator
	Enhancer
}

// ProviderConfig selects and configures a provider.
type ProviderConfig struct {
	Name              string
	APIKey            string
	BaseURL           string
	SpeechModel       string
	EnhanceModel      string
	RequestsPerMinute int
}

// NewClient creates the client for the configured provider.
func NewClient(cfg ProviderConfig) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Name)) {
	case ProviderGemini, "":
		c, err := NewGeminiClient(GeminiConfig{
			APIKey:            cfg.APIKey,
			BaseURL:           cfg.BaseURL,
			SpeechModel:       cfg.SpeechModel,
			EnhanceModel:      cfg.EnhanceModel,
			RequestsPerMinute: cfg.RequestsPerMinute,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case ProviderOpenAI:
		c, err := NewOpenAIClient(OpenAIConfig{
			APIKey:            cfg.APIKey,
			BaseURL:           cfg.BaseURL,
			SpeechModel:       cfg.SpeechModel,
			EnhanceModel:      cfg.EnhanceModel,
			RequestsPerMinute: cfg.RequestsPerMinute,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown speech provider %q (want %s or %s)", cfg.Name, ProviderGemini, ProviderOpenAI)
	}
}
