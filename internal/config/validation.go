package config

import (
	"fmt"
	"strings"

	"github.com/Mrnobodysmkn/TTS-04/internal/speech"
)

// ValidationResult contains the result of a provider check.
type ValidationResult struct {
	// Provider is the checked provider.
	Provider string

	// Available indicates if the provider is configured and usable.
	Available bool

	// Error contains any validation error
	Error error

	// Guidance provides setup instructions if validation failed
	Guidance string

	// Details contains additional validation information
	Details map[string]string
}

// CheckProvider reports whether the selected provider can be used and how to
// fix it if not. It makes no network calls.
func CheckProvider(cfg Config) *ValidationResult {
	result := &ValidationResult{
		Provider: cfg.Provider,
		Details:  make(map[string]string),
	}

	p := cfg.Selected()
	result.Details["voice"] = cfg.Voice
	result.Details["timeout"] = cfg.Timeout.String()
	if p.BaseURL != "" {
		result.Details["base_url"] = p.BaseURL
	}
	if p.SpeechModel != "" {
		result.Details["speech_model"] = p.SpeechModel
	}

	switch cfg.Provider {
	case speech.ProviderGemini:
		result.Details["provider"] = "Google Gemini"
		checkKey(result, p.APIKey, "GEMINI_API_KEY", "https://aistudio.google.com/apikey")
	case speech.ProviderOpenAI:
		result.Details["provider"] = "OpenAI"
		checkKey(result, p.APIKey, "OPENAI_API_KEY", "https://platform.openai.com/api-keys")
	default:
		result.Error = fmt.Errorf("invalid provider '%s'", cfg.Provider)
		result.Guidance = "Supported providers: gemini, openai"
	}

	return result
}

func checkKey(result *ValidationResult, key, envVar, url string) {
	if strings.TrimSpace(key) == "" {
		result.Error = fmt.Errorf("%s: %w", result.Provider, speech.ErrMissingAPIKey)
		result.Guidance = buildKeyGuidance(result.Provider, envVar, url)
		return
	}

	result.Details["api_key"] = maskKey(key)
	result.Available = true
}

func buildKeyGuidance(provider, envVar, url string) string {
	return fmt.Sprintf(`No API key found for %s.

Create a key at:
  %s

Then either export it:
  export %s=your-key

Or add it to the config file (see "avaye config"):
  %s:
    api_key: your-key`, provider, url, envVar, provider)
}

// maskKey keeps only the last four characters of key.
func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", 8) + key[len(key)-4:]
}
