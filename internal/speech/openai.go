package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Mrnobodysmkn/TTS-04/internal/pcm"
	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const (
	defaultOpenAISpeechModel  = string(openai.TTSModel1)
	defaultOpenAIEnhanceModel = openai.GPT4oMini
	defaultOpenAIRequestsRate = 50
)

// OpenAIConfig holds configuration for the OpenAI client.
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string // optional, for compatible endpoints
	SpeechModel  string
	EnhanceModel string

	// RequestsPerMinute paces requests; zero uses the default.
	RequestsPerMinute int
}

// OpenAIClient generates speech through the OpenAI speech endpoint. Its
// "pcm" response format is raw 24 kHz mono 16-bit little-endian PCM, the
// same layout Gemini returns.
type OpenAIClient struct {
	client       *openai.Client
	speechModel  string
	enhanceModel string
	rateLimiter  *rate.Limiter
}

// NewOpenAIClient creates an OpenAI client.
func NewOpenAIClient(config OpenAIConfig) (*OpenAIClient, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}
	if config.SpeechModel == "" {
		config.SpeechModel = defaultOpenAISpeechModel
	}
	if config.EnhanceModel == "" {
		config.EnhanceModel = defaultOpenAIEnhanceModel
	}
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = defaultOpenAIRequestsRate
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
	}

	return &OpenAIClient{
		client:       openai.NewClientWithConfig(clientConfig),
		speechModel:  config.SpeechModel,
		enhanceModel: config.EnhanceModel,
		rateLimiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), 1),
	}, nil
}

// GenerateSpeech synthesises text. Catalogue voice ids are mapped to the
// closest OpenAI voice; other names are passed through.
func (c *OpenAIClient) GenerateSpeech(ctx context.Context, text, voice string) (pcm.Payload, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", &GenerationError{Provider: "openai", Action: "generate", Reason: "rate limit wait cancelled", Err: err}
	}

	speechVoice := voice
	if v, ok := LookupVoice(voice); ok && v.OpenAI != "" {
		speechVoice = v.OpenAI
	}

	resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(c.speechModel),
		Input:          text,
		Voice:          openai.SpeechVoice(speechVoice),
		ResponseFormat: openai.SpeechResponseFormatPcm,
	})
	if err != nil {
		return "", openAIError("generate", err)
	}
	defer resp.Close()

	raw, err := io.ReadAll(io.LimitReader(resp, maxResponseSize))
	if err != nil {
		return "", &GenerationError{Provider: "openai", Action: "generate", Reason: "failed to read audio", Err: err}
	}
	if len(raw) == 0 {
		return "", &GenerationError{Provider: "openai", Action: "generate", Err: ErrNoAudio}
	}

	log.Debug("OpenAI speech generated", "voice", speechVoice, "bytes", len(raw))
	return pcm.EncodeBytes(raw), nil
}

// Enhance rewrites text with a chat completion.
func (c *OpenAIClient) Enhance(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", &GenerationError{Provider: "openai", Action: "enhance", Reason: "rate limit wait cancelled", Err: err}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.enhanceModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: EnhanceInstruction},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", openAIError("enhance", err)
	}
	if len(resp.Choices) == 0 {
		return "", &GenerationError{Provider: "openai", Action: "enhance", Reason: "no choices returned"}
	}

	enhanced := strings.TrimSpace(resp.Choices[0].Message.Content)
	if enhanced == "" {
		return "", &GenerationError{Provider: "openai", Action: "enhance", Reason: "empty response"}
	}
	return enhanced, nil
}

func openAIError(action string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &GenerationError{
			Provider: "openai",
			Action:   action,
			Status:   apiErr.HTTPStatusCode,
			Reason:   apiErr.Message,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &GenerationError{
			Provider: "openai",
			Action:   action,
			Status:   reqErr.HTTPStatusCode,
			Err:      reqErr.Err,
		}
	}
	return &GenerationError{Provider: "openai", Action: action, Err: err}
}
