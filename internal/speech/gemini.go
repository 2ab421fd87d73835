package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Mrnobodysmkn/TTS-04/internal/pcm"
	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

const (
	defaultGeminiURL          = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiSpeechModel  = "gemini-2.5-flash-preview-tts"
	defaultGeminiEnhanceModel = "gemini-2.5-pro"
	defaultRequestsPerMinute  = 30

	// maxResponseSize caps a response body; a full chunk of speech is a few MB.
	maxResponseSize = 64 << 20
)

// EnhanceInstruction is the system instruction used to rewrite text before
// synthesis.
const EnhanceInstruction = "You are an expert in Persian linguistics and a creative writer. " +
	"A user has provided Persian text to be converted to speech. Your task is to subtly rewrite " +
	"the text to sound more natural, expressive, and human-like when read by a state-of-the-art " +
	"text-to-speech engine. This may involve adding appropriate pauses (using ellipses ...), " +
	"adjusting sentence structure for better rhythm, and adding subtle emotional cues through " +
	"wording. Do not alter the core meaning of the text. Only output the refined, speakable Persian text."

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey       string
	BaseURL      string // defaults to the public v1beta endpoint
	SpeechModel  string
	EnhanceModel string

	// Rate limit requests per minute (defaults to 30)
	RequestsPerMinute int

	// HTTPClient is used for all requests (defaults to a client with
	// DefaultTimeout)
	HTTPClient *http.Client
}

// GeminiClient generates speech and enhances text through the Gemini
// generateContent REST API.
type GeminiClient struct {
	config      GeminiConfig
	http        *http.Client
	rateLimiter *rate.Limiter
}

// NewGeminiClient creates a Gemini client.
func NewGeminiClient(config GeminiConfig) (*GeminiClient, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultGeminiURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.SpeechModel == "" {
		config.SpeechModel = defaultGeminiSpeechModel
	}
	if config.EnhanceModel == "" {
		config.EnhanceModel = defaultGeminiEnhanceModel
	}
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = defaultRequestsPerMinute
	}

	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	return &GeminiClient{
		config:      config,
		http:        client,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), 1),
	}, nil
}

// Wire types for generateContent.

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPrebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type geminiVoiceConfig struct {
	PrebuiltVoiceConfig geminiPrebuiltVoice `json:"prebuiltVoiceConfig"`
}

type geminiSpeechConfig struct {
	VoiceConfig geminiVoiceConfig `json:"voiceConfig"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string            `json:"responseModalities,omitempty"`
	SpeechConfig       *geminiSpeechConfig `json:"speechConfig,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiResponse struct {
	Candidates     []geminiCandidate `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback,omitempty"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GenerateSpeech synthesises text with a prebuilt voice. The payload is
// 24 kHz mono 16-bit PCM.
func (c *GeminiClient) GenerateSpeech(ctx context.Context, text, voice string) (pcm.Payload, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	req := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: text}}}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &geminiSpeechConfig{
				VoiceConfig: geminiVoiceConfig{
					PrebuiltVoiceConfig: geminiPrebuiltVoice{VoiceName: voice},
				},
			},
		},
	}

	start := time.Now()
	resp, err := c.generateContent(ctx, c.config.SpeechModel, "generate", req)
	if err != nil {
		return "", err
	}

	data := firstInlineData(resp)
	if data == "" {
		return "", c.emptyResponse(resp, "generate")
	}

	log.Debug("Gemini speech generated",
		"voice", voice,
		"runes", len([]rune(text)),
		"payload_bytes", len(data),
		"duration", time.Since(start))

	return pcm.Payload(data), nil
}

// Enhance rewrites text to sound more natural when spoken.
func (c *GeminiClient) Enhance(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	req := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: EnhanceInstruction}}},
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: text}}}},
	}

	resp, err := c.generateContent(ctx, c.config.EnhanceModel, "enhance", req)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	if len(resp.Candidates) > 0 {
		for _, part := range resp.Candidates[0].Content.Parts {
			out.WriteString(part.Text)
		}
	}
	enhanced := strings.TrimSpace(out.String())
	if enhanced == "" {
		return "", &GenerationError{Provider: "gemini", Action: "enhance", Reason: "empty response"}
	}
	return enhanced, nil
}

func (c *GeminiClient) generateContent(ctx context.Context, model, action string, body geminiRequest) (*geminiResponse, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, &GenerationError{Provider: "gemini", Action: action, Reason: "rate limit wait cancelled", Err: err}
	}

	payload, err := sonic.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.config.BaseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.config.APIKey)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, &GenerationError{Provider: "gemini", Action: action, Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return nil, &GenerationError{Provider: "gemini", Action: action, Reason: "failed to read response", Err: err}
	}

	if res.StatusCode != http.StatusOK {
		reason := http.StatusText(res.StatusCode)
		var apiErr geminiErrorResponse
		if sonic.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			reason = apiErr.Error.Message
		}
		return nil, &GenerationError{Provider: "gemini", Action: action, Status: res.StatusCode, Reason: reason}
	}

	var resp geminiResponse
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return nil, &GenerationError{Provider: "gemini", Action: action, Reason: "malformed response", Err: err}
	}
	return &resp, nil
}

func firstInlineData(resp *geminiResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 || parts[0].InlineData == nil {
		return ""
	}
	return parts[0].InlineData.Data
}

func (c *GeminiClient) emptyResponse(resp *geminiResponse, action string) error {
	reason := "response may be empty or blocked"
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		reason = "blocked: " + resp.PromptFeedback.BlockReason
	} else if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
		reason = "finish reason " + resp.Candidates[0].FinishReason
	}
	return &GenerationError{Provider: "gemini", Action: action, Reason: reason, Err: ErrNoAudio}
}
