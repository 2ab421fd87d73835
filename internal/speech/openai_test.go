package speech

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Mrnobodysmkn/TTS-04/internal/pcm"
	"github.com/bytedance/sonic"
)

func newTestOpenAI(t *testing.T, mux *http.ServeMux) *OpenAIClient {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewOpenAIClient(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: server.URL + "/v1",
	})
	if err != nil {
		t.Fatalf("NewOpenAIClient failed: %v", err)
	}
	return client
}

func TestOpenAIGenerateSpeech(t *testing.T) {
	raw := []byte{0x00, 0x00, 0x00, 0x40, 0x00, 0xc0}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/audio/speech", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Unexpected Authorization header %q", got)
		}

		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		if err := sonic.Unmarshal(body, &req); err != nil {
			t.Errorf("Bad request body: %v", err)
			return
		}
		if req["response_format"] != "pcm" {
			t.Errorf("Expected pcm response format, got %v", req["response_format"])
		}
		// kore maps to the closest OpenAI voice
		if req["voice"] != "nova" {
			t.Errorf("Expected voice nova, got %v", req["voice"])
		}
		if req["model"] != defaultOpenAISpeechModel {
			t.Errorf("Expected model %s, got %v", defaultOpenAISpeechModel, req["model"])
		}

		w.Header().Set("Content-Type", "audio/pcm")
		w.Write(raw)
	})

	client := newTestOpenAI(t, mux)
	got, err := client.GenerateSpeech(context.Background(), SampleText, "kore")
	if err != nil {
		t.Fatalf("GenerateSpeech failed: %v", err)
	}
	if got != pcm.EncodeBytes(raw) {
		t.Errorf("Expected base64 of the raw response, got %q", got)
	}

	buf, err := pcm.Decode(got)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(buf.Samples) != 3 {
		t.Errorf("Expected 3 samples, got %d", len(buf.Samples))
	}
}

func TestOpenAIGenerateSpeechAPIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/audio/speech", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`)
	})

	client := newTestOpenAI(t, mux)
	_, err := client.GenerateSpeech(context.Background(), "متن", "puck")
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("Expected ErrGenerationFailed, got %v", err)
	}

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("Expected *GenerationError, got %T", err)
	}
	if genErr.Provider != "openai" {
		t.Errorf("Expected provider openai, got %q", genErr.Provider)
	}
	if genErr.Status != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", genErr.Status)
	}
}

func TestOpenAIEnhance(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := sonic.Unmarshal(body, &req); err != nil {
			t.Errorf("Bad request body: %v", err)
			return
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "سلام" {
			t.Errorf("Unexpected messages %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",`+
			`"choices":[{"index":0,"message":{"role":"assistant","content":" سلام... "},"finish_reason":"stop"}]}`)
	})

	client := newTestOpenAI(t, mux)
	got, err := client.Enhance(context.Background(), "سلام")
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}
	if got != "سلام..." {
		t.Errorf("Unexpected enhanced text %q", got)
	}
}

func TestOpenAIMissingKey(t *testing.T) {
	if _, err := NewOpenAIClient(OpenAIConfig{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "", want: "*speech.GeminiClient"},
		{name: "Gemini", want: "*speech.GeminiClient"},
		{name: "openai", want: "*speech.OpenAIClient"},
		{name: "elevenlabs", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(ProviderConfig{Name: tt.name, APIKey: "k"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewClient error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := typeName(c); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *GeminiClient:
		return "*speech.GeminiClient"
	case *OpenAIClient:
		return "*speech.OpenAIClient"
	default:
		return "unknown"
	}
}
