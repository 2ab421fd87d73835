package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Mrnobodysmkn/TTS-04/internal/pcm"
	"github.com/bytedance/sonic"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewGeminiClient(GeminiConfig{
		APIKey:            "test-key",
		BaseURL:           server.URL,
		RequestsPerMinute: 6000,
	})
	if err != nil {
		t.Fatalf("NewGeminiClient failed: %v", err)
	}
	return client
}

func TestGeminiGenerateSpeech(t *testing.T) {
	want := pcm.Encode([]float32{0, 0.25, -0.25})

	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-2.5-flash-preview-tts:generateContent" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("Expected API key header, got %q", got)
		}

		body, _ := io.ReadAll(r.Body)
		var req geminiRequest
		if err := sonic.Unmarshal(body, &req); err != nil {
			t.Errorf("Bad request body: %v", err)
			return
		}
		if req.GenerationConfig == nil || req.GenerationConfig.SpeechConfig == nil {
			t.Error("Missing speech config")
			return
		}
		if got := req.GenerationConfig.ResponseModalities; len(got) != 1 || got[0] != "AUDIO" {
			t.Errorf("Expected AUDIO modality, got %v", got)
		}
		if got := req.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName; got != "kore" {
			t.Errorf("Expected voice kore, got %q", got)
		}
		if got := req.Contents[0].Parts[0].Text; got != SampleText {
			t.Errorf("Expected sample text, got %q", got)
		}

		fmt.Fprintf(w, `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"audio/L16;rate=24000","data":%q}}]}}]}`, want)
	})

	got, err := client.GenerateSpeech(context.Background(), SampleText, "kore")
	if err != nil {
		t.Fatalf("GenerateSpeech failed: %v", err)
	}
	if got != want {
		t.Errorf("Expected payload %q, got %q", want, got)
	}
}

func TestGeminiGenerateSpeechErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantNo     bool
		wantStatus int
		wantReason string
	}{
		{
			name:       "api error",
			status:     http.StatusForbidden,
			body:       `{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`,
			wantStatus: http.StatusForbidden,
			wantReason: "API key not valid",
		},
		{
			name:       "quota",
			status:     http.StatusTooManyRequests,
			body:       `not json`,
			wantStatus: http.StatusTooManyRequests,
			wantReason: "Too Many Requests",
		},
		{
			name:       "blocked",
			status:     http.StatusOK,
			body:       `{"promptFeedback":{"blockReason":"SAFETY"}}`,
			wantNo:     true,
			wantReason: "blocked: SAFETY",
		},
		{
			name:   "no inline data",
			status: http.StatusOK,
			body:   `{"candidates":[{"content":{"parts":[{"text":"hello"}]},"finishReason":"OTHER"}]}`,
			wantNo: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := client.GenerateSpeech(context.Background(), "متن", "puck")
			if !errors.Is(err, ErrGenerationFailed) {
				t.Fatalf("Expected ErrGenerationFailed, got %v", err)
			}
			if errors.Is(err, ErrNoAudio) != tt.wantNo {
				t.Errorf("errors.Is(err, ErrNoAudio) = %v, want %v", !tt.wantNo, tt.wantNo)
			}

			var genErr *GenerationError
			if !errors.As(err, &genErr) {
				t.Fatalf("Expected *GenerationError, got %T", err)
			}
			if genErr.Provider != "gemini" {
				t.Errorf("Expected provider gemini, got %q", genErr.Provider)
			}
			if genErr.Status != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, genErr.Status)
			}
			if tt.wantReason != "" && genErr.Reason != tt.wantReason {
				t.Errorf("Expected reason %q, got %q", tt.wantReason, genErr.Reason)
			}
		})
	}
}

func TestGeminiEnhance(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-2.5-pro") {
			t.Errorf("Expected the enhancement model, got path %s", r.URL.Path)
		}

		body, _ := io.ReadAll(r.Body)
		var req geminiRequest
		if err := sonic.Unmarshal(body, &req); err != nil {
			t.Errorf("Bad request body: %v", err)
			return
		}
		if req.SystemInstruction == nil || len(req.SystemInstruction.Parts) == 0 || req.SystemInstruction.Parts[0].Text != EnhanceInstruction {
			t.Error("Missing system instruction")
		}
		if req.GenerationConfig != nil {
			t.Error("Enhancement should not request audio")
		}

		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"  سلام... "},{"text":"دنیا"}]}}]}`)
	})

	got, err := client.Enhance(context.Background(), "سلام دنیا")
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}
	if got != "سلام... دنیا" {
		t.Errorf("Unexpected enhanced text %q", got)
	}
}

func TestGeminiEmptyInputs(t *testing.T) {
	if _, err := NewGeminiClient(GeminiConfig{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}

	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("No request expected for empty text")
	})
	if _, err := client.GenerateSpeech(context.Background(), "  ", "kore"); !errors.Is(err, ErrEmptyText) {
		t.Errorf("Expected ErrEmptyText, got %v", err)
	}
	if _, err := client.Enhance(context.Background(), ""); !errors.Is(err, ErrEmptyText) {
		t.Errorf("Expected ErrEmptyText, got %v", err)
	}
}
