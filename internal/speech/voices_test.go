package speech

import (
	"errors"
	"strings"
	"testing"
)

func TestVoiceCatalogue(t *testing.T) {
	if len(Voices) != 8 {
		t.Fatalf("Expected 8 voices, got %d", len(Voices))
	}

	seen := make(map[string]bool)
	for _, v := range Voices {
		if seen[v.ID] {
			t.Errorf("Duplicate voice id %q", v.ID)
		}
		seen[v.ID] = true

		if v.Name == "" || v.Description == "" {
			t.Errorf("Voice %q is missing a name or description", v.ID)
		}
		if v.OpenAI == "" {
			t.Errorf("Voice %q has no OpenAI mapping", v.ID)
		}
	}

	if _, ok := LookupVoice(DefaultVoice); !ok {
		t.Errorf("Default voice %q not in catalogue", DefaultVoice)
	}
}

func TestLookupVoice(t *testing.T) {
	tests := []struct {
		id     string
		wantOK bool
	}{
		{"kore", true},
		{"  Charon ", true},
		{"ZUBENELGENUBI", true},
		{"alloy", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			_, ok := LookupVoice(tt.id)
			if ok != tt.wantOK {
				t.Errorf("LookupVoice(%q) ok = %v, want %v", tt.id, ok, tt.wantOK)
			}
		})
	}
}

func TestResolveVoiceSuggestions(t *testing.T) {
	_, err := ResolveVoice("fnrr")
	if !errors.Is(err, ErrUnknownVoice) {
		t.Fatalf("Expected ErrUnknownVoice, got %v", err)
	}
	if !strings.Contains(err.Error(), "fenrir") {
		t.Errorf("Expected a fenrir suggestion, got %v", err)
	}

	_, err = ResolveVoice("qqq")
	if !errors.Is(err, ErrUnknownVoice) {
		t.Fatalf("Expected ErrUnknownVoice, got %v", err)
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("Expected no suggestion, got %v", err)
	}

	v, err := ResolveVoice("Puck")
	if err != nil || v.ID != "puck" {
		t.Errorf("Expected puck, got %+v, %v", v, err)
	}
}
