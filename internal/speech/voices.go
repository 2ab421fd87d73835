package speech

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// SampleText is spoken by voice previews.
const SampleText = "در سکوت شب، صدای ستارگان را می‌شنوم."

// DefaultChunkSize is the longest text sent in a single generation call.
const DefaultChunkSize = 4500

// DefaultVoice is used when no voice is configured.
const DefaultVoice = "kore"

// Voice is a prebuilt voice offered to users.
type Voice struct {
	ID          string // Provider voice name
	Name        string // Persian display name
	Description string // Persian description
	Female      bool
	OpenAI      string // Closest OpenAI voice
}

// Voices is the voice catalogue in display order.
var Voices = []Voice{
	{ID: "kore", Name: "آوا (زن)", Description: "صدایی واضح و استاندارد زنانه.", Female: true, OpenAI: "nova"},
	{ID: "zephyr", Name: "ماندانا (زن)", Description: "صدایی گرم و دوستانه زنانه.", Female: true, OpenAI: "shimmer"},
	{ID: "vindemiatrix", Name: "رویا (زن)", Description: "صدایی آرام و روایی زنانه.", Female: true, OpenAI: "alloy"},
	{ID: "puck", Name: "فرهاد (مرد)", Description: "صدایی استاندارد و رسا مردانه.", OpenAI: "echo"},
	{ID: "charon", Name: "پرویز (مرد)", Description: "صدایی پخته و عمیق مردانه.", OpenAI: "onyx"},
	{ID: "rasalgethi", Name: "آرمان (مرد)", Description: "صدایی جوان و پرانرژی مردانه.", OpenAI: "fable"},
	{ID: "fenrir", Name: "کوروش (مرد)", Description: "عمیق‌ترین صدا (basso profundo)، با تُن کامل و تیره.", OpenAI: "onyx"},
	{ID: "zubenelgenubi", Name: "بهرام (مرد)", Description: "صدایی قدرتمند و حماسی مردانه.", OpenAI: "echo"},
}

// LookupVoice returns the catalogue entry for id, ignoring case.
func LookupVoice(id string) (Voice, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, v := range Voices {
		if v.ID == id {
			return v, true
		}
	}
	return Voice{}, false
}

// SuggestVoices returns catalogue ids that fuzzily match query, best first.
func SuggestVoices(query string) []string {
	ids := make([]string, len(Voices))
	for i, v := range Voices {
		ids[i] = v.ID
	}

	matches := fuzzy.Find(strings.ToLower(query), ids)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Str)
	}
	return out
}

// ResolveVoice validates id against the catalogue. Unknown ids fail with
// ErrUnknownVoice, naming close matches when there are any.
func ResolveVoice(id string) (Voice, error) {
	if v, ok := LookupVoice(id); ok {
		return v, nil
	}
	if s := SuggestVoices(id); len(s) > 0 {
		return Voice{}, fmt.Errorf("%w %q (did you mean %s?)", ErrUnknownVoice, id, strings.Join(s, ", "))
	}
	return Voice{}, fmt.Errorf("%w %q", ErrUnknownVoice, id)
}
