// Package chunk splits long text into pieces small enough for a single
// speech generation call, preferring sentence boundaries.
package chunk

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// ErrInvalidMaxLength is returned for a maximum length below one.
var ErrInvalidMaxLength = errors.New("max length must be at least 1")

// sentenceEnd matches a Latin or Persian terminator followed by whitespace,
// or a line break.
var sentenceEnd = regexp.MustCompile(`[.!?۔؟][\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]|[\n\r]`)

// Record is one chunk and its position in the original text.
type Record struct {
	Index int
	Text  string
}

// Split segments text greedily into chunks of at most maxLength characters.
//
// Each window is cut after its last sentence terminator. Without one it is
// cut at its last space, provided that space lies past the middle of the
// window, and otherwise exactly at maxLength. Chunks are trimmed and never
// empty. Lengths are counted in runes.
func Split(text string, maxLength int) ([]string, error) {
	if maxLength < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxLength, maxLength)
	}

	var chunks []string
	remaining := []rune(strings.TrimSpace(text))

	for len(remaining) > 0 {
		if len(remaining) <= maxLength {
			chunks = append(chunks, string(remaining))
			break
		}

		window := remaining[:maxLength]
		cut := lastSentenceEnd(window)
		if cut <= 0 {
			cut = maxLength
			if space := lastSpace(window); space*2 > maxLength {
				cut = space
			}
		}

		if chunk := strings.TrimSpace(string(remaining[:cut])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		remaining = trimRunes(remaining[cut:])
	}

	return chunks, nil
}

// Records splits text and numbers the chunks from zero.
func Records(text string, maxLength int) ([]Record, error) {
	chunks, err := Split(text, maxLength)
	if err != nil {
		return nil, err
	}

	records := make([]Record, len(chunks))
	for i, c := range chunks {
		records[i] = Record{Index: i, Text: c}
	}
	return records, nil
}

// lastSentenceEnd returns the rune offset just past the last sentence
// terminator in window, or -1.
func lastSentenceEnd(window []rune) int {
	s := string(window)
	matches := sentenceEnd.FindAllStringIndex(s, -1)
	if len(matches) == 0 {
		return -1
	}
	end := matches[len(matches)-1][1]
	return len([]rune(s[:end]))
}

// lastSpace returns the rune offset of the last ASCII space in window, or -1.
func lastSpace(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == ' ' {
			return i
		}
	}
	return -1
}

func trimRunes(r []rune) []rune {
	start, end := 0, len(r)
	for start < end && unicode.IsSpace(r[start]) {
		start++
	}
	for end > start && unicode.IsSpace(r[end-1]) {
		end--
	}
	return r[start:end]
}
