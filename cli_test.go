package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Mrnobodysmkn/TTS-04/internal/chunk"
	"github.com/Mrnobodysmkn/TTS-04/internal/generate"
	"github.com/Mrnobodysmkn/TTS-04/internal/pcm"
	"github.com/Mrnobodysmkn/TTS-04/internal/playback"
)

func TestPreview(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"short", "سلام", 10, "سلام"},
		{"collapses whitespace", "a\n\n b\tc", 20, "a b c"},
		{"truncates", "abcdefghij", 5, "abcd…"},
		{"no width", "a  b", 0, "a b"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := preview(tc.in, tc.width); got != tc.want {
				t.Errorf("preview(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
			}
		})
	}
}

func TestReadInputFromArgsAndFile(t *testing.T) {
	got, err := readInput([]string{"سلام"}, "")
	if err != nil || got != "سلام" {
		t.Errorf("Expected argument text, got %q, %v", got, err)
	}

	path := filepath.Join(t.TempDir(), "in.txt")
	if err := os.WriteFile(path, []byte("از فایل"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err = readInput(nil, path)
	if err != nil || got != "از فایل" {
		t.Errorf("Expected file text, got %q, %v", got, err)
	}

	if _, err := readInput(nil, filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestWriteResult(t *testing.T) {
	audio := pcm.Encode([]float32{0, 0.5, -0.5, 0})

	t.Run("single", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.wav")
		var progress bytes.Buffer
		if err := writeResult(path, &generate.Result{Single: audio}, &progress); err != nil {
			t.Fatalf("writeResult failed: %v", err)
		}

		b, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if len(b) != 44+8 {
			t.Errorf("Expected 52 byte file, got %d", len(b))
		}
		if !strings.Contains(progress.String(), path) {
			t.Errorf("Expected progress to name %s, got %q", path, progress.String())
		}
	})

	t.Run("chunked", func(t *testing.T) {
		dir := t.TempDir()
		res := &generate.Result{
			Chunks: []chunk.Record{{Index: 0, Text: "a"}, {Index: 1, Text: "b"}},
			Processed: []playback.ProcessedChunk{
				{Index: 0, Audio: audio},
				{Index: 1, Audio: audio},
			},
		}
		var progress bytes.Buffer
		if err := writeResult(filepath.Join(dir, "story"), res, &progress); err != nil {
			t.Fatalf("writeResult failed: %v", err)
		}

		for _, name := range []string{"story-01.wav", "story-02.wav"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
				t.Errorf("Expected %s: %v", name, err)
			}
		}
	})

	t.Run("malformed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.wav")
		if err := writeResult(path, &generate.Result{Single: "%%%"}, &bytes.Buffer{}); err == nil {
			t.Error("Expected error for malformed audio")
		}
	})
}

func TestPayloadSize(t *testing.T) {
	p := pcm.Encode(make([]float32, pcm.SampleRate))
	if got := payloadSize(p); got != "48 kB, 1s" {
		t.Errorf("payloadSize = %q, want %q", got, "48 kB, 1s")
	}
	if got := payloadSize("%%%"); got != "invalid audio" {
		t.Errorf("payloadSize = %q, want invalid audio", got)
	}
}

func TestWaiter(t *testing.T) {
	var out bytes.Buffer
	w := newWaiter(playback.ChannelChunkQueue, playback.ChunkID(1), &out)

	w.OnStatus(playback.ChannelSingle, playback.Status{State: playback.StateFinished, ID: playback.ChunkID(1)})
	w.OnStatus(playback.ChannelChunkQueue, playback.Status{State: playback.StatePlaying, ID: playback.ChunkID(0)})
	w.OnStatus(playback.ChannelChunkQueue, playback.Status{State: playback.StateFinished, ID: playback.ChunkID(0)})

	select {
	case <-w.done:
		t.Fatal("Waiter finished before the last chunk")
	default:
	}

	w.OnStatus(playback.ChannelChunkQueue, playback.Status{State: playback.StateFinished, ID: playback.ChunkID(1)})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := w.wait(ctx, nil); err != nil {
		t.Errorf("Expected clean finish, got %v", err)
	}
	if !strings.Contains(out.String(), "chunk 1") {
		t.Errorf("Expected progress for chunk 1, got %q", out.String())
	}
}
