package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Mrnobodysmkn/TTS-04/internal/generate"
	"github.com/Mrnobodysmkn/TTS-04/internal/logging"
	"github.com/Mrnobodysmkn/TTS-04/internal/pcm"
	"github.com/Mrnobodysmkn/TTS-04/internal/playback"
	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	speakFile  string
	speakOut   string
	speakStart int
	noPlay     bool

	speakCmd = &cobra.Command{
		Use:   "speak [TEXT]",
		Short: "Generate speech for text and play it",
		Long: paragraph(fmt.Sprintf("\n%s Persian text. Text longer than the chunk size is split at sentence boundaries and played as a queue. Reads from stdin when no text or file is given.",
			keyword("Speak"))),
		Example: paragraph("avaye speak \"سلام دنیا\"\navaye speak -f story.txt --enhance\ncat story.txt | avaye speak -o story.wav --no-play"),
		Args:    cobra.MaximumNArgs(1),
		RunE:    runSpeak,
	}
)

// readInput returns the text to speak from the argument, the file flag or
// stdin, in that order.
func readInput(args []string, file string) (string, error) {
	switch {
	case len(args) == 1 && args[0] != "-":
		return args[0], nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("unable to read file: %w", err)
		}
		return string(b), nil
	}

	if yes, err := stdinIsPipe(); err != nil {
		return "", err
	} else if !yes && (len(args) == 0 || args[0] != "-") {
		return "", errors.New("missing text: pass it as an argument, with --file or on stdin")
	}

	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("unable to read from stdin: %w", err)
	}
	return string(b), nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

func runSpeak(cmd *cobra.Command, args []string) error {
	text, err := readInput(args, speakFile)
	if err != nil {
		return err
	}
	if noPlay && speakOut == "" {
		return errors.New("--no-play needs --out")
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	runner := generate.NewRunner(client,
		generate.WithEnhancer(client),
		generate.WithProvider(cfg.Provider),
		generate.WithTimeout(cfg.Timeout),
	)

	ctx, cancel := signalContext()
	defer cancel()

	progress := cmd.ErrOrStderr()
	res, err := runner.Run(ctx, text, generate.Options{
		Voice:     cfg.Voice,
		Enhance:   cfg.Enhance,
		ChunkSize: cfg.ChunkSize,
		OnChunkStart: func(i, total int) {
			fmt.Fprintf(progress, "%s generating chunk %d/%d\n", faint("…"), i+1, total)
		},
		OnChunkDone: func(i, total int, p pcm.Payload) {
			fmt.Fprintf(progress, "%s chunk %d/%d ready %s\n", keyword("✓"), i+1, total, faint(payloadSize(p)))
		},
	})
	if err != nil {
		if res != nil && len(res.Processed) > 0 {
			fmt.Fprintln(progress, failure(fmt.Sprintf("Stopped after %d of %d chunks", len(res.Processed), len(res.Chunks))))
		}
		return err
	}

	fmt.Fprintf(progress, "%s generated in %s\n", keyword("✓"), res.Elapsed.Round(time.Millisecond))
	if cfg.Log.Debug {
		fmt.Fprintln(progress, faint(logging.Stats()))
	}

	if speakOut != "" {
		if err := writeResult(speakOut, res, progress); err != nil {
			return err
		}
	}
	if noPlay {
		return nil
	}
	return playResult(ctx, cmd, res)
}

// playResult plays a single result or the chunk queue and waits for the end.
func playResult(ctx context.Context, cmd *cobra.Command, res *generate.Result) error {
	ch, last := playback.ChannelSingle, playback.ID{}
	if res.Chunked() {
		if speakStart < 0 || speakStart > len(res.Processed) {
			return fmt.Errorf("%w: --start %d (text has %d chunks)", playback.ErrInvalidIndex, speakStart, len(res.Processed))
		}
		ch = playback.ChannelChunkQueue
		last = playback.ChunkID(res.Processed[len(res.Processed)-1].Index)
	}

	w := newWaiter(ch, last, cmd.ErrOrStderr())
	svc, err := newService(playback.WithErrorHandler(w.fail))
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()
	unsubscribe := svc.Subscribe(ch, w)
	defer unsubscribe()

	if res.Chunked() {
		err = svc.PlayQueue(res.Processed, speakStart)
	} else {
		err = svc.Play(res.Single)
	}
	if err != nil {
		return err
	}
	return w.wait(ctx, svc)
}

// writeResult saves a single result to path, or each chunk to a numbered
// file next to it.
func writeResult(path string, res *generate.Result, progress io.Writer) error {
	if !res.Chunked() {
		if err := writeWAV(path, res.Single); err != nil {
			return err
		}
		fmt.Fprintf(progress, "%s wrote %s\n", keyword("✓"), path)
		return nil
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	if ext == "" {
		ext = ".wav"
	}
	for _, c := range res.Processed {
		name := fmt.Sprintf("%s-%02d%s", base, c.Index+1, ext)
		if err := writeWAV(name, c.Audio); err != nil {
			return err
		}
		fmt.Fprintf(progress, "%s wrote %s\n", keyword("✓"), name)
	}
	return nil
}

func writeWAV(path string, p pcm.Payload) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	if err := pcm.WriteWAV(f, p); err != nil {
		_ = f.Close()
		return fmt.Errorf("unable to write %s: %w", path, err)
	}
	return f.Close()
}

// payloadSize describes the decoded size and length of p.
func payloadSize(p pcm.Payload) string {
	raw, err := p.Bytes()
	if err != nil {
		return "invalid audio"
	}
	d := time.Duration(len(raw)/pcm.BytesPerSample) * time.Second / pcm.SampleRate
	return fmt.Sprintf("%s, %s", humanize.Bytes(uint64(len(raw))), d.Round(100*time.Millisecond))
}

func init() {
	speakCmd.Flags().StringVarP(&speakFile, "file", "f", "", "read text from a file")
	speakCmd.Flags().StringVarP(&speakOut, "out", "o", "", "also write the audio to a WAV file")
	speakCmd.Flags().IntVar(&speakStart, "start", 0, "chunk to start playback at")
	speakCmd.Flags().BoolVar(&noPlay, "no-play", false, "only write the audio file")
	speakCmd.Flags().BoolP("enhance", "e", false, "rewrite text for natural narration first")

	_ = viper.BindPFlag("enhance", speakCmd.Flags().Lookup("enhance"))
}
