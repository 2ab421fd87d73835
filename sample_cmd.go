package main

import (
	"errors"
	"fmt"

	"github.com/Mrnobodysmkn/TTS-04/internal/logging"
	"github.com/Mrnobodysmkn/TTS-04/internal/playback"
	"github.com/Mrnobodysmkn/TTS-04/internal/speech"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	sampleText   string
	sampleRepeat int

	sampleCmd = &cobra.Command{
		Use:   "sample [VOICE...]",
		Short: "Preview voices",
		Long: paragraph(fmt.Sprintf("\n%s each voice in turn by speaking a short sample. Without arguments the configured voice is used. Samples are cached for the rest of the session, so repeating a voice does not call the provider again.",
			keyword("Preview"))),
		Example: paragraph("avaye sample\navaye sample kore puck charon\navaye sample zephyr --repeat 2"),
		RunE:    runSample,
		ValidArgsFunction: func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			var ids []string
			for _, v := range speech.Voices {
				ids = append(ids, v.ID+"\t"+v.Name)
			}
			return ids, cobra.ShellCompDirectiveNoFileComp
		},
	}
)

func runSample(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{cfg.Voice}
	}

	var voices []speech.Voice
	for _, id := range args {
		v, err := speech.ResolveVoice(id)
		if err != nil {
			return err
		}
		voices = append(voices, v)
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	gen := speech.NewCachedGenerator(client, cfg.Provider, cfg.Cache.Bytes())
	svc, err := newService(
		playback.WithGenerator(gen),
		playback.WithSampleText(sampleText),
	)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	ctx, cancel := signalContext()
	defer cancel()

	out := cmd.ErrOrStderr()
	for round := 0; round < max(sampleRepeat, 1); round++ {
		for _, v := range voices {
			fmt.Fprintf(out, "%s %s %s\n", keyword("♪"), pad(v.Name, 14), faint(v.Description))

			w := newWaiter(playback.ChannelSample, playback.VoiceID(v.ID), out)
			unsubscribe := svc.Subscribe(playback.ChannelSample, w)

			err := svc.PlaySample(ctx, v.ID)
			if err == nil {
				err = w.wait(ctx, svc)
			}
			unsubscribe()

			switch {
			case errors.Is(err, errInterrupted), ctx.Err() != nil:
				return errInterrupted
			case errors.Is(err, speech.ErrGenerationFailed):
				fmt.Fprintln(out, failure(fmt.Sprintf("  %s: %v", v.ID, err)))
				log.Debug("Sample failed", "voice", v.ID, "error", err)
			case err != nil:
				return err
			}
		}
	}

	if cfg.Log.Debug {
		stats := gen.Stats()
		fmt.Fprintln(out, faint(logging.Stats()))
		fmt.Fprintln(out, faint(fmt.Sprintf("Cache: %d hits, %d misses, %d items", stats.Hits, stats.Misses, stats.ItemCount)))
	}
	return nil
}

func init() {
	sampleCmd.Flags().StringVar(&sampleText, "text", speech.SampleText, "text spoken by each sample")
	sampleCmd.Flags().IntVar(&sampleRepeat, "repeat", 1, "number of times to play the voices")
}
