package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Mrnobodysmkn/TTS-04/internal/chunk"
	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/norm"
)

var (
	splitFile string

	splitCmd = &cobra.Command{
		Use:   "split [TEXT]",
		Short: "Show how text is split into chunks",
		Long: paragraph(fmt.Sprintf("\n%s text into the chunks %s would send to the provider, without generating any audio.",
			keyword("Split"), keyword("avaye speak"))),
		Example: paragraph("avaye split -f story.txt\navaye split --chunk-size 500 -f story.txt"),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(args, splitFile)
			if err != nil {
				return err
			}
			text = strings.TrimSpace(norm.NFC.String(text))

			records, err := chunk.Records(text, cfg.ChunkSize)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			width := termWidth(80) - 16
			for _, r := range records {
				fmt.Fprintf(out, "%s %s %s\n",
					keyword(pad(fmt.Sprintf("%d", r.Index+1), 4)),
					faint(pad(fmt.Sprintf("%d chars", utf8.RuneCountInString(r.Text)), 11)),
					preview(r.Text, width))
			}
			if stderrIsTerminal() {
				fmt.Fprintln(cmd.ErrOrStderr(), faint(fmt.Sprintf("%d chunks of at most %d characters", len(records), cfg.ChunkSize)))
			}
			return nil
		},
	}
)

func init() {
	splitCmd.Flags().StringVarP(&splitFile, "file", "f", "", "read text from a file")
}
