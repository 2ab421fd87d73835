package main

import (
	"fmt"

	"github.com/Mrnobodysmkn/TTS-04/internal/speech"
	"github.com/spf13/cobra"
)

var voicesCmd = &cobra.Command{
	Use:     "voices",
	Short:   "List the available voices",
	Long:    paragraph(fmt.Sprintf("\n%s the voice catalogue. The OpenAI column shows the voice used when the provider is openai.", keyword("List"))),
	Example: paragraph("avaye voices\navaye sample $(avaye voices --ids)"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		ids, _ := cmd.Flags().GetBool("ids")
		if ids {
			for _, v := range speech.Voices {
				fmt.Fprintln(out, v.ID)
			}
			return nil
		}

		fmt.Fprintf(out, "%s %s %s %s\n", pad("ID", 16), pad("NAME", 16), pad("OPENAI", 10), "DESCRIPTION")
		for _, v := range speech.Voices {
			id := pad(v.ID, 16)
			if v.ID == cfg.Voice {
				id = keyword(id)
			}
			fmt.Fprintf(out, "%s %s %s %s\n", id, pad(v.Name, 16), faint(pad(v.OpenAI, 10)), v.Description)
		}
		return nil
	},
}

func init() {
	voicesCmd.Flags().Bool("ids", false, "only print voice ids")
}
