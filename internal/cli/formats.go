package cli

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"lyricconv/pkg/lyric"
)

func newFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported lyric formats",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Format", "Extension", "Word timed"})
			for _, f := range lyric.AllFormats() {
				timed := "no"
				if f.IsWordTimed() {
					timed = "yes"
				}
				table.Append([]string{string(f), f.Extension(), timed})
			}
			table.Render()
		},
	}
}
