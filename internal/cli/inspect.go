package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"lyricconv/pkg/lyric"
	"lyricconv/pkg/metadata"
)

func newInspectCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <input>",
		Short: "Show the parsed structure of a lyric file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.runInspect(cmd, args[0])
		},
	}
	addSourceFlags(cmd.Flags(), r.flags)
	addMergeFlags(cmd.Flags(), r.flags)
	cmd.Flags().BoolVar(&r.flags.YAML, "yaml", false, "dump the document as YAML")
	return cmd
}

func (r *runner) runInspect(cmd *cobra.Command, input string) error {
	req, err := r.buildRequest(cmd, input)
	if err != nil {
		return err
	}
	svc, err := r.service(cmd.Context())
	if err != nil {
		return err
	}
	doc, err := svc.Build(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if r.flags.YAML {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}

	fmt.Fprintf(out, "Format: %s  Lines: %d  Line-timed: %t  Duration: %s\n\n",
		doc.SourceFormat, len(doc.Lines), doc.IsLineTimed, formatClock(doc.DurationMS()))
	renderMetadata(out, doc)
	renderLines(out, doc)
	printWarnings(cmd, "", doc.Warnings)
	for _, e := range doc.LineErrors {
		printWarnings(cmd, "", []string{e.Error()})
	}
	return nil
}

func renderMetadata(w io.Writer, doc *lyric.Document) {
	store := metadata.FromRaw(doc.Metadata)
	if store.Len() == 0 && len(doc.Agents) == 0 {
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Key", "Value"})
	table.SetAutoWrapText(false)
	for _, k := range store.Keys() {
		table.Append([]string{string(k), strings.Join(store.GetAll(k), " / ")})
	}
	for _, a := range doc.Agents {
		table.Append([]string{"agent " + a.ID, strings.TrimSpace(string(a.Type) + " " + a.Name)})
	}
	table.Render()
	fmt.Fprintln(w)
}

func renderLines(w io.Writer, doc *lyric.Document) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Start", "End", "Agent", "Part", "Text", "Translation", "Background"})
	table.SetAutoWrapText(false)
	for i := range doc.Lines {
		l := &doc.Lines[i]
		var bg string
		if t := l.BackgroundTrack(); t != nil {
			bg = t.Content.Text()
		}
		table.Append([]string{
			strconv.Itoa(i + 1),
			formatClock(l.StartMS),
			formatClock(l.EndMS),
			l.Agent,
			l.SongPart,
			l.Text(),
			l.Translation(),
			bg,
		})
	}
	table.Render()
}

// formatClock mm:ss.mmm
func formatClock(ms uint64) string {
	return fmt.Sprintf("%02d:%02d.%03d", ms/60000, ms/1000%60, ms%1000)
}
