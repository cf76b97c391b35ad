package cli

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"lyricconv/internal/lyrics"
	"lyricconv/pkg/fileutil"
)

func newBatchCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <input>...",
		Short: "Convert many files concurrently",
		Long: `Convert many files concurrently. Outputs take the target format's extension and
go to --out-dir, or next to each input. A summary table is printed at the end.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.runBatch(cmd, args)
		},
	}
	addSourceFlags(cmd.Flags(), r.flags)
	addOutputFlags(cmd.Flags(), r.flags)
	cmd.Flags().StringVarP(&r.flags.OutDir, "out-dir", "d", "", "output directory (next to each input when empty)")
	return cmd
}

func (r *runner) runBatch(cmd *cobra.Command, inputs []string) error {
	reqs := make([]*lyrics.Request, 0, len(inputs))
	var readErrs []error
	for _, in := range inputs {
		req, err := r.buildRequest(cmd, in)
		if err != nil {
			readErrs = append(readErrs, err)
			color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
			continue
		}
		reqs = append(reqs, req)
	}

	svc, err := r.service(cmd.Context())
	if err != nil {
		return err
	}
	results, err := svc.ConvertBatch(cmd.Context(), reqs)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"File", "Status", "Output", "Warnings"})
	table.SetAutoWrapText(false)

	failed := len(readErrs)
	for i, res := range results {
		name := reqs[i].Name
		if res.Err != nil {
			failed++
			table.Append([]string{name, "failed", res.Err.Error(), ""})
			continue
		}
		out := fileutil.OutputPath(name, r.flags.OutDir, reqs[i].TargetFormat.Extension())
		if err := fileutil.WriteFileOverwrite(out, []byte(res.Output), 0644); err != nil {
			failed++
			table.Append([]string{name, "failed", err.Error(), ""})
			continue
		}
		status := "ok"
		if res.Cached {
			status = "cached"
		}
		printWarnings(cmd, filepath.Base(name), res.Warnings)
		table.Append([]string{name, status, out, strconv.Itoa(len(res.Warnings))})
	}
	table.Render()

	if failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", failed, len(inputs))
	}
	return nil
}
