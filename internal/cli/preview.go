package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lyricconv/internal/app"
	"lyricconv/internal/player"
)

func newPreviewCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <input>",
		Short: "Broadcast the current line over a unix socket, following playerctl",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.runPreview(cmd, args[0])
		},
	}
	addSourceFlags(cmd.Flags(), r.flags)
	addMergeFlags(cmd.Flags(), r.flags)
	cmd.Flags().StringVar(&r.flags.TranslateTo, "translate-to", "", "machine-translate lines missing this language")
	cmd.Flags().StringVar(&r.flags.Player, "player", "", "playerctl player name")
	cmd.Flags().StringVar(&r.flags.Socket, "socket", "", "unix socket path (default from config)")
	return cmd
}

func (r *runner) runPreview(cmd *cobra.Command, input string) error {
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
	printWarnings(cmd, "", doc.Warnings)

	if r.flags.Socket != "" {
		r.cfg.App.SocketPath = r.flags.Socket
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.New(r.cfg, &player.Playerctl{Player: r.flags.Player}).Run(ctx, doc)
}
