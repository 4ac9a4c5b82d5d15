package cli

import (
	"github.com/spf13/cobra"

	"github.com/Makepad-fr/dreams/internal/server"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the diary as a JSON API",
		Args:  exactArgs(0, "dreams serve [--addr host:port]"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := app.openDiary(cmd.Context())
			if err != nil {
				return err
			}
			return server.New(app.cfg, d).Serve(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	return cmd
}
