package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tankyu/diary/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			d.cfg.Server.Listen = listen
		}
		if seed, _ := cmd.Flags().GetBool("seed"); seed {
			if err := seedCatalog(cmd.Context(), d.store, cmd.OutOrStdout()); err != nil {
				return err
			}
			d.catalog.Invalidate()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(d.cfg.Server, server.Deps{
			Reports: d.reports,
			Catalog: d.catalog,
			DB:      d.store.DB(),
		}, d.log)
		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "Listen address (overrides config)")
	serveCmd.Flags().Bool("seed", false, "Seed the competency and phase catalog before serving")
}
