package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marksync/marksync/internal/client"
	"github.com/marksync/marksync/internal/config"
	"github.com/marksync/marksync/internal/logger"
	"github.com/marksync/marksync/internal/sync"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the bookmark list live",
		Long: "Watch runs a live reconciled view of your bookmarks: an initial " +
			"snapshot, a websocket change stream, and a periodic poll, re-rendered " +
			"on every change until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadClient()
			if err != nil {
				return err
			}
			log := logger.New("warn", true)
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c := client.New(cfg.ServerURL, cfg.APIToken, log)

			me, err := c.Me(ctx)
			if err != nil {
				return fmt.Errorf("resolve identity: %w", err)
			}

			view := sync.NewView(me.ID)
			session := client.NewSession(c, view, cfg.PollInterval, log)
			session.Start(ctx)
			defer session.Close()

			// Render once immediately, then on every coalesced change signal.
			renderView(view)
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-view.Changes():
					renderView(view)
				}
			}
		},
	}
}

func renderView(v *sync.View) {
	fmt.Print("\033[H\033[2J")
	sync.ProjectView(v).Render(os.Stdout)
}
