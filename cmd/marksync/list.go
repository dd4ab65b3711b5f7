package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/marksync/marksync/internal/client"
	"github.com/marksync/marksync/internal/config"
	"github.com/marksync/marksync/internal/sync"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List bookmarks, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadClient()
			if err != nil {
				return err
			}

			c := client.New(cfg.ServerURL, cfg.APIToken, nil)
			bookmarks, err := c.Snapshot(cmd.Context())
			if err != nil {
				return err
			}

			sync.Project(sync.Loaded, bookmarks, nil).Render(os.Stdout)
			return nil
		},
	}
}
