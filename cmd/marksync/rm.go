package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marksync/marksync/internal/client"
	"github.com/marksync/marksync/internal/config"
)

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadClient()
			if err != nil {
				return err
			}

			c := client.New(cfg.ServerURL, cfg.APIToken, nil)
			if err := c.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Println("deleted")
			return nil
		},
	}
}
