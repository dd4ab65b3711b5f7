package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marksync/marksync/internal/client"
	"github.com/marksync/marksync/internal/config"
)

func newAddCmd() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Save a bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadClient()
			if err != nil {
				return err
			}

			url := args[0]
			if title == "" {
				// Bare-host fallback, e.g. "react.dev" for https://react.dev.
				title = strings.TrimPrefix(strings.TrimPrefix(url, "https://"), "http://")
			}

			c := client.New(cfg.ServerURL, cfg.APIToken, nil)
			if err := c.Create(cmd.Context(), title, url); err != nil {
				return err
			}

			fmt.Println("saved")
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "bookmark title (defaults to the URL)")
	return cmd
}
