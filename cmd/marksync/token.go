package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marksync/marksync/internal/auth"
	"github.com/marksync/marksync/internal/config"
	"github.com/marksync/marksync/internal/db"
	"github.com/marksync/marksync/internal/store"
)

// newTokenCmd provides server-side token administration. It talks directly to
// the database, so it runs where the server runs.
func newTokenCmd() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage API tokens",
	}
	tokenCmd.AddCommand(newTokenCreateCmd())
	return tokenCmd
}

func newTokenCreateCmd() *cobra.Command {
	var email, name, expiresIn string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			ctx := context.Background()

			user, err := store.NewUserStore(database).GetByEmail(ctx, email)
			if err != nil {
				return fmt.Errorf("look up user %q: %w", email, err)
			}

			var expiresAt *time.Time
			if expiresIn != "" {
				d, err := time.ParseDuration(expiresIn)
				if err != nil {
					return fmt.Errorf("parse --expires: %w", err)
				}
				t := time.Now().Add(d)
				expiresAt = &t
			}

			plaintext, hash, err := auth.GenerateToken()
			if err != nil {
				return err
			}

			rec, err := auth.NewSQLTokenStore(database).Create(ctx, user.ID, name, hash, expiresAt)
			if err != nil {
				return err
			}

			fmt.Printf("token %q created for %s\n", rec.Name, user.Email)
			fmt.Println("copy it now; it will not be shown again:")
			fmt.Println(plaintext)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email of the token owner (required)")
	cmd.Flags().StringVar(&name, "name", "", "token name (required)")
	cmd.Flags().StringVar(&expiresIn, "expires", "", "expiry duration, e.g. 720h (optional)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
