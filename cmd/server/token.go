package main

import (
	"ColorPredict/internal/adapters/security"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func tokenCommand() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the admin HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, baseLogger, err := setup()
			if err != nil {
				return err
			}
			tokens, err := security.NewJWTService([]byte(cfg.Auth.JWTSecret), cfg.Auth.LinkTTL, &baseLogger)
			if err != nil {
				return err
			}
			token, err := tokens.IssueAdminToken(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "admin", "Name recorded as the actor of API decisions")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
