package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/aretw0/intake/internal/bootstrap"
	"github.com/aretw0/intake/pkg/adapters/telegram"
	"github.com/aretw0/intake/pkg/domain"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Diagnose the configuration and the external services",
	Long: `Prints whether the Telegram token and the Google credentials are set, then verifies
that Telegram accepts the token and that the spreadsheet can be opened.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := app.cfg, app.logger

		report := bootstrap.Diagnose(cmd.Context(), cfg, bootstrap.Probes{
			Telegram: func(ctx context.Context, token string) (bootstrap.BotIdentity, error) {
				bot, err := telegram.New(token)
				if err != nil {
					return bootstrap.BotIdentity{}, err
				}
				self := bot.Self()
				return bootstrap.BotIdentity{ID: self.ID, Username: self.UserName}, nil
			},
			Sheets: func(ctx context.Context, bundle domain.CredentialBundle) error {
				appender, err := openAppender(ctx, cfg, bundle, logger)
				if err != nil {
					return err
				}
				return appender.Ping(ctx)
			},
		})

		if err := report.Write(cmd.OutOrStdout()); err != nil {
			return err
		}
		if report.Failed() {
			return errors.New("diagnostics failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
