package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aretw0/intake/internal/config"
	"github.com/aretw0/intake/internal/logging"
)

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"log-level":     "log_level",
	"log-format":    "log_format",
	"workers":       "workers",
	"admin-addr":    "admin_addr",
	"session-store": "session_store",
	"timezone":      "timezone",
	"messages":      "messages_file",
}

// app holds what every command needs once flags are parsed.
var app struct {
	cfg    *config.Config
	logger *slog.Logger
}

var rootCmd = &cobra.Command{
	Use:   "intake",
	Short: "Intake is a Telegram bot that books consultations into a Google Sheet",
	Long: `Intake asks a client for the consultation topic, their name, phone and a preferred
date, then appends one row per booking to a Google Sheets spreadsheet.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Optional YAML configuration file")
	pf.String("env-file", ".env", "Dotenv file loaded into the environment")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-format", "text", "Log format (text, json)")
	pf.String("messages", "", "YAML file overriding the built-in chat texts")
}

func loadApp(cmd *cobra.Command, args []string) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	dotenvErr := config.LoadDotEnv(envFile)

	cfgFile, _ := cmd.Flags().GetString("config")
	overrides := map[string]any{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			overrides[key] = f.Value.String()
		}
	})

	cfg, err := config.Load(config.Source{File: cfgFile, Overrides: overrides})
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return err
	}

	app.cfg = cfg
	app.logger = logging.New(level, format)
	if dotenvErr != nil {
		app.logger.Debug("No dotenv file loaded, using the process environment", "file", envFile, "err", dotenvErr)
	}
	return nil
}
