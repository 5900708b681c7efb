package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/intake/internal/bootstrap"
	"github.com/aretw0/intake/pkg/adapters/console"
	"github.com/aretw0/intake/pkg/adapters/memory"
	"github.com/aretw0/intake/pkg/ports"
	"github.com/aretw0/intake/pkg/runner"
	"github.com/aretw0/intake/pkg/session"
	"github.com/aretw0/intake/pkg/sink"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the bot in the terminal",
	Long: `Runs the booking dialog over stdin/stdout. Bookings are kept in memory and printed
on exit unless --dry-run=false, which appends them to the configured spreadsheet.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().Bool("dry-run", true, "Keep bookings in memory instead of appending them")
	chatCmd.Flags().String("timezone", "CET", "Time zone of booking timestamps")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, logger := app.cfg, app.logger
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var (
		appender ports.RecordAppender
		kept     *memory.Appender
	)
	if dryRun {
		kept = memory.NewAppender()
		appender = kept
	} else {
		bundle, err := bootstrap.ResolveCredentials(cfg)
		if err != nil {
			return err
		}
		sheet, err := openAppender(ctx, cfg, *bundle, logger)
		if err != nil {
			return err
		}
		appender = sheet
	}

	location, err := sink.LoadLocation(cfg.Timezone)
	if err != nil {
		return err
	}
	records := sink.New(appender, sink.WithLocation(location), sink.WithLogger(logger))
	if !dryRun {
		if err := bootstrap.SelfCheck(ctx, records, logger); err != nil {
			return err
		}
	}

	machine, err := newMachine(cfg)
	if err != nil {
		return err
	}

	term := console.New(cmd.InOrStdin(), cmd.OutOrStdout())
	if term.Interactive() {
		term.PrintBanner()
	}

	dispatcher := runner.New(machine,
		session.NewManager(memory.NewStore(), session.WithLogger(logger)),
		records, term,
		runner.WithLogger(logger),
		runner.WithWorkers(1),
	)
	if err := dispatcher.Run(ctx, term.Listen(ctx)); err != nil && ctx.Err() == nil {
		return err
	}

	if kept != nil {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "\n%d booking(s) recorded:\n", len(kept.Rows()))
		for _, row := range kept.Rows() {
			fmt.Fprintln(out, strings.Join(row, " | "))
		}
	}
	return nil
}
