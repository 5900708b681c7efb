package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/intake/internal/presentation/graph"
	"github.com/aretw0/intake/pkg/dialog"
	"github.com/aretw0/intake/pkg/domain"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the booking dialog as a Mermaid flowchart",
	Long: `Prints the dialog steps and transitions in Mermaid syntax.
With --user the stored session of that user is highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")

		var overlay *graph.Overlay
		if userID != "" {
			sessions, closeSessions, err := openSessions(cmd.Context(), app.cfg, app.logger)
			if err != nil {
				return err
			}
			defer closeSessions()

			s, err := sessions.Get(cmd.Context(), userID)
			if err != nil {
				return err
			}
			overlay = &graph.Overlay{Current: s.Step}
			for _, f := range s.Answers.Keys() {
				overlay.Answered = append(overlay.Answered, stepOf(f))
			}
		}

		_, err := fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(dialog.Edges(), overlay))
		return err
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("user", "", "Highlight the stored session of this user")
	graphCmd.Flags().String("session-store", "memory", "Session store backend (memory, file, redis)")
}

// stepOf returns the step that asks for f.
func stepOf(f domain.Field) domain.Step {
	for _, e := range dialog.Edges() {
		if e.Trigger == string(f) {
			return e.From
		}
	}
	return ""
}
