package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"teatrack/internal/brew"
	"teatrack/internal/tracker"
)

func newBrewCommand(ctx *commandContext) *cobra.Command {
	brewCmd := &cobra.Command{
		Use:   "brew",
		Short: "Start, finish, and inspect brew sessions",
	}

	brewCmd.AddCommand(newBrewStartCommand(ctx))
	brewCmd.AddCommand(newBrewFinishCommand(ctx))
	brewCmd.AddCommand(newBrewCancelCommand(ctx))
	brewCmd.AddCommand(newBrewActiveCommand(ctx))
	brewCmd.AddCommand(newBrewSuggestCommand(ctx))
	brewCmd.AddCommand(newBrewReclaimCommand(ctx))

	return brewCmd
}

func newBrewStartCommand(ctx *commandContext) *cobra.Command {
	var quantity int64
	var expected time.Duration

	cmd := &cobra.Command{
		Use:   "start <teaID>",
		Short: "Start a brew session, reserving stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTeaID(args[0])
			if err != nil {
				return err
			}
			return ctx.withTracker(func(tr *tracker.Tracker) error {
				session, err := tr.StartBrew(cmd.Context(), id, quantity, expected)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Brewing %d from tea %d; session %s\n",
					session.Quantity, session.TeaID, session.ID)
				return nil
			})
		},
	}

	cmd.Flags().Int64VarP(&quantity, "quantity", "q", 0, "Leaf quantity to brew (0 uses the tea's default dose)")
	cmd.Flags().DurationVar(&expected, "expected", 0, "Expected session duration (0 uses the configured default)")
	return cmd
}

func newBrewFinishCommand(ctx *commandContext) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "finish <sessionID>",
		Short: "Finish a session, consuming its reserved stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withTracker(func(tr *tracker.Tracker) error {
				session, err := tr.FinishBrew(cmd.Context(), args[0], note)
				if errors.Is(err, brew.ErrBrewAborted) {
					fmt.Fprintf(cmd.OutOrStdout(),
						"Session %s aborted: the reserved stock was removed while the brew was running\n",
						session.ID)
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Finished session %s; consumed %d from tea %d\n",
					session.ID, session.Quantity, session.TeaID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&note, "note", "n", "", "Tasting note to record with the session")
	return cmd
}

func newBrewCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <sessionID>",
		Short: "Cancel a session, releasing its reservation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withTracker(func(tr *tracker.Tracker) error {
				session, err := tr.CancelBrew(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cancelled session %s; no stock consumed\n", session.ID)
				return nil
			})
		},
	}
}

func newBrewActiveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "List active brew sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withTracker(func(tr *tracker.Tracker) error {
				sessions, err := tr.ActiveBrews(cmd.Context())
				if err != nil {
					return err
				}
				if len(sessions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No active brew sessions")
					return nil
				}

				teas, err := tr.ListTeas(cmd.Context())
				if err != nil {
					return err
				}
				names := make(map[int64]string, len(teas))
				for _, tea := range teas {
					names[tea.ID] = displayName(tea)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out, sessionHeaders, buildSessionRows(sessions, names), sessionAlignments))
				return nil
			})
		},
	}
}

func newBrewSuggestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest",
		Short: "Suggest the tea with the most stock on hand",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withTracker(func(tr *tracker.Tracker) error {
				tea, err := tr.SuggestTea(cmd.Context())
				if err != nil {
					return err
				}
				if tea == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing on the shelf; restock first")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Try %s (id %d), %s on hand\n",
					displayName(tea), tea.ID, formatQuantity(tea.Quantity, tea.Unit))
				return nil
			})
		},
	}
}

func newBrewReclaimCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reclaim",
		Short: "Cancel active sessions that ran past their expected duration",
		Long:  "Cancel sessions left active by interrupted workers. A session is reclaimed once its expected duration plus the configured grace period has elapsed; its reservation is released without consuming stock.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withTracker(func(tr *tracker.Tracker) error {
				reclaimed, err := tr.ReclaimExpiredBrews(cmd.Context())
				if err != nil {
					return err
				}
				if reclaimed == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No expired sessions to reclaim")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reclaimed %d expired session(s)\n", reclaimed)
				return nil
			})
		},
	}
}
