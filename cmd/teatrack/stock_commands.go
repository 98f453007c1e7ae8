package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"teatrack/internal/tracker"
)

func newStockCommand(ctx *commandContext) *cobra.Command {
	stockCmd := &cobra.Command{
		Use:   "stock",
		Short: "Record and inspect stock movements",
	}

	stockCmd.AddCommand(newStockRestockCommand(ctx))
	stockCmd.AddCommand(newStockAdjustCommand(ctx))
	stockCmd.AddCommand(newStockHistoryCommand(ctx))
	stockCmd.AddCommand(newStockShowCommand(ctx))

	return stockCmd
}

func newStockRestockCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "restock <teaID> <quantity>",
		Short: "Add purchased stock to a tea",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTeaID(args[0])
			if err != nil {
				return err
			}
			quantity, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			return ctx.withTracker(func(tr *tracker.Tracker) error {
				adj, err := tr.Restock(cmd.Context(), id, quantity)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restocked tea %d by %s; balance is now %d\n",
					id, formatDelta(adj.Delta), adj.Balance)
				return nil
			})
		},
	}
}

func newStockAdjustCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "adjust <teaID> <delta>",
		Short: "Record a manual stock correction",
		Long:  "Record a manual correction, for example after weighing the tin. The delta may be negative but may not take the balance below zero.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTeaID(args[0])
			if err != nil {
				return err
			}
			delta, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid delta %q", args[1])
			}
			return ctx.withTracker(func(tr *tracker.Tracker) error {
				adj, err := tr.CorrectStock(cmd.Context(), id, delta)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Corrected tea %d by %s; balance is now %d\n",
					id, formatDelta(adj.Delta), adj.Balance)
				return nil
			})
		},
	}
}

func newStockHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history <teaID>",
		Short: "Show a tea's audit trail in commit order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTeaID(args[0])
			if err != nil {
				return err
			}
			return ctx.withTracker(func(tr *tracker.Tracker) error {
				history, err := tr.History(cmd.Context(), id)
				if err != nil {
					return err
				}
				if len(history) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No adjustments recorded")
					return nil
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out, historyHeaders, buildHistoryRows(history), historyAlignments))
				return nil
			})
		},
	}
}

func newStockShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <teaID>",
		Short: "Show a tea's current balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTeaID(args[0])
			if err != nil {
				return err
			}
			return ctx.withTracker(func(tr *tracker.Tracker) error {
				stock, err := tr.CurrentStock(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Tea %d has %d on hand\n", id, stock)
				return nil
			})
		},
	}
}
