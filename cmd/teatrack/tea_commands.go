package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"teatrack/internal/inventory"
	"teatrack/internal/tracker"
)

func newTeaCommand(ctx *commandContext) *cobra.Command {
	teaCmd := &cobra.Command{
		Use:   "tea",
		Short: "Manage the tea catalog",
	}

	teaCmd.AddCommand(newTeaAddCommand(ctx))
	teaCmd.AddCommand(newTeaListCommand(ctx))
	teaCmd.AddCommand(newTeaShowCommand(ctx))
	teaCmd.AddCommand(newTeaDisableCommand(ctx))
	teaCmd.AddCommand(newTeaRemoveCommand(ctx))
	teaCmd.AddCommand(newTeaLowStockCommand(ctx))

	return teaCmd
}

func parseTeaID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid tea id %q", arg)
	}
	return id, nil
}

func newTeaAddCommand(ctx *commandContext) *cobra.Command {
	var (
		blend     string
		unit      string
		quantity  int64
		dose      int64
		threshold int64
		seller    string
		price     int64
		notes     string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a new tea",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs := inventory.NewTea{
				Name:              args[0],
				Blend:             blend,
				Unit:              unit,
				Quantity:          quantity,
				DefaultDose:       dose,
				Seller:            seller,
				PricePerUnitCents: price,
				Notes:             notes,
			}
			if cmd.Flags().Changed("reorder-at") {
				attrs.ReorderThreshold = &threshold
			}
			return ctx.withTracker(func(tr *tracker.Tracker) error {
				tea, err := tr.CreateTea(cmd.Context(), attrs)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (id %d) with %s on hand\n",
					displayName(tea), tea.ID, formatQuantity(tea.Quantity, tea.Unit))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&blend, "blend", "", "Tea type or blend (green, oolong, ...)")
	cmd.Flags().StringVar(&unit, "unit", "", "Stock unit (defaults to grams)")
	cmd.Flags().Int64VarP(&quantity, "quantity", "q", 0, "Opening quantity on hand")
	cmd.Flags().Int64Var(&dose, "dose", 0, "Default dose per brew")
	cmd.Flags().Int64Var(&threshold, "reorder-at", 0, "Reorder threshold for low-stock reports")
	cmd.Flags().StringVar(&seller, "seller", "", "Where the tea was bought")
	cmd.Flags().Int64Var(&price, "price-cents", 0, "Price per unit in cents")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	return cmd
}

func newTeaListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all teas",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withTracker(func(tr *tracker.Tracker) error {
				teas, err := tr.ListTeas(cmd.Context())
				if err != nil {
					return err
				}
				if len(teas) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No teas registered")
					return nil
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out, teaListHeaders, buildTeaRows(teas), teaListAlignments))
				return nil
			})
		},
	}
}

func newTeaShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <teaID>",
		Short: "Show one tea in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTeaID(args[0])
			if err != nil {
				return err
			}
			return ctx.withTracker(func(tr *tracker.Tracker) error {
				tea, err := tr.Tea(cmd.Context(), id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (id %d)\n", displayName(tea), tea.ID)
				fmt.Fprintf(out, "  On hand:      %s\n", formatQuantity(tea.Quantity, tea.Unit))
				fmt.Fprintf(out, "  Default dose: %s\n", formatQuantity(tea.DefaultDose, tea.Unit))
				fmt.Fprintf(out, "  Reorder at:   %s\n", formatThreshold(tea.ReorderThreshold, tea.Unit))
				fmt.Fprintf(out, "  Seller:       %s\n", orDash(tea.Seller))
				fmt.Fprintf(out, "  Price/unit:   %s\n", formatPrice(tea.PricePerUnitCents))
				fmt.Fprintf(out, "  Disabled:     %s\n", yesNo(tea.Disabled))
				fmt.Fprintf(out, "  Added:        %s\n", formatTimestamp(tea.CreatedAt))
				if tea.Notes != "" {
					fmt.Fprintf(out, "  Notes:        %s\n", tea.Notes)
				}
				return nil
			})
		},
	}
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func newTeaDisableCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "disable <teaID>",
		Short: "Disable a tea so it no longer accepts stock movements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTeaID(args[0])
			if err != nil {
				return err
			}
			return ctx.withTracker(func(tr *tracker.Tracker) error {
				if err := tr.DisableTea(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Disabled tea %d\n", id)
				return nil
			})
		},
	}
}

func newTeaRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <teaID>",
		Short: "Delete a tea that has no recorded history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTeaID(args[0])
			if err != nil {
				return err
			}
			return ctx.withTracker(func(tr *tracker.Tracker) error {
				if err := tr.RemoveTea(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed tea %d\n", id)
				return nil
			})
		},
	}
}

func newTeaLowStockCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "low-stock",
		Short: "List teas at or below their reorder threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withTracker(func(tr *tracker.Tracker) error {
				teas, err := tr.LowStock(cmd.Context())
				if err != nil {
					return err
				}
				if len(teas) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "All teas are above their reorder thresholds")
					return nil
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out, teaListHeaders, buildTeaRows(teas), teaListAlignments))
				return nil
			})
		},
	}
}
