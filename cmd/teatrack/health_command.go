package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"teatrack/internal/tracker"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the store database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withTracker(func(tr *tracker.Tracker) error {
				health, err := tr.Health(cmd.Context())
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				fmt.Fprintf(out, "Database: %s\n", health.DBPath)
				fmt.Fprintln(out, renderStatusLine("Exists", boolKind(health.DatabaseExists), "", colorize))
				fmt.Fprintln(out, renderStatusLine("Readable", boolKind(health.DatabaseReadable), "", colorize))
				if len(health.MissingTables) > 0 {
					fmt.Fprintln(out, renderStatusLine("Schema", statusError,
						"missing "+strings.Join(health.MissingTables, ", "), colorize))
				} else {
					fmt.Fprintln(out, renderStatusLine("Schema", statusOK,
						strings.Join(health.TablesPresent, ", "), colorize))
				}
				fmt.Fprintln(out, renderStatusLine("Integrity", boolKind(health.IntegrityCheck), "", colorize))
				fmt.Fprintln(out, renderStatusLine("Teas", statusInfo, fmt.Sprintf("%d registered", health.TeaCount), colorize))
				if health.Error != "" {
					fmt.Fprintln(out, renderStatusLine("Last error", statusWarn, health.Error, colorize))
				}
				return err
			})
		},
	}
}

func boolKind(ok bool) statusKind {
	if ok {
		return statusOK
	}
	return statusError
}
