package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"teatrack/internal/brew"
	"teatrack/internal/inventory"
)

var displayCaser = cases.Title(language.English)

// displayName renders a tea name with its blend, title-cased for output.
// Stored values keep whatever casing the user entered.
func displayName(tea *inventory.Tea) string {
	name := displayCaser.String(tea.Name)
	if blend := strings.TrimSpace(tea.Blend); blend != "" {
		return fmt.Sprintf("%s (%s)", name, displayCaser.String(blend))
	}
	return name
}

func formatQuantity(quantity int64, unit string) string {
	if unit == "" {
		unit = "g"
	}
	return fmt.Sprintf("%d %s", quantity, unit)
}

func formatThreshold(threshold *int64, unit string) string {
	if threshold == nil {
		return "-"
	}
	return formatQuantity(*threshold, unit)
}

func formatPrice(cents int64) string {
	if cents == 0 {
		return "-"
	}
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

func formatTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

func formatDelta(delta int64) string {
	if delta > 0 {
		return "+" + strconv.FormatInt(delta, 10)
	}
	return strconv.FormatInt(delta, 10)
}

func buildTeaRows(teas []*inventory.Tea) [][]string {
	rows := make([][]string, 0, len(teas))
	for _, tea := range teas {
		state := "enabled"
		if tea.Disabled {
			state = "disabled"
		}
		rows = append(rows, []string{
			strconv.FormatInt(tea.ID, 10),
			displayName(tea),
			formatQuantity(tea.Quantity, tea.Unit),
			formatQuantity(tea.DefaultDose, tea.Unit),
			formatThreshold(tea.ReorderThreshold, tea.Unit),
			state,
		})
	}
	return rows
}

var teaListHeaders = []string{"ID", "Tea", "On hand", "Dose", "Reorder at", "State"}

var teaListAlignments = []columnAlignment{
	alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft,
}

func buildHistoryRows(adjustments []*inventory.StockAdjustment) [][]string {
	rows := make([][]string, 0, len(adjustments))
	for _, adj := range adjustments {
		rows = append(rows, []string{
			strconv.FormatInt(adj.ID, 10),
			formatTimestamp(adj.CreatedAt),
			string(adj.Reason),
			formatDelta(adj.Delta),
			strconv.FormatInt(adj.Balance, 10),
		})
	}
	return rows
}

var historyHeaders = []string{"ID", "When", "Reason", "Delta", "Balance"}

var historyAlignments = []columnAlignment{
	alignRight, alignLeft, alignLeft, alignRight, alignRight,
}

func buildSessionRows(sessions []*brew.Session, teaNames map[int64]string) [][]string {
	rows := make([][]string, 0, len(sessions))
	for _, session := range sessions {
		name := teaNames[session.TeaID]
		if name == "" {
			name = fmt.Sprintf("tea %d", session.TeaID)
		}
		rows = append(rows, []string{
			session.ID,
			name,
			strconv.FormatInt(session.Quantity, 10),
			string(session.Status),
			formatTimestamp(session.StartedAt),
			session.ExpectedDuration.String(),
		})
	}
	return rows
}

var sessionHeaders = []string{"Session", "Tea", "Qty", "Status", "Started", "Expected"}

var sessionAlignments = []columnAlignment{
	alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignRight,
}
