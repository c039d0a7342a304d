package stats

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	summaryTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		MarginBottom(1)

	tableHeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#3B82F6")).
		Padding(0, 1)

	tableCellStyle = lipgloss.NewStyle().
		Padding(0, 1)
)

// Render returns the session summary as a styled terminal table.
func (g *Gatherer) Render() string {
	rows := g.Snapshot()
	if len(rows) == 0 {
		return summaryTitleStyle.Render("Session summary") + "\nno events recorded\n"
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		}).
		Headers("TICKER", "EVENT", "COUNT")

	for _, row := range rows {
		t.Row(row.Ticker, row.Event, fmt.Sprint(row.Count))
	}

	return summaryTitleStyle.Render("Session summary") + "\n" + t.Render() + "\n"
}
