package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// RelaySummary is what `pairrelay status` reports about a server.
type RelaySummary struct {
	URL         string
	Status      string
	ActiveRooms int
	Latency     string
}

func RelaySummaryView(summary RelaySummary) string {
	status := summary.Status
	if status == "ok" {
		status = SuccessStyle.Render(status)
	} else {
		status = WarningStyle.Render(status)
	}

	headers := []string{"Metric", "Value"}
	rows := [][]string{
		{"Relay", summary.URL},
		{"Status", status},
		{"Active Rooms", fmt.Sprintf("%d", summary.ActiveRooms)},
		{"Latency", summary.Latency},
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})

	return tbl.Render()
}

func RenderRelaySummary(summary RelaySummary) {
	fmt.Println(RelaySummaryView(summary))
}
