package analytics

import (
	"fmt"
	"log"
	"strings"

	"ticker-tape/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

// PercentChangeRow is one line of the previous-day percent-change report.
type PercentChangeRow struct {
	Ticker        string
	Open          float64
	Close         float64
	PercentChange float64
}

// PercentChange computes previous-day percent change per snapshot. Records
// with a zero open are skipped and logged; the report never emits Inf or NaN.
func PercentChange(snapshots []domain.Snapshot) []PercentChangeRow {
	rows := make([]PercentChangeRow, 0, len(snapshots))
	for _, snap := range snapshots {
		if len(snap.PrevDay) == 0 {
			log.Printf("skipping %s: no prev_day record", snap.Ticker)
			continue
		}
		prev := snap.PrevDay[0]
		if prev.Open == 0 {
			log.Printf("skipping %s: prev_day open is zero", snap.Ticker)
			continue
		}
		rows = append(rows, PercentChangeRow{
			Ticker:        snap.Ticker,
			Open:          prev.Open,
			Close:         prev.Close,
			PercentChange: (prev.Close - prev.Open) / prev.Open * 100,
		})
	}
	return rows
}

// FormatPercentChange renders report rows in the fixed-width layout:
// ticker, previous open, previous close, percent change to 2 decimals.
func FormatPercentChange(rows []PercentChangeRow) string {
	gain := lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	loss := lipgloss.NewStyle().Foreground(lipgloss.Color("1"))

	var b strings.Builder
	for _, row := range rows {
		line := fmt.Sprintf("%-15s%-15v%-15v%.2f %%", row.Ticker, row.Open, row.Close, row.PercentChange)
		switch {
		case row.PercentChange > 0:
			line = gain.Render(line)
		case row.PercentChange < 0:
			line = loss.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
