package analytics

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderHeatmap renders the correlation matrix as a colored grid with
// annotated cells. The scale is fixed to [-1, 1] and diverges around 0:
// blue for negative, red for positive.
func RenderHeatmap(basket []string, m [][]float64) string {
	header := lipgloss.NewStyle().Bold(true)

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", 6))
	for _, ticker := range basket {
		b.WriteString(header.Render(fmt.Sprintf("%7s", ticker)))
	}
	b.WriteString("\n")

	for i, ticker := range basket {
		b.WriteString(header.Render(fmt.Sprintf("%-6s", ticker)))
		for j := range basket {
			v := m[i][j]
			cell := lipgloss.NewStyle().
				Background(heatColor(v)).
				Foreground(lipgloss.Color("0")).
				Render(fmt.Sprintf("%7.2f", v))
			b.WriteString(cell)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// heatColor maps a correlation in [-1, 1] onto a blue-white-red ramp.
func heatColor(v float64) lipgloss.Color {
	if v < -1 {
		v = -1
	}
	if v > 1 {
		v = 1
	}

	var r, g, b int
	if v < 0 {
		// white at 0 down to blue at -1
		t := -v
		r = int(255 * (1 - t))
		g = int(255 * (1 - t))
		b = 255
	} else {
		// white at 0 up to red at +1
		r = 255
		g = int(255 * (1 - v))
		b = int(255 * (1 - v))
	}
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r, g, b))
}
