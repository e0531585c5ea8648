package analytics

import (
	"math"
	"strings"
	"testing"

	"ticker-tape/internal/domain"
)

func barsFromCloses(startMs int64, closes []float64) []domain.Bar {
	const dayMs = 24 * 60 * 60 * 1000
	bars := make([]domain.Bar, 0, len(closes))
	for i, c := range closes {
		bars = append(bars, domain.Bar{
			Date:   startMs + int64(i)*dayMs,
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1,
		})
	}
	return bars
}

func TestAlignClosesIntersectsDates(t *testing.T) {
	t.Parallel()

	basket := []string{"LMT", "RTX"}
	series := map[string][]domain.Bar{
		"LMT": barsFromCloses(0, []float64{1, 2, 3, 4}),
		// RTX is missing the first day.
		"RTX": barsFromCloses(24*60*60*1000, []float64{10, 20, 30}),
	}

	dates, cols, err := AlignCloses(basket, series)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dates) != 3 {
		t.Fatalf("expected 3 aligned dates, got %d", len(dates))
	}
	for i := 1; i < len(dates); i++ {
		if dates[i] <= dates[i-1] {
			t.Fatalf("dates not ascending: %v", dates)
		}
	}
	if len(cols) != 2 || cols[0][0] != 2 || cols[1][0] != 10 {
		t.Fatalf("unexpected columns: %v", cols)
	}
}

func TestAlignClosesRejectsSmallBasket(t *testing.T) {
	t.Parallel()

	if _, _, err := AlignCloses([]string{"LMT"}, nil); err == nil {
		t.Fatal("expected error for single-ticker basket")
	}
}

func TestAlignClosesMissingSeries(t *testing.T) {
	t.Parallel()

	series := map[string][]domain.Bar{"LMT": barsFromCloses(0, []float64{1, 2})}
	if _, _, err := AlignCloses([]string{"LMT", "RTX"}, series); err == nil {
		t.Fatal("expected error for missing series")
	}
}

func TestDailyReturns(t *testing.T) {
	t.Parallel()

	returns, err := DailyReturns([][]float64{{100, 110, 99}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(returns[0]) != 2 {
		t.Fatalf("expected 2 returns, got %d", len(returns[0]))
	}
	if math.Abs(returns[0][0]-0.10) > 1e-12 {
		t.Fatalf("expected 0.10, got %v", returns[0][0])
	}
	if math.Abs(returns[0][1]-(-0.10)) > 1e-12 {
		t.Fatalf("expected -0.10, got %v", returns[0][1])
	}
}

func TestDailyReturnsZeroClose(t *testing.T) {
	t.Parallel()

	if _, err := DailyReturns([][]float64{{0, 1}}); err == nil {
		t.Fatal("expected error on zero close")
	}
}

func TestCorrelationMatrixProperties(t *testing.T) {
	t.Parallel()

	up := []float64{0.01, 0.02, -0.01, 0.03, 0.015}
	down := make([]float64, len(up))
	for i, v := range up {
		down[i] = -v
	}
	noise := []float64{0.002, -0.004, 0.001, -0.002, 0.005}

	m, err := CorrelationMatrix([][]float64{up, down, noise})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n := len(m)
	for i := 0; i < n; i++ {
		if math.Abs(m[i][i]-1) > 1e-9 {
			t.Fatalf("diagonal not 1 at %d: %v", i, m[i][i])
		}
		for j := 0; j < n; j++ {
			if math.Abs(m[i][j]-m[j][i]) > 1e-9 {
				t.Fatalf("matrix not symmetric at (%d,%d)", i, j)
			}
			if m[i][j] < -1-1e-9 || m[i][j] > 1+1e-9 {
				t.Fatalf("entry out of [-1,1] at (%d,%d): %v", i, j, m[i][j])
			}
		}
	}
	// Perfectly inverted series correlate at -1.
	if math.Abs(m[0][1]-(-1)) > 1e-9 {
		t.Fatalf("expected -1 for inverted series, got %v", m[0][1])
	}
}

func TestCorrelationMatrixRaggedColumns(t *testing.T) {
	t.Parallel()

	if _, err := CorrelationMatrix([][]float64{{1, 2}, {1}}); err == nil {
		t.Fatal("expected error for ragged columns")
	}
}

func TestFormatMatrixLabels(t *testing.T) {
	t.Parallel()

	out := FormatMatrix([]string{"LMT", "RTX"}, [][]float64{{1, 0.5}, {0.5, 1}})
	if !strings.Contains(out, "LMT") || !strings.Contains(out, "RTX") {
		t.Fatalf("missing labels: %q", out)
	}
	if !strings.Contains(out, "0.5000") {
		t.Fatalf("missing formatted entry: %q", out)
	}
}
