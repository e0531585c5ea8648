package analytics

import (
	"fmt"
	"sort"
	"strings"

	"ticker-tape/internal/domain"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// AlignCloses joins per-ticker bar series on date, keeping only dates present
// in every series, and returns the dates ascending with one close column per
// ticker in basket order. The fetched ranges are identical in practice, so
// this matches a structural union with incomplete rows dropped.
func AlignCloses(basket []string, series map[string][]domain.Bar) ([]int64, [][]float64, error) {
	if len(basket) < 2 {
		return nil, nil, fmt.Errorf("correlation needs at least 2 tickers, got %d", len(basket))
	}

	counts := make(map[int64]int)
	closes := make(map[string]map[int64]float64, len(basket))
	for _, ticker := range basket {
		bars, ok := series[ticker]
		if !ok || len(bars) == 0 {
			return nil, nil, fmt.Errorf("no bar series for %s", ticker)
		}
		byDate := make(map[int64]float64, len(bars))
		for _, b := range bars {
			if _, seen := byDate[b.Date]; !seen {
				counts[b.Date]++
			}
			byDate[b.Date] = b.Close
		}
		closes[ticker] = byDate
	}

	var dates []int64
	for date, n := range counts {
		if n == len(basket) {
			dates = append(dates, date)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })

	if len(dates) < 2 {
		return nil, nil, fmt.Errorf("only %d aligned dates across basket, need at least 2", len(dates))
	}

	cols := make([][]float64, len(basket))
	for i, ticker := range basket {
		col := make([]float64, len(dates))
		for j, date := range dates {
			col[j] = closes[ticker][date]
		}
		cols[i] = col
	}
	return dates, cols, nil
}

// DailyReturns converts aligned close columns into day-over-day percent
// changes. The first row has no prior value and is dropped.
func DailyReturns(cols [][]float64) ([][]float64, error) {
	returns := make([][]float64, len(cols))
	for i, col := range cols {
		ret := make([]float64, 0, len(col)-1)
		for j := 1; j < len(col); j++ {
			prev := col[j-1]
			if prev == 0 {
				return nil, fmt.Errorf("zero close in column %d at row %d", i, j-1)
			}
			ret = append(ret, (col[j]-prev)/prev)
		}
		returns[i] = ret
	}
	return returns, nil
}

// CorrelationMatrix computes the Pearson correlation matrix over per-ticker
// return columns. The result is symmetric with a unit diagonal.
func CorrelationMatrix(returns [][]float64) ([][]float64, error) {
	n := len(returns)
	if n < 2 {
		return nil, fmt.Errorf("correlation needs at least 2 return columns, got %d", n)
	}
	rows := len(returns[0])
	for i, col := range returns {
		if len(col) != rows {
			return nil, fmt.Errorf("return column %d has %d rows, expected %d", i, len(col), rows)
		}
	}

	x := mat.NewDense(rows, n, nil)
	for j, col := range returns {
		for i, v := range col {
			x.Set(i, j, v)
		}
	}

	sym := mat.NewSymDense(n, nil)
	stat.CorrelationMatrix(sym, x, nil)

	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			m[i][j] = sym.At(i, j)
		}
	}
	return m, nil
}

// FormatMatrix renders the matrix as a labelled text table for the terminal.
func FormatMatrix(basket []string, m [][]float64) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-8s", ""))
	for _, ticker := range basket {
		b.WriteString(fmt.Sprintf("%8s", ticker))
	}
	b.WriteString("\n")
	for i, ticker := range basket {
		b.WriteString(fmt.Sprintf("%-8s", ticker))
		for j := range basket {
			b.WriteString(fmt.Sprintf("%8.4f", m[i][j]))
		}
		b.WriteString("\n")
	}
	return b.String()
}
