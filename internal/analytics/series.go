package analytics

import "ticker-tape/internal/domain"

// FeedTuples reshapes a date-ordered bar series into the flat tuples the
// chart feed serves: [date, open, high, low, close, volume, vwap,
// transactions]. Optional fields stay null.
func FeedTuples(bars []domain.Bar) [][]any {
	tuples := make([][]any, 0, len(bars))
	for _, b := range bars {
		var vwap any
		if b.VWAP != nil {
			vwap = *b.VWAP
		}
		var transactions any
		if b.Transactions != nil {
			transactions = *b.Transactions
		}
		tuples = append(tuples, []any{
			b.Date, b.Open, b.High, b.Low, b.Close, b.Volume, vwap, transactions,
		})
	}
	return tuples
}
