package domain

import (
	"fmt"
	"strings"
)

// DefaultBasket is the fixed set of tickers fetched together and analyzed
// for cross-asset correlation.
var DefaultBasket = []string{"LMT", "RTX", "BA", "NOC", "GD", "LHX", "HII", "LDOS"}

// Cache keys. Aggregate series live under one key per ticker; snapshot
// batches and the exchange list each use a single key.
const (
	KeySnapshots = "stocks:snapshots"
	KeyGainers   = "stocks:gainers"
	KeyLosers    = "stocks:losers"
	KeyExchanges = "exchanges"
)

// AggregateKey returns the cache key for a ticker's daily bar series.
func AggregateKey(ticker string) string {
	return "stocks:aggregate:" + strings.ToLower(ticker)
}

// Bar is one point of a daily price series. Field order is the wire order
// expected by the chart feed; VWAP and Transactions are optional upstream
// and pass through as null.
type Bar struct {
	Date         int64    `json:"date"`
	Open         float64  `json:"open"`
	High         float64  `json:"high"`
	Low          float64  `json:"low"`
	Close        float64  `json:"close"`
	Volume       float64  `json:"volume"`
	VWAP         *float64 `json:"vwap"`
	Transactions *int64   `json:"transactions"`
}

// SnapshotBar is the day / prev_day sub-record of a ticker snapshot.
type SnapshotBar struct {
	Open   float64  `json:"open"`
	High   float64  `json:"high"`
	Low    float64  `json:"low"`
	Close  float64  `json:"close"`
	Volume float64  `json:"volume"`
	VWAP   *float64 `json:"vwap"`
}

// MinuteBar is the latest-minute sub-record of a ticker snapshot.
type MinuteBar struct {
	AccumulatedVolume float64  `json:"accumulated_volume"`
	Open              float64  `json:"open"`
	High              float64  `json:"high"`
	Low               float64  `json:"low"`
	Close             float64  `json:"close"`
	Volume            float64  `json:"volume"`
	VWAP              *float64 `json:"vwap"`
	Timestamp         int64    `json:"timestamp"`
	Transactions      *int64   `json:"transactions"`
}

// Snapshot is the latest market state for a ticker. The day, min, and
// prev_day sub-records are wrapped as single-element arrays; consumers of
// the cached documents depend on that shape.
type Snapshot struct {
	Ticker              string        `json:"ticker"`
	TodaysChangePercent float64       `json:"todays_change_percent"`
	TodaysChange        float64       `json:"todays_change"`
	Updated             int64         `json:"updated"`
	Day                 []SnapshotBar `json:"day"`
	Min                 []MinuteBar   `json:"min"`
	PrevDay             []SnapshotBar `json:"prev_day"`
}

// Exchange is a static reference record describing a trading venue.
type Exchange struct {
	Type          string `json:"type"`
	AssetClass    string `json:"asset_class"`
	Locale        string `json:"locale"`
	Name          string `json:"name"`
	Acronym       string `json:"acronym"`
	MIC           string `json:"mic"`
	OperatingMIC  string `json:"operating_mic"`
	ParticipantID string `json:"participant_id"`
	URL           string `json:"url"`
}

// NewsArticle is a single news item for a ticker.
type NewsArticle struct {
	PublishedUTC string `json:"published_utc"`
	Title        string `json:"title"`
	ArticleURL   string `json:"article_url"`
	Description  string `json:"description"`
}

// Condition is a trade/quote condition from the reference list.
type Condition struct {
	ID         int    `json:"id"`
	Type       string `json:"type"`
	Name       string `json:"name"`
	AssetClass string `json:"asset_class"`
}

// MalformedRecordError reports an upstream record missing a field the
// pipeline depends on. Raised once at the normalization boundary.
type MalformedRecordError struct {
	Ticker string
	Field  string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record for %s: missing field %s", e.Ticker, e.Field)
}
