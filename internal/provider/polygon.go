package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ticker-tape/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const polygonBaseURL = "https://api.polygon.io"

const (
	maxAttempts    = 3
	initialBackoff = 2 * time.Second
)

// PolygonProvider fetches aggregates, snapshots, and reference data from the
// Polygon.io REST API.
type PolygonProvider struct {
	client       *http.Client
	baseURL      string
	apiKey       string
	tracer       trace.Tracer
	limiter      *RateLimiter
	retryBackoff time.Duration
}

// NewPolygonProvider creates a new provider with built-in rate limiting.
// Rate limited to 5 requests per minute (the free-tier budget).
func NewPolygonProvider(apiKey string, tracer trace.Tracer) *PolygonProvider {
	return &PolygonProvider{
		client:       &http.Client{Timeout: 30 * time.Second},
		baseURL:      polygonBaseURL,
		apiKey:       apiKey,
		tracer:       tracer,
		limiter:      NewRateLimiter(5, 12*time.Second),
		retryBackoff: initialBackoff,
	}
}

type aggsResponse struct {
	Results []aggResult `json:"results"`
	NextURL string      `json:"next_url"`
}

type aggResult struct {
	Timestamp    *int64   `json:"t"`
	Open         *float64 `json:"o"`
	High         *float64 `json:"h"`
	Low          *float64 `json:"l"`
	Close        *float64 `json:"c"`
	Volume       *float64 `json:"v"`
	VWAP         *float64 `json:"vw"`
	Transactions *int64   `json:"n"`
}

// FetchAggregates fetches the full daily bar series for a ticker between two
// YYYY-MM-DD dates, following pagination, and normalizes it into date-ordered
// flat records.
func (p *PolygonProvider) FetchAggregates(ctx context.Context, ticker, from, to string) ([]domain.Bar, error) {
	_, span := p.tracer.Start(ctx, "polygon.fetch-aggregates")
	defer span.End()

	reqURL := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/day/%s/%s?adjusted=true&sort=asc&limit=50000",
		p.baseURL, url.PathEscape(ticker), from, to)

	var bars []domain.Bar
	for reqURL != "" {
		body, err := p.doRequest(ctx, reqURL)
		if err != nil {
			return nil, fmt.Errorf("fetch aggregates for %s: %w", ticker, err)
		}

		var raw aggsResponse
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("parse aggregates for %s: %w", ticker, err)
		}

		for _, r := range raw.Results {
			bar, err := normalizeAgg(ticker, r)
			if err != nil {
				return nil, err
			}
			bars = append(bars, bar)
		}

		reqURL = raw.NextURL
	}

	return bars, nil
}

// normalizeAgg flattens one provider aggregate into a Bar. Timestamp and OHLC
// are required; vwap and transactions pass through as null when absent.
func normalizeAgg(ticker string, r aggResult) (domain.Bar, error) {
	required := map[string]*float64{
		"open": r.Open, "high": r.High, "low": r.Low, "close": r.Close,
	}
	for field, v := range required {
		if v == nil {
			return domain.Bar{}, &domain.MalformedRecordError{Ticker: ticker, Field: field}
		}
	}
	if r.Timestamp == nil {
		return domain.Bar{}, &domain.MalformedRecordError{Ticker: ticker, Field: "date"}
	}

	var volume float64
	if r.Volume != nil {
		volume = *r.Volume
	}

	return domain.Bar{
		Date:         *r.Timestamp,
		Open:         *r.Open,
		High:         *r.High,
		Low:          *r.Low,
		Close:        *r.Close,
		Volume:       volume,
		VWAP:         r.VWAP,
		Transactions: r.Transactions,
	}, nil
}

type snapshotResponse struct {
	Tickers []tickerSnapshot `json:"tickers"`
}

type tickerSnapshot struct {
	Ticker           string       `json:"ticker"`
	TodaysChangePerc float64      `json:"todaysChangePerc"`
	TodaysChange     float64      `json:"todaysChange"`
	Updated          int64        `json:"updated"`
	Day              *snapshotAgg `json:"day"`
	Min              *minuteAgg   `json:"min"`
	PrevDay          *snapshotAgg `json:"prevDay"`
}

type snapshotAgg struct {
	Open   *float64 `json:"o"`
	High   *float64 `json:"h"`
	Low    *float64 `json:"l"`
	Close  *float64 `json:"c"`
	Volume *float64 `json:"v"`
	VWAP   *float64 `json:"vw"`
}

type minuteAgg struct {
	AccumulatedVolume *float64 `json:"av"`
	Open              *float64 `json:"o"`
	High              *float64 `json:"h"`
	Low               *float64 `json:"l"`
	Close             *float64 `json:"c"`
	Volume            *float64 `json:"v"`
	VWAP              *float64 `json:"vw"`
	Timestamp         *int64   `json:"t"`
	Transactions      *int64   `json:"n"`
}

// FetchSnapshots fetches the latest market state for a list of tickers.
func (p *PolygonProvider) FetchSnapshots(ctx context.Context, tickers []string) ([]domain.Snapshot, error) {
	_, span := p.tracer.Start(ctx, "polygon.fetch-snapshots")
	defer span.End()

	reqURL := fmt.Sprintf("%s/v2/snapshot/locale/us/markets/stocks/tickers?tickers=%s",
		p.baseURL, url.QueryEscape(strings.Join(tickers, ",")))

	return p.fetchSnapshotBatch(ctx, reqURL)
}

// FetchDirectionSnapshots fetches the market-wide biggest movers.
// Direction is "gainers" or "losers".
func (p *PolygonProvider) FetchDirectionSnapshots(ctx context.Context, direction string) ([]domain.Snapshot, error) {
	_, span := p.tracer.Start(ctx, "polygon.fetch-direction-snapshots")
	defer span.End()

	if direction != "gainers" && direction != "losers" {
		return nil, fmt.Errorf("unsupported snapshot direction: %s", direction)
	}

	reqURL := fmt.Sprintf("%s/v2/snapshot/locale/us/markets/stocks/%s", p.baseURL, direction)
	return p.fetchSnapshotBatch(ctx, reqURL)
}

func (p *PolygonProvider) fetchSnapshotBatch(ctx context.Context, reqURL string) ([]domain.Snapshot, error) {
	body, err := p.doRequest(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshots: %w", err)
	}

	var raw snapshotResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse snapshots: %w", err)
	}

	snapshots := make([]domain.Snapshot, 0, len(raw.Tickers))
	for _, t := range raw.Tickers {
		snap, err := normalizeSnapshot(t)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// normalizeSnapshot flattens one provider snapshot, wrapping each sub-record
// as a single-element array. The prev_day open/close pair feeds the
// percent-change view and must be present.
func normalizeSnapshot(t tickerSnapshot) (domain.Snapshot, error) {
	if t.PrevDay == nil {
		return domain.Snapshot{}, &domain.MalformedRecordError{Ticker: t.Ticker, Field: "prev_day"}
	}
	if t.PrevDay.Open == nil {
		return domain.Snapshot{}, &domain.MalformedRecordError{Ticker: t.Ticker, Field: "prev_day.open"}
	}
	if t.PrevDay.Close == nil {
		return domain.Snapshot{}, &domain.MalformedRecordError{Ticker: t.Ticker, Field: "prev_day.close"}
	}

	snap := domain.Snapshot{
		Ticker:              t.Ticker,
		TodaysChangePercent: t.TodaysChangePerc,
		TodaysChange:        t.TodaysChange,
		Updated:             t.Updated,
		PrevDay:             []domain.SnapshotBar{normalizeSnapshotAgg(t.PrevDay)},
	}

	if t.Day != nil {
		snap.Day = []domain.SnapshotBar{normalizeSnapshotAgg(t.Day)}
	}
	if t.Min != nil {
		m := domain.MinuteBar{
			VWAP:         t.Min.VWAP,
			Transactions: t.Min.Transactions,
		}
		if t.Min.AccumulatedVolume != nil {
			m.AccumulatedVolume = *t.Min.AccumulatedVolume
		}
		if t.Min.Open != nil {
			m.Open = *t.Min.Open
		}
		if t.Min.High != nil {
			m.High = *t.Min.High
		}
		if t.Min.Low != nil {
			m.Low = *t.Min.Low
		}
		if t.Min.Close != nil {
			m.Close = *t.Min.Close
		}
		if t.Min.Volume != nil {
			m.Volume = *t.Min.Volume
		}
		if t.Min.Timestamp != nil {
			m.Timestamp = *t.Min.Timestamp
		}
		snap.Min = []domain.MinuteBar{m}
	}

	return snap, nil
}

func normalizeSnapshotAgg(a *snapshotAgg) domain.SnapshotBar {
	b := domain.SnapshotBar{VWAP: a.VWAP}
	if a.Open != nil {
		b.Open = *a.Open
	}
	if a.High != nil {
		b.High = *a.High
	}
	if a.Low != nil {
		b.Low = *a.Low
	}
	if a.Close != nil {
		b.Close = *a.Close
	}
	if a.Volume != nil {
		b.Volume = *a.Volume
	}
	return b
}

// FetchExchanges fetches the exchange reference list.
func (p *PolygonProvider) FetchExchanges(ctx context.Context) ([]domain.Exchange, error) {
	_, span := p.tracer.Start(ctx, "polygon.fetch-exchanges")
	defer span.End()

	reqURL := fmt.Sprintf("%s/v3/reference/exchanges", p.baseURL)

	body, err := p.doRequest(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("fetch exchanges: %w", err)
	}

	var raw struct {
		Results []domain.Exchange `json:"results"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse exchanges: %w", err)
	}
	return raw.Results, nil
}

// FetchTickerNews fetches recent news for a ticker, newest first.
func (p *PolygonProvider) FetchTickerNews(ctx context.Context, ticker string, limit int) ([]domain.NewsArticle, error) {
	_, span := p.tracer.Start(ctx, "polygon.fetch-ticker-news")
	defer span.End()

	reqURL := fmt.Sprintf("%s/v2/reference/news?ticker=%s&order=desc&limit=%d",
		p.baseURL, url.QueryEscape(ticker), limit)

	body, err := p.doRequest(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("fetch news for %s: %w", ticker, err)
	}

	var raw struct {
		Results []domain.NewsArticle `json:"results"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse news for %s: %w", ticker, err)
	}
	return raw.Results, nil
}

// FetchConditions fetches the trade/quote condition reference list.
func (p *PolygonProvider) FetchConditions(ctx context.Context, limit int) ([]domain.Condition, error) {
	_, span := p.tracer.Start(ctx, "polygon.fetch-conditions")
	defer span.End()

	reqURL := fmt.Sprintf("%s/v3/reference/conditions?limit=%d", p.baseURL, limit)

	body, err := p.doRequest(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("fetch conditions: %w", err)
	}

	var raw struct {
		Results []domain.Condition `json:"results"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse conditions: %w", err)
	}
	return raw.Results, nil
}

// doRequest performs a rate-limited GET with bounded retry. Network errors,
// 429s, and 5xx responses are retried with doubling backoff; anything else
// fails immediately.
func (p *PolygonProvider) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	var lastErr error
	backoff := p.retryBackoff

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		body, retryable, err := p.doRequestOnce(ctx, reqURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	return nil, fmt.Errorf("giving up after %d attempts: %w", maxAttempts, lastErr)
}

func (p *PolygonProvider) doRequestOnce(ctx context.Context, reqURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("polygon API error %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	return body, false, nil
}
