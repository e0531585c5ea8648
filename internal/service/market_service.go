package service

import (
	"context"
	"fmt"
	"log"

	"ticker-tape/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// MarketProvider is the upstream market-data API surface the service needs.
type MarketProvider interface {
	FetchAggregates(ctx context.Context, ticker, from, to string) ([]domain.Bar, error)
	FetchSnapshots(ctx context.Context, tickers []string) ([]domain.Snapshot, error)
	FetchDirectionSnapshots(ctx context.Context, direction string) ([]domain.Snapshot, error)
	FetchExchanges(ctx context.Context) ([]domain.Exchange, error)
	FetchTickerNews(ctx context.Context, ticker string, limit int) ([]domain.NewsArticle, error)
	FetchConditions(ctx context.Context, limit int) ([]domain.Condition, error)
}

// DocumentStore is the cache gateway contract.
type DocumentStore interface {
	SetDocument(ctx context.Context, key string, v any) error
	GetDocument(ctx context.Context, key string, out any) error
}

// BarArchive persists bar history beyond the cache's latest-run window.
type BarArchive interface {
	UpsertBars(ctx context.Context, ticker string, bars []domain.Bar) error
}

// MarketService drives fetch, normalization, caching, and read-back of every
// dataset the pipeline and its views consume.
type MarketService struct {
	tracer   trace.Tracer
	provider MarketProvider
	store    DocumentStore
	archive  BarArchive
}

// NewMarketService wires the service. archive may be nil when no database is
// configured.
func NewMarketService(
	tracer trace.Tracer,
	provider MarketProvider,
	store DocumentStore,
	archive BarArchive,
) *MarketService {
	return &MarketService{
		tracer:   tracer,
		provider: provider,
		store:    store,
		archive:  archive,
	}
}

// CacheAggregates fetches a ticker's daily series, caches it, and reads it
// back to confirm the document is servable. Returns the bar count.
func (s *MarketService) CacheAggregates(ctx context.Context, ticker, from, to string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.cache-aggregates")
	defer span.End()

	bars, err := s.provider.FetchAggregates(ctx, ticker, from, to)
	if err != nil {
		return 0, err
	}

	key := domain.AggregateKey(ticker)
	if err := s.store.SetDocument(ctx, key, bars); err != nil {
		return 0, err
	}

	var stored []domain.Bar
	if err := s.store.GetDocument(ctx, key, &stored); err != nil {
		return 0, fmt.Errorf("verify %s: %w", key, err)
	}
	if len(stored) != len(bars) {
		return 0, fmt.Errorf("verify %s: stored %d bars, expected %d", key, len(stored), len(bars))
	}

	if s.archive != nil {
		if err := s.archive.UpsertBars(ctx, ticker, bars); err != nil {
			return 0, fmt.Errorf("archive bars for %s: %w", ticker, err)
		}
	}

	log.Printf("Cached %d bars for %s under %s", len(bars), ticker, key)
	return len(bars), nil
}

// CacheSnapshots fetches and caches the latest snapshot batch for a basket.
// Each run overwrites the previous batch.
func (s *MarketService) CacheSnapshots(ctx context.Context, tickers []string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.cache-snapshots")
	defer span.End()

	snapshots, err := s.provider.FetchSnapshots(ctx, tickers)
	if err != nil {
		return 0, err
	}
	return len(snapshots), s.cacheSnapshotDoc(ctx, domain.KeySnapshots, snapshots)
}

// CacheGainers fetches and caches the market-wide biggest gainers.
func (s *MarketService) CacheGainers(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.cache-gainers")
	defer span.End()

	snapshots, err := s.provider.FetchDirectionSnapshots(ctx, "gainers")
	if err != nil {
		return 0, err
	}
	return len(snapshots), s.cacheSnapshotDoc(ctx, domain.KeyGainers, snapshots)
}

// CacheLosers fetches and caches the market-wide biggest losers.
func (s *MarketService) CacheLosers(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.cache-losers")
	defer span.End()

	snapshots, err := s.provider.FetchDirectionSnapshots(ctx, "losers")
	if err != nil {
		return 0, err
	}
	return len(snapshots), s.cacheSnapshotDoc(ctx, domain.KeyLosers, snapshots)
}

func (s *MarketService) cacheSnapshotDoc(ctx context.Context, key string, snapshots []domain.Snapshot) error {
	if err := s.store.SetDocument(ctx, key, snapshots); err != nil {
		return err
	}

	var stored []domain.Snapshot
	if err := s.store.GetDocument(ctx, key, &stored); err != nil {
		return fmt.Errorf("verify %s: %w", key, err)
	}
	if len(stored) != len(snapshots) {
		return fmt.Errorf("verify %s: stored %d snapshots, expected %d", key, len(stored), len(snapshots))
	}

	log.Printf("Cached %d snapshots under %s", len(snapshots), key)
	return nil
}

// CacheExchanges fetches and caches the exchange reference list.
func (s *MarketService) CacheExchanges(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.cache-exchanges")
	defer span.End()

	exchanges, err := s.provider.FetchExchanges(ctx)
	if err != nil {
		return 0, err
	}

	if err := s.store.SetDocument(ctx, domain.KeyExchanges, exchanges); err != nil {
		return 0, err
	}

	var stored []domain.Exchange
	if err := s.store.GetDocument(ctx, domain.KeyExchanges, &stored); err != nil {
		return 0, fmt.Errorf("verify %s: %w", domain.KeyExchanges, err)
	}
	if len(stored) != len(exchanges) {
		return 0, fmt.Errorf("verify %s: stored %d exchanges, expected %d", domain.KeyExchanges, len(stored), len(exchanges))
	}

	log.Printf("Cached %d exchanges under %s", len(exchanges), domain.KeyExchanges)
	return len(exchanges), nil
}

// LoadBars reads a ticker's cached daily series.
func (s *MarketService) LoadBars(ctx context.Context, ticker string) ([]domain.Bar, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.load-bars")
	defer span.End()

	var bars []domain.Bar
	if err := s.store.GetDocument(ctx, domain.AggregateKey(ticker), &bars); err != nil {
		return nil, err
	}
	return bars, nil
}

// LoadSnapshots reads the cached basket snapshot batch.
func (s *MarketService) LoadSnapshots(ctx context.Context) ([]domain.Snapshot, error) {
	return s.loadSnapshotDoc(ctx, domain.KeySnapshots)
}

// LoadGainers reads the cached biggest-gainers batch.
func (s *MarketService) LoadGainers(ctx context.Context) ([]domain.Snapshot, error) {
	return s.loadSnapshotDoc(ctx, domain.KeyGainers)
}

// LoadLosers reads the cached biggest-losers batch.
func (s *MarketService) LoadLosers(ctx context.Context) ([]domain.Snapshot, error) {
	return s.loadSnapshotDoc(ctx, domain.KeyLosers)
}

func (s *MarketService) loadSnapshotDoc(ctx context.Context, key string) ([]domain.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.load-snapshots")
	defer span.End()

	var snapshots []domain.Snapshot
	if err := s.store.GetDocument(ctx, key, &snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// TickerNews fetches recent news for a ticker straight from the provider;
// news is printed, never cached.
func (s *MarketService) TickerNews(ctx context.Context, ticker string, limit int) ([]domain.NewsArticle, error) {
	return s.provider.FetchTickerNews(ctx, ticker, limit)
}

// Conditions fetches the condition reference list straight from the provider.
func (s *MarketService) Conditions(ctx context.Context, limit int) ([]domain.Condition, error) {
	return s.provider.FetchConditions(ctx, limit)
}
