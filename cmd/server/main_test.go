package main

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"ticker-tape/internal/bot"
	"ticker-tape/internal/config"
	"ticker-tape/internal/domain"
	"ticker-tape/internal/handler"
	"ticker-tape/internal/service"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	restore := stubServerDeps()
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func stubServerDeps() func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origNewProvider := newPolygonProviderFunc
	origStartTelegram := startTelegramBotFunc
	origNewHandler := newHandlerFunc
	origNewRouter := newRouterFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{ChartPort: 0, ChartTicker: "LMT"}
	}
	initRedisFunc = func(context.Context, string) {}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newPolygonProviderFunc = func(string, trace.Tracer) service.MarketProvider { return stubMarketProvider{} }
	startTelegramBotFunc = func(string, bot.SnapshotSource) {}
	newHandlerFunc = handler.New
	newRouterFunc = func(...gin.OptionFunc) *gin.Engine { return gin.New() }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		newPolygonProviderFunc = origNewProvider
		startTelegramBotFunc = origStartTelegram
		newHandlerFunc = origNewHandler
		newRouterFunc = origNewRouter
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
	}
}

type stubMarketProvider struct{}

func (stubMarketProvider) FetchAggregates(ctx context.Context, ticker, from, to string) ([]domain.Bar, error) {
	return []domain.Bar{}, nil
}

func (stubMarketProvider) FetchSnapshots(ctx context.Context, tickers []string) ([]domain.Snapshot, error) {
	return []domain.Snapshot{}, nil
}

func (stubMarketProvider) FetchDirectionSnapshots(ctx context.Context, direction string) ([]domain.Snapshot, error) {
	return []domain.Snapshot{}, nil
}

func (stubMarketProvider) FetchExchanges(ctx context.Context) ([]domain.Exchange, error) {
	return []domain.Exchange{}, nil
}

func (stubMarketProvider) FetchTickerNews(ctx context.Context, ticker string, limit int) ([]domain.NewsArticle, error) {
	return []domain.NewsArticle{}, nil
}

func (stubMarketProvider) FetchConditions(ctx context.Context, limit int) ([]domain.Condition, error) {
	return []domain.Condition{}, nil
}
