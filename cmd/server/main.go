package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ticker-tape/internal/bot"
	"ticker-tape/internal/cache"
	"ticker-tape/internal/config"
	"ticker-tape/internal/handler"
	"ticker-tape/internal/provider"
	"ticker-tape/internal/service"
	"ticker-tape/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "ticker-tape/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newPolygonProviderFunc = func(apiKey string, tracer trace.Tracer) service.MarketProvider {
		return provider.NewPolygonProvider(apiKey, tracer)
	}
	newMarketServiceFunc   = service.NewMarketService
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Ticker Tape Feed API
// @version         1.0
// @description     Serves cached stock series to the browser candlestick chart.

// @host      localhost:8887
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initRedisFunc(ctx, cfg.RedisURL)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	store := cache.NewStore(cache.Client, tracer)
	polygon := newPolygonProviderFunc(cfg.PolygonAPIKey, tracer)
	market := newMarketServiceFunc(tracer, polygon, store, nil)

	startTelegramBotFunc(cfg.TelegramBotToken, market)

	h := newHandlerFunc(tracer, market, cfg.ChartTicker)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("ticker-tape"))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ChartPort),
		Handler: r,
	}

	go func() {
		log.Printf("Serving chart for %s at port %d", cfg.ChartTicker, cfg.ChartPort)
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
