package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"ticker-tape/internal/cache"
	"ticker-tape/internal/config"
	"ticker-tape/internal/db"
	"ticker-tape/internal/job"
	"ticker-tape/internal/provider"
	"ticker-tape/internal/repository"
	"ticker-tape/internal/service"
	"ticker-tape/pkg/tracing"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initRedisFunc          = cache.InitRedis
	initPostgresFunc       = db.InitPostgres
	initTracerFunc         = tracing.InitTracer
	newPolygonProviderFunc = func(apiKey string, tracer trace.Tracer) service.MarketProvider {
		return provider.NewPolygonProvider(apiKey, tracer)
	}
	newMarketServiceFunc = service.NewMarketService
	newPipelineFunc      = job.NewPipeline
	runPipelineFunc      = func(ctx context.Context, p *job.Pipeline, stages []string) error {
		return p.Run(ctx, stages)
	}
	exitFunc = os.Exit
)

func main() {
	stagesFlag := flag.String("stages", "",
		"comma-separated stages to run ("+strings.Join(job.StageOrder, ",")+"); empty runs all")
	flag.Parse()

	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initRedisFunc(ctx, cfg.RedisURL)
	initPostgresFunc(ctx, cfg.DatabaseURL)

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

	var archive service.BarArchive
	if db.Pool != nil {
		barRepo := repository.NewBarRepository(db.Pool, tracer)
		if err := barRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		archive = barRepo
	}

	market := newMarketServiceFunc(tracer, polygon, store, archive)
	pipeline := newPipelineFunc(tracer, market, cfg.Basket, cfg.AggsFrom, cfg.AggsTo, os.Stdout)

	var stages []string
	if *stagesFlag != "" {
		stages = strings.Split(*stagesFlag, ",")
	}

	if err := runPipelineFunc(ctx, pipeline, stages); err != nil {
		log.Printf("pipeline failed: %v", err)
		exitFunc(1)
	}

	log.Println("Pipeline complete")
}
