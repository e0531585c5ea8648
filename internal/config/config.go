package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"ticker-tape/internal/domain"
)

type Config struct {
	PolygonAPIKey string
	DatabaseURL   string
	RedisURL      string

	Basket   []string
	AggsFrom string
	AggsTo   string

	ChartPort   int
	ChartTicker string

	TelegramBotToken string
}

func Load() *Config {
	cfg := &Config{
		PolygonAPIKey:    os.Getenv("POLYGON_API_KEY"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	if cfg.PolygonAPIKey == "" {
		log.Println("Warning: POLYGON_API_KEY not set")
	}
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set, bar archive disabled")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	cfg.Basket = domain.DefaultBasket
	if v := strings.TrimSpace(os.Getenv("TICKER_BASKET")); v != "" {
		var basket []string
		for _, t := range strings.Split(v, ",") {
			t = strings.ToUpper(strings.TrimSpace(t))
			if t != "" {
				basket = append(basket, t)
			}
		}
		if len(basket) > 0 {
			cfg.Basket = basket
		}
	}

	cfg.AggsFrom = "2023-01-01"
	if v := strings.TrimSpace(os.Getenv("AGGS_FROM")); v != "" {
		cfg.AggsFrom = v
	}

	cfg.AggsTo = "2024-02-29"
	if v := strings.TrimSpace(os.Getenv("AGGS_TO")); v != "" {
		cfg.AggsTo = v
	}

	cfg.ChartPort = 8887
	if v := strings.TrimSpace(os.Getenv("CHART_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ChartPort = n
		}
	}

	cfg.ChartTicker = "LMT"
	if v := strings.TrimSpace(os.Getenv("CHART_TICKER")); v != "" {
		cfg.ChartTicker = strings.ToUpper(v)
	}

	return cfg
}
