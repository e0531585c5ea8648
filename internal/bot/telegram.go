package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"ticker-tape/internal/analytics"
	"ticker-tape/internal/domain"

	tele "gopkg.in/telebot.v3"
)

// SnapshotSource reads the cached snapshot documents the bot republishes.
type SnapshotSource interface {
	LoadSnapshots(ctx context.Context) ([]domain.Snapshot, error)
	LoadGainers(ctx context.Context) ([]domain.Snapshot, error)
	LoadLosers(ctx context.Context) ([]domain.Snapshot, error)
}

// StartTelegramBot serves the cached market views over Telegram. An empty
// token disables the bot.
func StartTelegramBot(token string, market SnapshotSource) {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/recap", func(c tele.Context) error {
		snapshots, err := market.LoadSnapshots(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error loading snapshots: %v", err))
		}
		rows := analytics.PercentChange(snapshots)
		if len(rows) == 0 {
			return c.Send("No snapshot data cached yet. Run the pipeline first.")
		}
		var sb strings.Builder
		sb.WriteString("Previous day recap\n")
		for _, row := range rows {
			sb.WriteString(fmt.Sprintf("%s: %.2f -> %.2f (%.2f%%)\n",
				row.Ticker, row.Open, row.Close, row.PercentChange))
		}
		return c.Send(sb.String())
	})

	b.Handle("/movers", func(c tele.Context) error {
		gainers, err := market.LoadGainers(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error loading gainers: %v", err))
		}
		losers, err := market.LoadLosers(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error loading losers: %v", err))
		}
		var sb strings.Builder
		sb.WriteString("Top gainers\n")
		for i, snap := range gainers {
			if i >= 5 {
				break
			}
			sb.WriteString(fmt.Sprintf("%s: %+.2f%%\n", snap.Ticker, snap.TodaysChangePercent))
		}
		sb.WriteString("\nTop losers\n")
		for i, snap := range losers {
			if i >= 5 {
				break
			}
			sb.WriteString(fmt.Sprintf("%s: %+.2f%%\n", snap.Ticker, snap.TodaysChangePercent))
		}
		return c.Send(sb.String())
	})

	log.Println("Telegram bot started")
	go b.Start()
}
