package job

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"ticker-tape/internal/analytics"
	"ticker-tape/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const (
	newsFetchLimit      = 1000
	newsPrintLimit      = 20
	conditionFetchLimit = 1000
)

// StageOrder is the default run order. Fetch stages populate the cache;
// view stages read it back.
var StageOrder = []string{
	"aggregates", "snapshots", "gainers", "losers", "exchanges",
	"conditions", "news", "correlation", "report",
}

// MarketData is the service surface the pipeline drives.
type MarketData interface {
	CacheAggregates(ctx context.Context, ticker, from, to string) (int, error)
	CacheSnapshots(ctx context.Context, tickers []string) (int, error)
	CacheGainers(ctx context.Context) (int, error)
	CacheLosers(ctx context.Context) (int, error)
	CacheExchanges(ctx context.Context) (int, error)
	LoadBars(ctx context.Context, ticker string) ([]domain.Bar, error)
	LoadSnapshots(ctx context.Context) ([]domain.Snapshot, error)
	TickerNews(ctx context.Context, ticker string, limit int) ([]domain.NewsArticle, error)
	Conditions(ctx context.Context, limit int) ([]domain.Condition, error)
}

// Pipeline runs the fetch and view stages strictly in sequence. Any stage
// failure aborts the run; there is no partial-success mode.
type Pipeline struct {
	tracer trace.Tracer
	market MarketData
	basket []string
	from   string
	to     string
	out    io.Writer
}

func NewPipeline(tracer trace.Tracer, market MarketData, basket []string, from, to string, out io.Writer) *Pipeline {
	return &Pipeline{
		tracer: tracer,
		market: market,
		basket: basket,
		from:   from,
		to:     to,
		out:    out,
	}
}

// Run executes the named stages in StageOrder. An empty selection runs
// everything.
func (p *Pipeline) Run(ctx context.Context, stages []string) error {
	ctx, span := p.tracer.Start(ctx, "pipeline.run")
	defer span.End()

	selected := make(map[string]bool, len(stages))
	for _, name := range stages {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !p.knownStage(name) {
			return fmt.Errorf("unknown stage: %s", name)
		}
		selected[name] = true
	}

	for _, name := range StageOrder {
		if len(selected) > 0 && !selected[name] {
			continue
		}
		log.Printf("Stage %s starting", name)
		if err := p.runStage(ctx, name); err != nil {
			return fmt.Errorf("stage %s: %w", name, err)
		}
		log.Printf("Stage %s done", name)
	}
	return nil
}

func (p *Pipeline) knownStage(name string) bool {
	for _, s := range StageOrder {
		if s == name {
			return true
		}
	}
	return false
}

func (p *Pipeline) runStage(ctx context.Context, name string) error {
	switch name {
	case "aggregates":
		return p.runAggregates(ctx)
	case "snapshots":
		_, err := p.market.CacheSnapshots(ctx, p.basket)
		return err
	case "gainers":
		_, err := p.market.CacheGainers(ctx)
		return err
	case "losers":
		_, err := p.market.CacheLosers(ctx)
		return err
	case "exchanges":
		_, err := p.market.CacheExchanges(ctx)
		return err
	case "conditions":
		return p.runConditions(ctx)
	case "news":
		return p.runNews(ctx)
	case "correlation":
		return p.runCorrelation(ctx)
	case "report":
		return p.runReport(ctx)
	}
	return fmt.Errorf("unknown stage: %s", name)
}

func (p *Pipeline) runAggregates(ctx context.Context) error {
	for _, ticker := range p.basket {
		if _, err := p.market.CacheAggregates(ctx, ticker, p.from, p.to); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) runConditions(ctx context.Context) error {
	conditions, err := p.market.Conditions(ctx, conditionFetchLimit)
	if err != nil {
		return err
	}
	fmt.Fprintf(p.out, "%d conditions\n", len(conditions))
	for _, c := range conditions {
		fmt.Fprintf(p.out, "%-6d%-12s%s\n", c.ID, c.Type, c.Name)
	}
	return nil
}

func (p *Pipeline) runNews(ctx context.Context) error {
	// The ticker basket's lead name doubles as the news subject.
	articles, err := p.market.TickerNews(ctx, p.basket[0], newsFetchLimit)
	if err != nil {
		return err
	}
	for i, a := range articles {
		if i >= newsPrintLimit {
			break
		}
		fmt.Fprintf(p.out, "%-25s%s\n", a.PublishedUTC, a.Title)
	}
	return nil
}

func (p *Pipeline) runCorrelation(ctx context.Context) error {
	series := make(map[string][]domain.Bar, len(p.basket))
	for _, ticker := range p.basket {
		bars, err := p.market.LoadBars(ctx, ticker)
		if err != nil {
			return err
		}
		series[ticker] = bars
	}

	_, cols, err := analytics.AlignCloses(p.basket, series)
	if err != nil {
		return err
	}
	returns, err := analytics.DailyReturns(cols)
	if err != nil {
		return err
	}
	matrix, err := analytics.CorrelationMatrix(returns)
	if err != nil {
		return err
	}

	fmt.Fprintln(p.out, analytics.FormatMatrix(p.basket, matrix))
	fmt.Fprintln(p.out, analytics.RenderHeatmap(p.basket, matrix))
	return nil
}

func (p *Pipeline) runReport(ctx context.Context) error {
	snapshots, err := p.market.LoadSnapshots(ctx)
	if err != nil {
		return err
	}
	rows := analytics.PercentChange(snapshots)
	fmt.Fprint(p.out, analytics.FormatPercentChange(rows))
	return nil
}
