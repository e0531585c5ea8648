package handler

import (
	"context"

	"ticker-tape/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// SeriesSource reads the cached bar series the feed republishes.
type SeriesSource interface {
	LoadBars(ctx context.Context, ticker string) ([]domain.Bar, error)
}

type Handler struct {
	tracer      trace.Tracer
	series      SeriesSource
	chartTicker string
}

func New(tracer trace.Tracer, series SeriesSource, chartTicker string) *Handler {
	return &Handler{
		tracer:      tracer,
		series:      series,
		chartTicker: chartTicker,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/data", h.Data)
	// Undefined paths fall through to the chart page rather than a 404;
	// the browser entry point is any path, matching the existing contract.
	r.NoRoute(h.Chart)
}
