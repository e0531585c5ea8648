package handler

import (
	"net/http"

	"ticker-tape/internal/analytics"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const chartPage = `<!DOCTYPE HTML>
<html>
<head>

<style>
#container {
    height: 750px;
    min-width: 310px;
}
</style>

<script src="https://code.highcharts.com/stock/highstock.js"></script>
<script src="https://code.highcharts.com/stock/modules/data.js"></script>
<script src="https://code.highcharts.com/stock/modules/exporting.js"></script>
<script src="https://code.highcharts.com/stock/modules/accessibility.js"></script>

<div id="container"></div>

<script type="text/javascript">
Highcharts.getJSON('/data', function (data) {
    Highcharts.stockChart('container', {
        rangeSelector: {
            selected: 1
        },

        title: {
            text: 'Stock Price'
        },

        series: [{
            type: 'candlestick',
            name: 'Stock Price',
            data: data
        }]
    });
});
</script>
</head>
<body>
</body>
</html>
`

// Data godoc
// @Summary      Candlestick series feed
// @Description  Returns the cached daily bar series as an array of [date, open, high, low, close, volume, vwap, transactions] tuples
// @Tags         chart
// @Produce      json
// @Success      200  {array}  []interface{}
// @Failure      500  {object}  map[string]string
// @Router       /data [get]
func (h *Handler) Data(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.data")
	defer span.End()

	span.SetAttributes(attribute.String("ticker", h.chartTicker))

	bars, err := h.series.LoadBars(ctx, h.chartTicker)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, analytics.FeedTuples(bars))
}

// Chart godoc
// @Summary      Candlestick chart page
// @Description  Serves the Highcharts Stock page that fetches /data and renders the candlestick chart
// @Tags         chart
// @Produce      html
// @Success      200  {string}  string
// @Router       / [get]
func (h *Handler) Chart(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.chart")
	defer span.End()

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(chartPage))
}
