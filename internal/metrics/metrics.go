// Package metrics holds the Prometheus collectors for backtest runs and the
// API that serves them.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentbacktest_runs_total",
		Help: "Backtest runs by outcome",
	}, []string{"outcome"})

	DaysProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentbacktest_days_processed_total",
		Help: "Trading days simulated",
	})

	// DaysSkipped counts days dropped because a close was missing
	DaysSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentbacktest_days_skipped_total",
		Help: "Trading days skipped for missing prices",
	})

	TradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentbacktest_trades_total",
		Help: "Executed trades by action",
	}, []string{"action"})

	SharesExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentbacktest_shares_executed_total",
		Help: "Executed share volume by action",
	}, []string{"action"})

	DecisionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentbacktest_decision_failures_total",
		Help: "Decision provider errors treated as hold",
	})

	PriceLoadFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentbacktest_price_load_failures_total",
		Help: "Symbols whose price history failed to load",
	})

	PortfolioValue = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agentbacktest_portfolio_value",
		Help: "Portfolio value at the last simulated day",
	})

	MarginUsed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agentbacktest_margin_used",
		Help: "Margin posted at the last simulated day",
	})

	DayLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "agentbacktest_day_latency_seconds",
		Help:    "Wall time to simulate one trading day, decision call included",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentbacktest_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agentbacktest_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 5.0, 30.0},
	}, []string{"method", "path"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}

// GinMiddleware records request count and latency keyed by route pattern
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
