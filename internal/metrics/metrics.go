// Package metrics exposes Prometheus instrumentation and the health endpoint
// for the signal server and the overlay agent.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. Methods are nil-safe so components
// can run without instrumentation.
type Metrics struct {
	reg prometheus.Gatherer

	// Decision engine
	SignalsTotal   *prometheus.CounterVec // labels: status
	SellsTotal     *prometheus.CounterVec // labels: reason_kind
	Balance        prometheus.Gauge
	OpenPositions  prometheus.Gauge
	RealizedPnL    prometheus.Counter
	RealizedLosses prometheus.Counter
	DailyPnL       prometheus.Gauge
	DailyBreached  prometheus.Gauge // 0/1

	// News / risk guard
	NewsFetchErrors    prometheus.Counter
	NewsCacheHits      *prometheus.CounterVec // labels: layer=memory|redis
	NewsBreakerState   prometheus.Gauge       // 0=closed, 1=open, 2=half-open
	RiskVerdicts       *prometheus.CounterVec // labels: verdict=allow|block|degraded

	// Overlay agent
	SamplesTotal     prometheus.Counter
	SamplesDeduped   prometheus.Counter
	SamplesStale     prometheus.Counter
	AlertsFired      prometheus.Counter
	FanoutDropsTotal *prometheus.CounterVec // labels: subscriber
	LastRSI          *prometheus.GaugeVec   // labels: symbol

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec   // labels: method, path, status
	HTTPRequestDuration *prometheus.HistogramVec // labels: method, path
	WSClients           prometheus.Gauge
}

// NewMetrics creates all metrics and registers them on reg. Passing a fresh
// prometheus.NewRegistry() keeps tests independent of the global registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		reg: reg,
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dreamtrade_signals_total",
			Help: "Trade signals handled, by decision status",
		}, []string{"status"}),
		SellsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dreamtrade_sells_total",
			Help: "Positions sold, by trigger",
		}, []string{"trigger"}),
		Balance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dreamtrade_balance",
			Help: "Virtual account cash balance",
		}),
		OpenPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dreamtrade_open_positions",
			Help: "Number of open positions",
		}),
		RealizedPnL: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dreamtrade_realized_profit_total",
			Help: "Cumulative realized profit from winning sells",
		}),
		RealizedLosses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dreamtrade_realized_loss_total",
			Help: "Cumulative realized loss (absolute) from losing sells",
		}),
		DailyPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dreamtrade_daily_pnl",
			Help: "Realized P&L for the current trading day",
		}),
		DailyBreached: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dreamtrade_daily_limit_breached",
			Help: "1 when the daily loss limit is hit",
		}),

		NewsFetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dreamtrade_news_fetch_errors_total",
			Help: "Failed upstream headline fetches",
		}),
		NewsCacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dreamtrade_news_cache_hits_total",
			Help: "Headline report cache hits",
		}, []string{"layer"}),
		NewsBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dreamtrade_news_circuit_breaker_state",
			Help: "News upstream circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RiskVerdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dreamtrade_risk_verdicts_total",
			Help: "Risk guard verdicts",
		}, []string{"verdict"}),

		SamplesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dreamtrade_samples_total",
			Help: "Price samples published by the sampler",
		}),
		SamplesDeduped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dreamtrade_samples_deduped_total",
			Help: "Samples skipped as identical to the previous one",
		}),
		SamplesStale: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dreamtrade_samples_stale_total",
			Help: "Samples discarded because sampling was toggled mid-fetch",
		}),
		AlertsFired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dreamtrade_alerts_fired_total",
			Help: "Price alerts fired",
		}),
		FanoutDropsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dreamtrade_fanout_drops_total",
			Help: "Samples dropped for a slow subscriber",
		}, []string{"subscriber"}),
		LastRSI: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dreamtrade_rsi",
			Help: "Latest RSI per symbol",
		}, []string{"symbol"}),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dreamtrade_http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dreamtrade_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"method", "path"}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dreamtrade_ws_clients",
			Help: "Connected event stream clients",
		}),
	}

	reg.MustRegister(
		m.SignalsTotal,
		m.SellsTotal,
		m.Balance,
		m.OpenPositions,
		m.RealizedPnL,
		m.RealizedLosses,
		m.DailyPnL,
		m.DailyBreached,
		m.NewsFetchErrors,
		m.NewsCacheHits,
		m.NewsBreakerState,
		m.RiskVerdicts,
		m.SamplesTotal,
		m.SamplesDeduped,
		m.SamplesStale,
		m.AlertsFired,
		m.FanoutDropsTotal,
		m.LastRSI,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.WSClients,
	)

	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveSignal(status string) {
	if m == nil {
		return
	}
	m.SignalsTotal.WithLabelValues(status).Inc()
}

// ObserveSell records a realized sale.
func (m *Metrics) ObserveSell(trigger string, profit float64) {
	if m == nil {
		return
	}
	m.SellsTotal.WithLabelValues(trigger).Inc()
	if profit > 0 {
		m.RealizedPnL.Add(profit)
	} else if profit < 0 {
		m.RealizedLosses.Add(-profit)
	}
}

// ObserveAccount updates the account gauges.
func (m *Metrics) ObserveAccount(balance float64, openPositions int) {
	if m == nil {
		return
	}
	m.Balance.Set(balance)
	m.OpenPositions.Set(float64(openPositions))
}

// ObserveDaily updates the daily breaker gauges.
func (m *Metrics) ObserveDaily(pnl float64, breached bool) {
	if m == nil {
		return
	}
	m.DailyPnL.Set(pnl)
	if breached {
		m.DailyBreached.Set(1)
	} else {
		m.DailyBreached.Set(0)
	}
}

func (m *Metrics) ObserveRiskVerdict(verdict string) {
	if m == nil {
		return
	}
	m.RiskVerdicts.WithLabelValues(verdict).Inc()
}

func (m *Metrics) ObserveNewsError() {
	if m == nil {
		return
	}
	m.NewsFetchErrors.Inc()
}

func (m *Metrics) ObserveNewsCacheHit(layer string) {
	if m == nil {
		return
	}
	m.NewsCacheHits.WithLabelValues(layer).Inc()
}

func (m *Metrics) SetNewsBreakerState(state int) {
	if m == nil {
		return
	}
	m.NewsBreakerState.Set(float64(state))
}

func (m *Metrics) ObserveFanoutDrop(subscriber int) {
	if m == nil {
		return
	}
	m.FanoutDropsTotal.WithLabelValues(strconv.Itoa(subscriber)).Inc()
}

func (m *Metrics) SetWSClients(n int) {
	if m == nil {
		return
	}
	m.WSClients.Set(float64(n))
}

func (m *Metrics) ObserveSample() {
	if m == nil {
		return
	}
	m.SamplesTotal.Inc()
}

// ObserveSamplerSkips adds the deduplicated and stale counts accumulated
// since the previous call.
func (m *Metrics) ObserveSamplerSkips(deduped, stale uint64) {
	if m == nil {
		return
	}
	m.SamplesDeduped.Add(float64(deduped))
	m.SamplesStale.Add(float64(stale))
}

func (m *Metrics) ObserveAlert() {
	if m == nil {
		return
	}
	m.AlertsFired.Inc()
}

func (m *Metrics) SetRSI(symbol string, rsi float64) {
	if m == nil {
		return
	}
	m.LastRSI.WithLabelValues(symbol).Set(rsi)
}

// Middleware records request count and latency. The chi route pattern is
// used as the path label to bound cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				path = p
			}
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer
// (websocket upgrades need the Hijacker).
func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
