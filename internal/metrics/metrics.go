// Package metrics owns the Prometheus collectors of the ledger processes.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultHit   = "hit"
	ResultMiss  = "miss"
)

// Metrics holds the collectors in a private registry so tests can build as
// many instances as they like.
type Metrics struct {
	Registry *prometheus.Registry

	ledgerOps           *prometheus.CounterVec
	persistenceFailures *prometheus.CounterVec
	eventsPublished     *prometheus.CounterVec
	reportCache         *prometheus.CounterVec
	exports             *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		ledgerOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finapp_ledger_operations_total",
				Help: "Ledger mutations applied, by operation.",
			},
			[]string{"operation"},
		),
		persistenceFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finapp_persistence_failures_total",
				Help: "Store writes that failed after the in-memory ledger changed.",
			},
			[]string{"operation"},
		),
		eventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finapp_events_published_total",
				Help: "Ledger events published, by result.",
			},
			[]string{"result"},
		),
		reportCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finapp_report_cache_total",
				Help: "Report cache lookups, by result.",
			},
			[]string{"result"},
		),
		exports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finapp_exports_total",
				Help: "Transactions exported to the spreadsheet, by result.",
			},
			[]string{"result"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finapp_http_request_duration_seconds",
				Help:    "HTTP request duration by route and status.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) IncLedgerOp(op string) {
	m.ledgerOps.WithLabelValues(op).Inc()
}

func (m *Metrics) IncPersistenceFailure(op string) {
	m.persistenceFailures.WithLabelValues(op).Inc()
}

func (m *Metrics) IncEventPublished(ok bool) {
	m.eventsPublished.WithLabelValues(result(ok)).Inc()
}

func (m *Metrics) IncReportCache(hit bool) {
	if hit {
		m.reportCache.WithLabelValues(ResultHit).Inc()
		return
	}
	m.reportCache.WithLabelValues(ResultMiss).Inc()
}

func (m *Metrics) IncExport(ok bool) {
	m.exports.WithLabelValues(result(ok)).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// LedgerOps returns the current counter value for op.
func (m *Metrics) LedgerOps(op string) float64 {
	return counterValue(m.ledgerOps, op)
}

func (m *Metrics) PersistenceFailures(op string) float64 {
	return counterValue(m.persistenceFailures, op)
}

func (m *Metrics) EventsPublished(ok bool) float64 {
	return counterValue(m.eventsPublished, result(ok))
}

func (m *Metrics) ReportCache(hit bool) float64 {
	if hit {
		return counterValue(m.reportCache, ResultHit)
	}
	return counterValue(m.reportCache, ResultMiss)
}

func (m *Metrics) Exports(ok bool) float64 {
	return counterValue(m.exports, result(ok))
}

func result(ok bool) string {
	if ok {
		return ResultOK
	}
	return ResultError
}

func counterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
