package metrics

import (
	"net/http"
	"time"

	"barangayhealth/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for sweeps and notifications. A nil *Metrics is a no-op.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	sweepDuration  prometheus.Histogram
	sweepRuns      *prometheus.CounterVec
	alerts         *prometheus.CounterVec
	suppressed     *prometheus.CounterVec
	archived       *prometheus.CounterVec
	archiveFailed  *prometheus.CounterVec
	pushDelivered  prometheus.Counter
	pushFailed     prometheus.Counter
	lastSweepStamp prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stock_sweep_duration_seconds",
			Help:    "Duration of inventory stock sweeps",
			Buckets: prometheus.DefBuckets,
		}),
		sweepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_sweep_runs_total",
			Help: "Inventory stock sweeps by outcome",
		}, []string{"outcome"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_alerts_total",
			Help: "Stock alerts notified by category and kind",
		}, []string{"category", "kind"}),
		suppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_alerts_suppressed_total",
			Help: "Stock alerts skipped because a suppression mark exists",
		}, []string{"category", "kind"}),
		archived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_items_archived_total",
			Help: "Expired stock rows archived by the sweep",
		}, []string{"category"}),
		archiveFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_archive_failures_total",
			Help: "Expired stock rows whose archive transaction failed",
		}, []string{"category"}),
		pushDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "push_messages_delivered_total",
			Help: "Push messages accepted by the gateway",
		}),
		pushFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "push_messages_failed_total",
			Help: "Push messages rejected or not sent",
		}),
		lastSweepStamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stock_sweep_last_success_timestamp_seconds",
			Help: "Unix time of the last completed sweep",
		}),
	}

	registry.MustRegister(m.sweepDuration, m.sweepRuns, m.alerts, m.suppressed, m.archived,
		m.archiveFailed, m.pushDelivered, m.pushFailed, m.lastSweepStamp)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Metrics) ObserveAlert(category models.Category, kind models.AlertKind, suppressed bool) {
	if m == nil {
		return
	}
	if suppressed {
		m.suppressed.WithLabelValues(string(category), string(kind)).Inc()
		return
	}
	m.alerts.WithLabelValues(string(category), string(kind)).Inc()
}

func (m *Metrics) ObserveArchive(category models.Category, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.archiveFailed.WithLabelValues(string(category)).Inc()
		return
	}
	m.archived.WithLabelValues(string(category)).Inc()
}

func (m *Metrics) ObservePush(delivered, failed int) {
	if m == nil {
		return
	}
	m.pushDelivered.Add(float64(delivered))
	m.pushFailed.Add(float64(failed))
}

func (m *Metrics) ObserveSweep(summary *models.SweepSummary) {
	if m == nil || summary == nil {
		return
	}
	m.sweepDuration.Observe(summary.Duration().Seconds())
	outcome := "ok"
	if len(summary.Totals().Errors) > 0 {
		outcome = "partial"
	}
	m.sweepRuns.WithLabelValues(outcome).Inc()
	m.lastSweepStamp.Set(float64(summary.FinishedAt.Unix()))
}

// ObserveSweepFailure is used when a run aborts before producing a summary.
func (m *Metrics) ObserveSweepFailure(d time.Duration) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(d.Seconds())
	m.sweepRuns.WithLabelValues("failed").Inc()
}
