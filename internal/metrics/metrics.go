// Package metrics exposes the engine's Prometheus instruments.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/volscan/internal/contracts"
)

// Registry holds all volscan metrics. A nil *Registry is valid and records nothing.
type Registry struct {
	reg *prometheus.Registry

	ChannelRuns    *prometheus.CounterVec
	RunDuration    *prometheus.HistogramVec
	Verdicts       *prometheus.CounterVec
	Merges         *prometheus.CounterVec
	FeedFailures   *prometheus.CounterVec
	Reschedules    *prometheus.CounterVec
	DayCycle       prometheus.Gauge
	ActiveTriggers prometheus.Gauge
	Coverage       *prometheus.GaugeVec
}

// New creates a registry with every metric registered
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		ChannelRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volscan_channel_runs_total",
				Help: "Channel runs by column and result",
			},
			[]string{"column", "result"},
		),

		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "volscan_channel_run_duration_seconds",
				Help:    "Duration of a channel run in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"column"},
		),

		Verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volscan_verdicts_total",
				Help: "Screening verdicts by reason (accepted for passing symbols)",
			},
			[]string{"reason"},
		),

		Merges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volscan_merges_total",
				Help: "Artifact merges by result",
			},
			[]string{"result"},
		),

		FeedFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volscan_feed_failures_total",
				Help: "Feed request failures by endpoint",
			},
			[]string{"endpoint"},
		),

		Reschedules: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volscan_reschedules_total",
				Help: "Trigger set rebuilds by cause",
			},
			[]string{"cause"},
		),

		DayCycle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "volscan_day_cycle",
			Help: "Number of completed daily cycles since start",
		}),

		ActiveTriggers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "volscan_active_triggers",
			Help: "Triggers currently registered (channels plus save)",
		}),

		Coverage: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "volscan_snapshot_coverage_ratio",
				Help: "Share of symbols in the last snapshot carrying each field",
			},
			[]string{"field"},
		),
	}

	r.reg.MustRegister(
		r.ChannelRuns,
		r.RunDuration,
		r.Verdicts,
		r.Merges,
		r.FeedFailures,
		r.Reschedules,
		r.DayCycle,
		r.ActiveTriggers,
		r.Coverage,
	)

	return r
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ObserveRun records one finished channel run
func (r *Registry) ObserveRun(rec *contracts.RunRecord) {
	if r == nil {
		return
	}

	column := strconv.Itoa(rec.Column)
	result := "success"
	if !rec.Success() {
		result = "failure"
	}
	r.ChannelRuns.WithLabelValues(column, result).Inc()
	r.RunDuration.WithLabelValues(column).Observe(rec.FinishedAt.Sub(rec.StartedAt).Seconds())

	if rec.Accepted > 0 {
		r.Verdicts.WithLabelValues("accepted").Add(float64(rec.Accepted))
	}
	for code, n := range rec.Reasons {
		r.Verdicts.WithLabelValues(string(code)).Add(float64(n))
	}
}

// ObserveMerge records a merge outcome
func (r *Registry) ObserveMerge(err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.Merges.WithLabelValues("failure").Inc()
		return
	}
	r.Merges.WithLabelValues("success").Inc()
}

// FeedFailure records a failed feed call
func (r *Registry) FeedFailure(endpoint string) {
	if r == nil {
		return
	}
	r.FeedFailures.WithLabelValues(endpoint).Inc()
}

// Rescheduled records a rebuild and the resulting trigger count
func (r *Registry) Rescheduled(cause string, triggers int) {
	if r == nil {
		return
	}
	r.Reschedules.WithLabelValues(cause).Inc()
	r.ActiveTriggers.Set(float64(triggers))
}

// SetDayCycle publishes the day cycle counter
func (r *Registry) SetDayCycle(cycle int) {
	if r == nil {
		return
	}
	r.DayCycle.Set(float64(cycle))
}

// ObserveCoverage records the field coverage of the last snapshot
func (r *Registry) ObserveCoverage(coverage map[string]float64) {
	if r == nil {
		return
	}
	for field, ratio := range coverage {
		r.Coverage.WithLabelValues(field).Set(ratio)
	}
}
