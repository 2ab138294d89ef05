// Package jobmetrics holds the Prometheus collectors shared by background
// job handlers.
package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the job collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	lowStock    prometheus.Gauge
	keysPurged  prometheus.Counter
	now         func() time.Time
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the collectors on reg. A nil reg uses the default
// registerer, registering only once per process.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg != nil {
		return build(reg)
	}
	defaultOnce.Do(func() { defaultMetrics = build(prometheus.DefaultRegisterer) })
	return defaultMetrics
}

func build(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "primavera_jobs_total",
			Help: "Job executions by task type and outcome.",
		}, []string{"job", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "primavera_job_duration_seconds",
			Help:    "Job execution time.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"job"}),
		lastSuccess: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "primavera_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run per task type.",
		}, []string{"job"}),
		lowStock: factory.NewGauge(prometheus.GaugeOpts{
			Name: "primavera_inventory_low_stock_items",
			Help: "Catalog items at or below the low-stock threshold in the latest scan.",
		}),
		keysPurged: factory.NewCounter(prometheus.CounterOpts{
			Name: "primavera_idempotency_keys_purged_total",
			Help: "Idempotency keys removed by the cleanup job.",
		}),
		now: time.Now,
	}
}

// Run times one execution of job.
type Run struct {
	m     *Metrics
	job   string
	start time.Time
}

// Track starts timing a run of job.
func (m *Metrics) Track(job string) *Run {
	if m == nil {
		return &Run{job: job}
	}
	return &Run{m: m, job: job, start: m.now()}
}

// End records the outcome and passes err through unchanged.
func (r *Run) End(err error) error {
	if r == nil || r.m == nil || r.job == "" {
		return err
	}
	now := r.m.now()
	r.m.duration.WithLabelValues(r.job).Observe(now.Sub(r.start).Seconds())
	if err != nil {
		r.m.runs.WithLabelValues(r.job, "failure").Inc()
		return err
	}
	r.m.runs.WithLabelValues(r.job, "success").Inc()
	r.m.lastSuccess.WithLabelValues(r.job).Set(float64(now.Unix()))
	return nil
}

// SetLowStock publishes the item count found by the latest low-stock scan.
func (m *Metrics) SetLowStock(count int) {
	if m != nil {
		m.lowStock.Set(float64(count))
	}
}

// AddPurged counts idempotency keys removed by a cleanup run.
func (m *Metrics) AddPurged(n int64) {
	if m != nil && n > 0 {
		m.keysPurged.Add(float64(n))
	}
}
