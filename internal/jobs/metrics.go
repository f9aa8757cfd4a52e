// Package jobmetrics instruments asynq handlers.
package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusFailure = "failure"
)

// Metrics holds the job collectors.
type Metrics struct {
	runs        *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	overdue     prometheus.Counter
	now         func() time.Time
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers collectors on registerer, or returns a process-wide
// instance bound to the default registerer when it is nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = register(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return register(registerer)
}

// Tracker times one job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track starts timing job. It is safe on a nil receiver.
func (m *Metrics) Track(job string) *Tracker {
	t := &Tracker{job: job, start: time.Now()}
	if m != nil {
		t.metrics = m
		t.start = m.now()
	}
	return t
}

// End records the outcome of the run and passes err through.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	m := t.metrics
	finished := m.now()
	status := statusSuccess
	if err != nil {
		status = statusFailure
		m.failures.WithLabelValues(t.job).Inc()
	} else {
		m.lastSuccess.WithLabelValues(t.job).Set(float64(finished.Unix()))
	}
	m.runs.WithLabelValues(t.job, status).Inc()
	m.duration.WithLabelValues(t.job).Observe(finished.Sub(t.start).Seconds())
	return err
}

// AddOverdue counts dues moved to OVERDUE by the sweep.
func (m *Metrics) AddOverdue(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.overdue.Add(float64(count))
}

func register(registerer prometheus.Registerer) *Metrics {
	f := promauto.With(registerer)
	return &Metrics{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hoa_jobs_total",
			Help: "Job executions by job name and status.",
		}, []string{"job", "status"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hoa_jobs_failures_total",
			Help: "Failed job executions.",
		}, []string{"job"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hoa_job_duration_seconds",
			Help:    "Job execution time.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"job"}),
		lastSuccess: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hoa_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run per job.",
		}, []string{"job"}),
		overdue: f.NewCounter(prometheus.CounterOpts{
			Name: "hoa_dues_marked_overdue_total",
			Help: "Dues transitioned to OVERDUE by the sweep.",
		}),
		now: time.Now,
	}
}
