package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks observation throughput, field confirmations, live sessions
// and committed records.
type Metrics struct {
	ObservationsProcessed prometheus.Counter
	ObservationDuration   prometheus.Histogram
	FieldsConfirmed       *prometheus.CounterVec
	ActiveSessions        prometheus.Gauge
	SessionsExpired       prometheus.Counter
	RecordsCommitted      prometheus.Counter
}

// New registers all metrics with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ObservationsProcessed: f.NewCounter(prometheus.CounterOpts{
			Name: "idocr_observations_processed_total",
			Help: "Total number of OCR text observations processed",
		}),
		ObservationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "idocr_observation_duration_seconds",
			Help:    "Duration of a single observation pass over all fields",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		FieldsConfirmed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idocr_fields_confirmed_total",
			Help: "Total number of fields that became confident, by field",
		}, []string{"field"}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "idocr_active_sessions",
			Help: "Number of open document sessions",
		}),
		SessionsExpired: f.NewCounter(prometheus.CounterOpts{
			Name: "idocr_sessions_expired_total",
			Help: "Total number of sessions removed by the idle sweeper",
		}),
		RecordsCommitted: f.NewCounter(prometheus.CounterOpts{
			Name: "idocr_records_committed_total",
			Help: "Total number of identity records persisted",
		}),
	}
}

// ObserveObservation records one processed observation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveObservation(start time.Time) {
	m.ObservationsProcessed.Inc()
	m.ObservationDuration.Observe(time.Since(start).Seconds())
}

// IncrementFieldConfirmed records that field became confident.
func (m *Metrics) IncrementFieldConfirmed(field string) {
	m.FieldsConfirmed.WithLabelValues(field).Inc()
}

// SetActiveSessions sets the open session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.ActiveSessions.Set(float64(n))
}

// AddSessionsExpired records n sessions removed for idleness.
func (m *Metrics) AddSessionsExpired(n int) {
	m.SessionsExpired.Add(float64(n))
}

// IncrementRecordsCommitted records a persisted record.
func (m *Metrics) IncrementRecordsCommitted() {
	m.RecordsCommitted.Inc()
}
