package tablestore

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	operations *prometheus.CounterVec
	lockWait   *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tablestore_operations_total",
				Help: "Total number of table store operations",
			},
			[]string{"table", "operation", "status"},
		),
		lockWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tablestore_lock_wait_seconds",
				Help:    "Time spent waiting for a table lock",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"table"},
		),
	}
}

func (m *metrics) observe(table, op string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.operations.WithLabelValues(table, op, status).Inc()
}

func (m *metrics) waited(table string, d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.WithLabelValues(table).Observe(d.Seconds())
}
