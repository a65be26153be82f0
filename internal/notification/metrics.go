package notification

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus series for admin notification delivery.
// A nil *Metrics records nothing.
type Metrics struct {
	AttemptsTotal      *prometheus.CounterVec   // Per transport tier and outcome
	AttemptDuration    *prometheus.HistogramVec // Per transport tier
	NotificationsTotal *prometheus.CounterVec   // Per overall result
}

// NewMetrics creates the delivery metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		AttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admin_notification_attempts_total",
				Help: "Delivery attempts by transport tier and outcome",
			},
			[]string{"transport", "outcome"}, // outcome: success, error, timeout
		),
		AttemptDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "admin_notification_attempt_duration_seconds",
				Help:    "Time taken by a single delivery attempt",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"transport"},
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admin_notifications_total",
				Help: "Dispatched notifications by result",
			},
			[]string{"result"}, // result: delivered, partial, failed, skipped
		),
	}

	for _, c := range []prometheus.Collector{m.AttemptsTotal, m.AttemptDuration, m.NotificationsTotal} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register notification metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) observeAttempt(transport, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.AttemptsTotal.WithLabelValues(transport, outcome).Inc()
	m.AttemptDuration.WithLabelValues(transport).Observe(d.Seconds())
}

func (m *Metrics) observeNotification(result string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(result).Inc()
}
