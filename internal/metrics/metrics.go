package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clinic-queue.com/clinic-queue/internal/constants"
)

// Metrics is safe to use as a nil pointer; every recorder is then a no-op.
type Metrics struct {
	registry        *prometheus.Registry
	tokensCreated   *prometheus.CounterVec
	advances        *prometheus.CounterVec
	numberConflicts prometheus.Counter
	statusUpdates   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tokensCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic_queue",
			Name:      "tokens_created_total",
			Help:      "Tokens created, by VIP flag.",
		}, []string{"vip"}),
		advances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic_queue",
			Name:      "advances_total",
			Help:      "Advance calls, by outcome.",
		}, []string{"result"}),
		numberConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic_queue",
			Name:      "token_number_conflicts_total",
			Help:      "Token number inserts rejected by the unique index and retried.",
		}),
		statusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic_queue",
			Name:      "status_updates_total",
			Help:      "Explicit status updates, by target status.",
		}, []string{"status"}),
	}

	m.registry.MustRegister(
		m.tokensCreated,
		m.advances,
		m.numberConflicts,
		m.statusUpdates,
		collectors.NewGoCollector(),
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) TokenCreated(vip bool) {
	if m == nil {
		return
	}
	m.tokensCreated.WithLabelValues(strconv.FormatBool(vip)).Inc()
}

func (m *Metrics) Advanced(promoted bool) {
	if m == nil {
		return
	}
	result := "empty"
	if promoted {
		result = "promoted"
	}
	m.advances.WithLabelValues(result).Inc()
}

func (m *Metrics) NumberConflict() {
	if m == nil {
		return
	}
	m.numberConflicts.Inc()
}

func (m *Metrics) StatusUpdated(status constants.TokenStatus) {
	if m == nil {
		return
	}
	m.statusUpdates.WithLabelValues(string(status)).Inc()
}
