package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the acquisition pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Probes            *prometheus.CounterVec
	SearchOutcomes    *prometheus.CounterVec
	Transitions       *prometheus.CounterVec
	RegistrarDuration *prometheus.HistogramVec
	BulkForwards      *prometheus.CounterVec
}

// New registers all metrics with reg. Tests pass prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Probes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "domainacq_probes_total",
			Help: "Availability probes by result (available, taken, failed)",
		}, []string{"result"}),
		SearchOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "domainacq_search_outcomes_total",
			Help: "Completed variant searches by outcome",
		}, []string{"outcome"}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "domainacq_status_transitions_total",
			Help: "Imported-domain status transitions by target status",
		}, []string{"to"}),
		RegistrarDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "domainacq_registrar_request_duration_seconds",
			Help:    "Duration of registrar API commands",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"command", "result"}),
		BulkForwards: f.NewCounterVec(prometheus.CounterOpts{
			Name: "domainacq_bulk_email_forwards_total",
			Help: "Per-domain results of bulk email forwarding",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncProbe(result string) {
	if m == nil {
		return
	}
	m.Probes.WithLabelValues(result).Inc()
}

func (m *Metrics) IncSearchOutcome(outcome string) {
	if m == nil {
		return
	}
	m.SearchOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncTransition(to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(to).Inc()
}

// ObserveRegistrar records the duration of a registrar command.
// Call with time.Now() at the start of the command.
func (m *Metrics) ObserveRegistrar(command string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.RegistrarDuration.WithLabelValues(command, result).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncBulkForward(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.BulkForwards.WithLabelValues(result).Inc()
}
