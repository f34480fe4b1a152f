package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"solicitudes/internal/requests/models"
)

// Metrics provides observability for the requests module.
// Tracks lifecycle counts and use case durations.
type Metrics struct {
	Created             prometheus.Counter
	StatusTransitions   *prometheus.CounterVec
	Deleted             *prometheus.CounterVec
	RejectedTransitions prometheus.Counter
	UseCaseDuration     *prometheus.HistogramVec
}

// New registers the requests metrics on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Created: f.NewCounter(prometheus.CounterOpts{
			Name: "solicitudes_created_total",
			Help: "Total number of requests created",
		}),
		StatusTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "solicitudes_status_transitions_total",
			Help: "Status changes applied, by source and target status",
		}, []string{"from", "to", "forced"}),
		Deleted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "solicitudes_deleted_total",
			Help: "Total number of requests deleted",
		}, []string{"forced"}),
		RejectedTransitions: f.NewCounter(prometheus.CounterOpts{
			Name: "solicitudes_rejected_transitions_total",
			Help: "Status changes refused by the transition table",
		}),
		UseCaseDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "solicitudes_use_case_duration_seconds",
			Help:    "Duration of request use cases",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"use_case"}),
	}
}

func (m *Metrics) IncrementCreated() {
	m.Created.Inc()
}

func (m *Metrics) IncrementTransition(from, to models.Status, forced bool) {
	m.StatusTransitions.WithLabelValues(string(from), string(to), strconv.FormatBool(forced)).Inc()
}

func (m *Metrics) IncrementDeleted(forced bool) {
	m.Deleted.WithLabelValues(strconv.FormatBool(forced)).Inc()
}

func (m *Metrics) IncrementRejectedTransition() {
	m.RejectedTransitions.Inc()
}

// ObserveUseCase records the duration of a use case.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveUseCase(useCase string, start time.Time) {
	m.UseCaseDuration.WithLabelValues(useCase).Observe(time.Since(start).Seconds())
}
