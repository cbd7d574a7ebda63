// Package metrics exposes Prometheus instrumentation for classification and
// registry operations. All methods are safe to call on a nil *Metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors registered for the service.
type Metrics struct {
	// Onboarding attempts by classification type and whether they were retries
	Onboardings *prometheus.CounterVec

	// Classification outcomes by type and resulting status
	Outcomes *prometheus.CounterVec

	// Amounts handed to the transfer rail by type and recipient kind
	Disbursed *prometheus.CounterVec

	// Registry mutations by operation
	RegistryMutations *prometheus.CounterVec

	// Operation latency including the surrounding transaction
	OperationLatency *prometheus.HistogramVec
}

// New registers all collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Onboardings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attest_onboardings_total",
			Help: "Total classification onboardings by type and retry flag",
		}, []string{"type_name", "retry"}),

		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attest_classification_outcomes_total",
			Help: "Total classification status transitions by type and status",
		}, []string{"type_name", "status"}),

		Disbursed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attest_disbursed_amount_total",
			Help: "Total amount handed to the transfer rail by type and recipient kind",
		}, []string{"type_name", "recipient"}), // recipient: "verifier", "fee"

		RegistryMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attest_registry_mutations_total",
			Help: "Total definition registry mutations by operation",
		}, []string{"operation"}),

		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "attest_operation_duration_seconds",
			Help:    "Duration of engine operations including their transaction",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

// IncrementOnboarding records an onboarding.
func (m *Metrics) IncrementOnboarding(typeName string, retry bool) {
	if m != nil {
		m.Onboardings.WithLabelValues(typeName, strconv.FormatBool(retry)).Inc()
	}
}

// IncrementOutcome records a status transition.
func (m *Metrics) IncrementOutcome(typeName, status string) {
	if m != nil {
		m.Outcomes.WithLabelValues(typeName, status).Inc()
	}
}

// AddDisbursed records an amount sent to a recipient kind.
func (m *Metrics) AddDisbursed(typeName, recipient string, amount uint64) {
	if m != nil {
		m.Disbursed.WithLabelValues(typeName, recipient).Add(float64(amount))
	}
}

// IncrementRegistryMutation records a registry write.
func (m *Metrics) IncrementRegistryMutation(operation string) {
	if m != nil {
		m.RegistryMutations.WithLabelValues(operation).Inc()
	}
}

// ObserveOperation records how long operation took since start.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	if m != nil {
		m.OperationLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
