// Package metrics exposes Prometheus collectors for the AI host.
//
// All collectors are registered on a caller-provided registerer so tests and
// embedders can keep them off the default registry. Every method is safe to
// call on a nil *Metrics, which records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "skirmish"

// Metrics holds the collectors of one host.
type Metrics struct {
	EventsDelivered   *prometheus.CounterVec
	EventsSuppressed  *prometheus.CounterVec
	Faults            *prometheus.CounterVec
	CallsSkipped      *prometheus.CounterVec
	StubSubstitutions *prometheus.CounterVec
	LoadedInterfaces  prometheus.Gauge
	LoadedAIs         prometheus.Gauge
	CreateFailures    prometheus.Counter
}

// New creates and registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EventsDelivered: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "delivered_total",
			Help:      "Events forwarded to AI instances by topic",
		}, []string{"topic"}),
		EventsSuppressed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "suppressed_total",
			Help:      "Visibility-scoped events withheld from a team by topic",
		}, []string{"topic"}),
		Faults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "guard",
			Name:      "faults_total",
			Help:      "Faults raised by module code and contained by the host",
		}, []string{"operation"}),
		CallsSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "guard",
			Name:      "skipped_total",
			Help:      "Module calls skipped because the target's breaker was open",
		}, []string{"operation"}),
		StubSubstitutions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "library",
			Name:      "stub_substitutions_total",
			Help:      "AI libraries replaced by the stub table because loading returned nothing",
		}, []string{"ai"}),
		LoadedInterfaces: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "library",
			Name:      "loaded_interfaces",
			Help:      "AI Interface libraries currently loaded",
		}),
		LoadedAIs: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "ai_instances",
			Help:      "AI instances currently registered to a team",
		}),
		CreateFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "create_failures_total",
			Help:      "AI creations that failed and were rolled back",
		}),
	}
}

func (m *Metrics) EventDelivered(topic string) {
	if m != nil {
		m.EventsDelivered.WithLabelValues(topic).Inc()
	}
}

func (m *Metrics) EventSuppressed(topic string) {
	if m != nil {
		m.EventsSuppressed.WithLabelValues(topic).Inc()
	}
}

func (m *Metrics) Fault(operation string) {
	if m != nil {
		m.Faults.WithLabelValues(operation).Inc()
	}
}

func (m *Metrics) CallSkipped(operation string) {
	if m != nil {
		m.CallsSkipped.WithLabelValues(operation).Inc()
	}
}

func (m *Metrics) StubSubstituted(ai string) {
	if m != nil {
		m.StubSubstitutions.WithLabelValues(ai).Inc()
	}
}

func (m *Metrics) SetLoadedInterfaces(n int) {
	if m != nil {
		m.LoadedInterfaces.Set(float64(n))
	}
}

func (m *Metrics) SetLoadedAIs(n int) {
	if m != nil {
		m.LoadedAIs.Set(float64(n))
	}
}

func (m *Metrics) CreateFailed() {
	if m != nil {
		m.CreateFailures.Inc()
	}
}
