package telemetry

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/furcwire-project/furcwire/internal/connector"
	"github.com/furcwire-project/furcwire/internal/events"
)

const metricsNamespace = "furcwire"

// Metrics holds the Prometheus collectors fed by the bus and the client.
type Metrics struct {
	registry *prometheus.Registry

	eventsTotal       *prometheus.CounterVec
	unhandledTotal    *prometheus.CounterVec
	decodeErrorsTotal *prometheus.CounterVec
	disconnectsTotal  *prometheus.CounterVec
	connectionState   prometheus.Gauge
}

// NewMetrics registers the collectors on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_total",
			Help:      "Decoded events published on the bus",
		}, []string{"type"}),
		unhandledTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "unhandled_total",
			Help:      "Messages whose opcode has no decoder",
		}, []string{"opcode"}),
		decodeErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "decode_errors_total",
			Help:      "Messages whose body failed to decode",
		}, []string{"opcode"}),
		disconnectsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "disconnects_total",
			Help:      "Transitions to disconnected by reason",
		}, []string{"reason"}),
		connectionState: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "connection_state",
			Help:      "0 disconnected, 1 handshaking, 2 connected",
		}),
	}
}

// OpcodeLabel renders "8" for a primary opcode and "61:83" for an extension.
func OpcodeLabel(opcode, sub int) string {
	if sub < 0 {
		return strconv.Itoa(opcode)
	}
	return strconv.Itoa(opcode) + ":" + strconv.Itoa(sub)
}

// Attach counts every event published on bus.
func (m *Metrics) Attach(bus *events.EventBus) {
	bus.Subscribe(events.EventAll, "metrics.events", m.onEvent)
}

func (m *Metrics) onEvent(_ context.Context, event events.Event) error {
	m.eventsTotal.WithLabelValues(string(event.Type)).Inc()
	switch event.Type {
	case events.EventUnhandled:
		m.unhandledTotal.WithLabelValues(OpcodeLabel(event.Opcode, event.SubOpcode)).Inc()
	case events.EventDecodeError:
		m.decodeErrorsTotal.WithLabelValues(OpcodeLabel(event.Opcode, event.SubOpcode)).Inc()
	}
	return nil
}

// ObserveState is a connector.Options.OnStateChange hook.
func (m *Metrics) ObserveState(_, to connector.State, reason connector.DisconnectReason) {
	m.connectionState.Set(float64(to))
	if to == connector.StateDisconnected {
		m.disconnectsTotal.WithLabelValues(reason.String()).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
