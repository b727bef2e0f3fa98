package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furcwire-project/furcwire/internal/config"
	"github.com/furcwire-project/furcwire/internal/connector"
	"github.com/furcwire-project/furcwire/internal/events"
)

// metricValue returns the value of the named series with the given label,
// or -1 when it is absent.
func metricValue(t *testing.T, m *Metrics, name, label, value string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)

	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			if label == "" || hasLabel(metric, label, value) {
				if c := metric.GetCounter(); c != nil {
					return c.GetValue()
				}
				return metric.GetGauge().GetValue()
			}
		}
	}
	return -1
}

func hasLabel(m *dto.Metric, name, value string) bool {
	for _, l := range m.GetLabel() {
		if l.GetName() == name && l.GetValue() == value {
			return true
		}
	}
	return false
}

func TestOpcodeLabel(t *testing.T) {
	assert.Equal(t, "8", OpcodeLabel(8, -1))
	assert.Equal(t, "61:83", OpcodeLabel(61, 83))
}

func TestMetricsCountEvents(t *testing.T) {
	m := NewMetrics()
	bus := events.NewEventBus()
	m.Attach(bus)
	ctx := context.Background()

	require.NoError(t, bus.Publish(ctx, events.Event{Type: events.EventLogin}))
	require.NoError(t, bus.Publish(ctx, events.Event{Type: events.EventLogin}))
	require.NoError(t, bus.Publish(ctx, events.Event{Type: events.EventUnhandled, Opcode: 61, SubOpcode: 2}))
	require.NoError(t, bus.Publish(ctx, events.Event{Type: events.EventDecodeError, Opcode: 9, SubOpcode: -1}))

	assert.Equal(t, 2.0, metricValue(t, m, "furcwire_events_total", "type", "login"))
	assert.Equal(t, 1.0, metricValue(t, m, "furcwire_unhandled_total", "opcode", "61:2"))
	assert.Equal(t, 1.0, metricValue(t, m, "furcwire_decode_errors_total", "opcode", "9"))
}

func TestMetricsObserveState(t *testing.T) {
	m := NewMetrics()
	m.ObserveState(connector.StateDisconnected, connector.StateConnected, connector.ReasonNone)
	assert.Equal(t, 2.0, metricValue(t, m, "furcwire_connection_state", "", ""))

	m.ObserveState(connector.StateConnected, connector.StateDisconnected, connector.ReasonEndOfStream)
	assert.Equal(t, 0.0, metricValue(t, m, "furcwire_connection_state", "", ""))
	assert.Equal(t, 1.0, metricValue(t, m, "furcwire_disconnects_total", "reason", "end_of_stream"))
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.ObserveState(connector.StateDisconnected, connector.StateHandshaking, connector.ReasonNone)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "furcwire_connection_state 1")
}

type fakeSender struct {
	lines []string
	err   error
}

func (f *fakeSender) Command(text string) error {
	f.lines = append(f.lines, text)
	return f.err
}

func TestEventTopic(t *testing.T) {
	assert.Equal(t, "furcwire/events/login", EventTopic("furcwire", events.EventLogin))
	assert.Equal(t, "home/furc/events/motd", EventTopic("home/furc/", events.EventMOTD))
}

func TestNewMQTTHandlerDisabled(t *testing.T) {
	_, err := NewMQTTHandler(config.MQTTConfig{}, events.NewEventBus(), nil, nil)
	assert.Error(t, err)
}

func TestMQTTCommandForwarding(t *testing.T) {
	sender := &fakeSender{}
	h, err := NewMQTTHandler(config.MQTTConfig{
		Enabled:     true,
		BrokerURL:   "localhost",
		Port:        1883,
		TopicPrefix: "furcwire",
		Commands:    true,
	}, events.NewEventBus(), sender, func() string { return "abc" })
	require.NoError(t, err)

	h.onCommand([]byte("\"hello\r\n"))
	assert.Equal(t, []string{"\"hello"}, sender.lines)

	msg := h.buildMessage(map[string]string{"k": "v"})
	assert.Equal(t, "abc", msg["session"])
	assert.Equal(t, map[string]string{"k": "v"}, msg["payload"])
	assert.Contains(t, msg, "timestamp")
	assert.Contains(t, msg, "hostname")

	// publishing while disconnected is a no-op
	assert.NoError(t, h.onEvent(context.Background(), events.Event{Type: events.EventLogin}))
}
