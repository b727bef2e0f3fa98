// Package telemetry exports the decoded event stream: MQTT republishing of
// every event and Prometheus collectors for traffic and connection state.
package telemetry

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/furcwire-project/furcwire/internal/config"
	"github.com/furcwire-project/furcwire/internal/events"
	"github.com/furcwire-project/furcwire/internal/util"
)

// MQTT topic suffixes under the configured prefix.
const (
	TopicEvents  = "events"
	TopicCommand = "command"
	TopicStatus  = "status"
)

// CommandSender accepts raw command lines received over MQTT.
type CommandSender interface {
	Command(text string) error
}

// EventTopic returns the topic an event of type t is published on.
func EventTopic(prefix string, t events.EventType) string {
	return strings.TrimSuffix(prefix, "/") + "/" + TopicEvents + "/" + string(t)
}

// MQTTHandler republishes bus events to an MQTT broker and forwards
// commands from the broker to the client.
type MQTTHandler struct {
	mu sync.Mutex

	cfg      config.MQTTConfig
	eventBus *events.EventBus
	sender   CommandSender
	session  func() string
	client   mqtt.Client

	// Metadata included in every message
	metadata map[string]interface{}
}

// NewMQTTHandler creates a new MQTT telemetry handler. session reports the
// id of the current protocol session.
func NewMQTTHandler(cfg config.MQTTConfig, eventBus *events.EventBus, sender CommandSender, session func() string) (*MQTTHandler, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("MQTT is disabled")
	}

	sysInfo := util.GetSystemInfo()
	handler := &MQTTHandler{
		cfg:      cfg,
		eventBus: eventBus,
		sender:   sender,
		session:  session,
		metadata: map[string]interface{}{
			"hostname":  sysInfo.Hostname,
			"os":        sysInfo.OS,
			"cpu_cores": sysInfo.CPUCores,
			"memory_mb": sysInfo.TotalMemory,
		},
	}

	scheme := "tcp"
	if cfg.UseTLS {
		scheme = "ssl"
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.BrokerURL, cfg.Port))

	if cfg.ClientID != "" {
		opts.SetClientID(cfg.ClientID)
	} else {
		opts.SetClientID(fmt.Sprintf("furcwire-%s", sysInfo.Hostname))
	}

	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetCleanSession(true)

	if cfg.UseTLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Info().Msg("MQTT connected")
		handler.subscribeCommands(client)
	})

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	})

	handler.client = mqtt.NewClient(opts)

	return handler, nil
}

// Start connects to the broker, subscribes to the bus and blocks until ctx
// is cancelled.
func (h *MQTTHandler) Start(ctx context.Context) error {
	log.Info().
		Str("broker", h.cfg.BrokerURL).
		Int("port", h.cfg.Port).
		Msg("connecting to MQTT broker")

	token := h.client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect failed: %w", token.Error())
	}

	h.eventBus.Subscribe(events.EventAll, "mqtt.events", h.onEvent)
	h.publishStatus("online")

	<-ctx.Done()

	h.eventBus.Unsubscribe(events.EventAll, "mqtt.events")
	h.publishStatus("offline")
	h.client.Disconnect(5000)
	log.Info().Msg("MQTT disconnected")

	return nil
}

func (h *MQTTHandler) subscribeCommands(client mqtt.Client) {
	if !h.cfg.Commands || h.sender == nil {
		return
	}
	topic := strings.TrimSuffix(h.cfg.TopicPrefix, "/") + "/" + TopicCommand
	token := client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		h.onCommand(msg.Payload())
	})
	go func() {
		token.Wait()
		if token.Error() != nil {
			log.Warn().Err(token.Error()).Str("topic", topic).Msg("MQTT subscribe failed")
			return
		}
		log.Info().Str("topic", topic).Msg("accepting commands over MQTT")
	}()
}

// onCommand forwards one MQTT message as one command line.
func (h *MQTTHandler) onCommand(payload []byte) {
	text := strings.TrimRight(string(payload), "\r\n")
	if err := h.sender.Command(text); err != nil {
		log.Warn().Err(err).Msg("MQTT command rejected")
	}
}

// publish sends a JSON message to an MQTT topic.
func (h *MQTTHandler) publish(topic string, payload interface{}) {
	if !h.client.IsConnected() {
		return
	}

	data, err := json.Marshal(h.buildMessage(payload))
	if err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("failed to marshal MQTT message")
		return
	}

	token := h.client.Publish(topic, 1, false, data)
	go func() {
		token.Wait()
		if token.Error() != nil {
			log.Warn().Err(token.Error()).Str("topic", topic).Msg("MQTT publish failed")
		}
	}()
}

// buildMessage combines metadata with the event payload.
func (h *MQTTHandler) buildMessage(payload interface{}) map[string]interface{} {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := make(map[string]interface{}, len(h.metadata)+3)
	for k, v := range h.metadata {
		msg[k] = v
	}
	if h.session != nil {
		msg["session"] = h.session()
	}
	msg["payload"] = payload
	msg["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	return msg
}

func (h *MQTTHandler) onEvent(ctx context.Context, event events.Event) error {
	h.publish(EventTopic(h.cfg.TopicPrefix, event.Type), event)
	return nil
}

func (h *MQTTHandler) publishStatus(status string) {
	h.publish(strings.TrimSuffix(h.cfg.TopicPrefix, "/")+"/"+TopicStatus, map[string]interface{}{
		"status": status,
	})
}
