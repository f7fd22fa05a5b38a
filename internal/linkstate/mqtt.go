package linkstate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/HerbHall/netswitch/pkg/plugin"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	mqttConnectTimeout = 5 * time.Second
	mqttPublishTimeout = 5 * time.Second
	mqttQuiesceMillis  = 250
)

// mqttSink republishes settle events to an MQTT broker.
type mqttSink struct {
	client mqtt.Client
	topic  string
	qos    byte
	retain bool
	logger *zap.Logger
}

func newMQTTSink(s MQTTSettings, logger *zap.Logger) (*mqttSink, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(s.Broker).
		SetClientID(s.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(mqttConnectTimeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn("mqtt connection lost", zap.Error(err))
		})

	client := mqtt.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("connect to %s: timed out", s.Broker)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", s.Broker, err)
	}
	logger.Info("mqtt sink connected", zap.String("broker", s.Broker), zap.String("topic", s.Topic))
	return newMQTTSinkWithClient(client, s, logger), nil
}

func newMQTTSinkWithClient(client mqtt.Client, s MQTTSettings, logger *zap.Logger) *mqttSink {
	return &mqttSink{client: client, topic: s.Topic, qos: s.QoS, retain: s.Retain, logger: logger}
}

// handleSettled publishes the event payload. It runs on the engine's
// publishing goroutine, so delivery confirmation is awaited elsewhere.
func (s *mqttSink) handleSettled(_ context.Context, ev plugin.Event) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		s.logger.Warn("encode mqtt payload", zap.Error(err))
		return
	}
	tok := s.client.Publish(s.topic, s.qos, s.retain, payload)
	go func() {
		if !tok.WaitTimeout(mqttPublishTimeout) {
			s.logger.Warn("mqtt publish timed out", zap.String("topic", s.topic))
			return
		}
		if err := tok.Error(); err != nil {
			s.logger.Warn("mqtt publish failed", zap.String("topic", s.topic), zap.Error(err))
		}
	}()
}

func (s *mqttSink) close() {
	s.client.Disconnect(mqttQuiesceMillis)
}
