// Package notify tells players over MQTT that a new desired state is
// waiting. Delivery is best-effort: players converge on their next
// heartbeat regardless.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/playout/internal/metrics"
)

type Notifier interface {
	NotifySync(ctx context.Context, screenCode string, version int64) error
}

// Nop drops every notification.
type Nop struct{}

func (Nop) NotifySync(context.Context, string, int64) error { return nil }

// SyncMessage is published to tv/<screen_code>/commands.
type SyncMessage struct {
	Type                string `json:"type"`
	DesiredStateVersion int64  `json:"desired_state_version"`
}

func Topic(screenCode string) string {
	return fmt.Sprintf("tv/%s/commands", screenCode)
}

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

type MQTTNotifier struct {
	client  publisher
	timeout time.Duration
}

func NewMQTTNotifier(brokerURL, clientID string) (*MQTTNotifier, mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(mqtt.Client) {
		log.Info().Str("broker", brokerURL).Msg("connected to MQTT broker")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return newMQTTNotifier(client), client, nil
}

func newMQTTNotifier(p publisher) *MQTTNotifier {
	return &MQTTNotifier{client: p, timeout: 2 * time.Second}
}

func (n *MQTTNotifier) NotifySync(ctx context.Context, screenCode string, version int64) error {
	payload, err := json.Marshal(SyncMessage{Type: "sync", DesiredStateVersion: version})
	if err != nil {
		return err
	}

	timeout := n.timeout
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		timeout = time.Until(deadline)
	}

	token := n.client.Publish(Topic(screenCode), 1, false, payload)
	if !token.WaitTimeout(timeout) {
		metrics.NotifyFailuresTotal.Inc()
		return fmt.Errorf("publish sync to %s: timed out", screenCode)
	}
	if err := token.Error(); err != nil {
		metrics.NotifyFailuresTotal.Inc()
		return fmt.Errorf("publish sync to %s: %w", screenCode, err)
	}
	log.Debug().Str("screen_code", screenCode).Int64("version", version).Msg("sync nudge published")
	return nil
}
