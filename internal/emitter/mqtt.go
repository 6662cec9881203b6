// Package emitter publishes capture events to an MQTT broker.
package emitter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/vmihailenco/msgpack/v5"

	telemetrycapture "github.com/e7canasta/telemetry-capture"
	"github.com/e7canasta/telemetry-capture/internal/config"
	"github.com/e7canasta/telemetry-capture/internal/sink"
	"github.com/e7canasta/telemetry-capture/vars"
)

const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
	StatusOffline      = "offline"

	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

var _ sink.Sink = (*MQTTEmitter)(nil)

type publishFunc func(topic string, qos byte, retained bool, payload []byte) error

// MQTTEmitter publishes capture events to MQTT. It implements sink.Sink.
//
// Topics under the configured prefix:
//   - frame:   msgpack FramePayload per sample
//   - session: raw session document text, retained
//   - catalog: msgpack CatalogPayload, retained
//   - status:  connected / disconnected / offline, retained
type MQTTEmitter struct {
	cfg     config.MQTTConfig
	Client  mqtt.Client
	publish publishFunc

	newClient      func(*mqtt.ClientOptions) mqtt.Client
	connectTimeout time.Duration

	mu        sync.RWMutex
	published map[string]uint64 // count per topic
	errors    uint64
	connected bool
}

// NewMQTTEmitter creates a new MQTT emitter
func NewMQTTEmitter(cfg config.MQTTConfig) *MQTTEmitter {
	return &MQTTEmitter{
		cfg:            cfg,
		newClient:      mqtt.NewClient,
		connectTimeout: connectTimeout,
		published:      make(map[string]uint64),
	}
}

func brokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}

// Connect establishes connection to MQTT broker. On timeout or ctx
// cancellation the client's connect retries are stopped.
func (e *MQTTEmitter) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL(e.cfg.Broker))
	opts.SetClientID(e.cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetWill(e.topic("status"), StatusOffline, e.qos("status"), true)

	// Connection handlers
	opts.OnConnect = func(c mqtt.Client) {
		e.mu.Lock()
		e.connected = true
		e.mu.Unlock()
		slog.Info("emitter: mqtt connection established",
			"broker", e.cfg.Broker,
			"client_id", e.cfg.ClientID,
		)
	}

	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		e.mu.Lock()
		e.connected = false
		e.mu.Unlock()
		slog.Warn("emitter: mqtt connection lost, will auto-reconnect",
			"error", err,
			"broker", e.cfg.Broker,
		)
	}

	e.Client = e.newClient(opts)
	e.publish = e.clientPublish

	slog.Info("emitter: connecting to mqtt broker", "broker", e.cfg.Broker)

	token := e.Client.Connect()
	select {
	case <-token.Done():
	case <-time.After(e.connectTimeout):
		e.Client.Disconnect(0)
		return fmt.Errorf("emitter: mqtt connection timeout")
	case <-ctx.Done():
		e.Client.Disconnect(0)
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("emitter: mqtt connection failed: %w", err)
	}

	e.mu.Lock()
	e.connected = true
	e.mu.Unlock()
	return nil
}

func (e *MQTTEmitter) clientPublish(topic string, qos byte, retained bool, payload []byte) error {
	token := e.Client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	return token.Error()
}

// Catalog publishes the session's variable catalog and marks the
// producer connected.
func (e *MQTTEmitter) Catalog(sessionID string, cat vars.Catalog) error {
	payload, err := msgpack.Marshal(newCatalogPayload(sessionID, cat))
	if err != nil {
		e.countError()
		return fmt.Errorf("emitter: failed to marshal catalog: %w", err)
	}
	if err := e.send("status", true, []byte(StatusConnected)); err != nil {
		return err
	}
	return e.send("catalog", true, payload)
}

func (e *MQTTEmitter) SessionDocument(doc *telemetrycapture.SessionDocument) error {
	return e.send("session", true, []byte(doc.Text))
}

func (e *MQTTEmitter) Sample(s sink.Sample) error {
	payload, err := msgpack.Marshal(newFramePayload(s))
	if err != nil {
		e.countError()
		return fmt.Errorf("emitter: failed to marshal frame: %w", err)
	}
	return e.send("frame", false, payload)
}

func (e *MQTTEmitter) Disconnected(sessionID string) error {
	return e.send("status", true, []byte(StatusDisconnected))
}

// send publishes payload on <prefix>/<kind>.
func (e *MQTTEmitter) send(kind string, retained bool, payload []byte) error {
	if !e.isConnected() {
		e.countError()
		return fmt.Errorf("emitter: mqtt not connected")
	}

	topic := e.topic(kind)
	qos := e.qos(kind)
	if err := e.publish(topic, qos, retained, payload); err != nil {
		e.countError()
		return fmt.Errorf("emitter: publish %s: %w", topic, err)
	}

	e.mu.Lock()
	e.published[topic]++
	e.mu.Unlock()

	slog.Debug("emitter: published",
		"topic", topic,
		"qos", qos,
		"size", len(payload),
	)
	return nil
}

// Disconnect marks the capture offline and closes the connection.
func (e *MQTTEmitter) Disconnect() error {
	if e.Client != nil && e.Client.IsConnected() {
		if err := e.send("status", true, []byte(StatusOffline)); err != nil {
			slog.Warn("emitter: failed to publish offline status", "error", err)
		}
		e.Client.Disconnect(250) // 250ms grace period
		slog.Info("emitter: mqtt disconnected")
	}

	e.mu.Lock()
	e.connected = false
	e.mu.Unlock()
	return nil
}

// Stats returns emitter statistics
func (e *MQTTEmitter) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	published := make(map[string]uint64, len(e.published))
	for k, v := range e.published {
		published[k] = v
	}

	return Stats{
		Connected: e.connected,
		Published: published,
		Errors:    e.errors,
	}
}

// Stats contains emitter statistics
type Stats struct {
	Connected bool
	Published map[string]uint64
	Errors    uint64
}

func (e *MQTTEmitter) isConnected() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.connected
}

func (e *MQTTEmitter) countError() {
	e.mu.Lock()
	e.errors++
	e.mu.Unlock()
}

func (e *MQTTEmitter) topic(kind string) string {
	return e.cfg.TopicPrefix + "/" + kind
}

func (e *MQTTEmitter) qos(kind string) byte {
	if qos, ok := e.cfg.QoS[kind]; ok {
		return qos
	}
	return 0
}
