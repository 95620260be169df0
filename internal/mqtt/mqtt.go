package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"smartbin-dashboard/internal/config"
	"smartbin-dashboard/internal/modules/dashboard/types"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const alertsQoS = byte(1) // At least once delivery

// connectRetryInterval is the pause between background connect attempts.
var connectRetryInterval = 5 * time.Second

// AlertPublisher relays alert snapshots to subscribers outside the dashboard.
type AlertPublisher interface {
	Connect(ctx context.Context) error
	PublishAlerts(alerts []types.Alert) error
	IsConnected() bool
	Disconnect()
}

// NewAlertPublisher returns an MQTT publisher when a broker is configured
// and a no-op publisher otherwise.
func NewAlertPublisher(cfg config.Config, logger *slog.Logger) AlertPublisher {
	if !cfg.MQTTEnabled() {
		return NoopPublisher{}
	}
	return NewPublisher(cfg, logger)
}

type Publisher struct {
	client    mqtt.Client
	cfg       config.Config
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool

	// pending is the in-flight connect attempt. paho keeps retrying it in
	// the background until it succeeds or Disconnect is called.
	pending mqtt.Token

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewPublisher(cfg config.Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		cfg:    cfg,
		logger: logger.With("component", "mqtt"),
		stopCh: make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(cfg.MQTTClientID)

	// Session settings
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(connectRetryInterval)
	opts.SetMaxReconnectInterval(60 * time.Second)

	// Keepalive / timeouts
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		p.setConnected(true)
		p.logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.setConnected(false)
		p.logger.Warn("mqtt connection lost", "error", err)
	})

	p.client = mqtt.NewClient(opts)
	return p
}

// Connect waits for the initial connection, respecting ctx and Disconnect.
// When ctx ends first the attempt is left running, so the publisher still
// connects once the broker becomes reachable.
func (p *Publisher) Connect(ctx context.Context) error {
	select {
	case <-p.stopCh:
		return fmt.Errorf("publisher stopped")
	default:
	}

	if p.IsConnected() {
		return nil
	}

	token := p.connectToken()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			p.clearPending(token)
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return fmt.Errorf("publisher stopped")
		default:
		}
	}
}

// connectToken starts a connect attempt unless one is already pending.
// With ConnectRetry(true) the token only completes once connected.
func (p *Publisher) connectToken() mqtt.Token {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		p.pending = p.client.Connect()
	}
	return p.pending
}

func (p *Publisher) clearPending(token mqtt.Token) {
	p.mu.Lock()
	if p.pending == token {
		p.pending = nil
	}
	p.mu.Unlock()
}

// PublishAlerts sends the full alerts array as a retained message so late
// subscribers immediately get the current set.
func (p *Publisher) PublishAlerts(alerts []types.Alert) error {
	if !p.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	data, err := encodeAlerts(alerts)
	if err != nil {
		return err
	}

	topic := p.cfg.MQTTAlertsTopic
	token := p.client.Publish(topic, alertsQoS, true, data)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("publish alerts: %w", token.Error())
	}

	p.logger.Debug("published alerts", "topic", topic, "count", len(alerts))
	return nil
}

func encodeAlerts(alerts []types.Alert) ([]byte, error) {
	if alerts == nil {
		alerts = []types.Alert{}
	}
	data, err := json.Marshal(alerts)
	if err != nil {
		return nil, fmt.Errorf("marshal alerts: %w", err)
	}
	return data, nil
}

// IsConnected returns whether the client is connected.
func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client.IsConnected()
}

// Disconnect stops the publisher. Idempotent.
func (p *Publisher) Disconnect() {
	p.stopOnce.Do(func() { close(p.stopCh) })

	if p.client != nil {
		p.client.Disconnect(250)
	}

	p.setConnected(false)
	p.logger.Info("mqtt publisher disconnected")
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Connect(context.Context) error     { return nil }
func (NoopPublisher) PublishAlerts([]types.Alert) error { return nil }
func (NoopPublisher) IsConnected() bool                 { return false }
func (NoopPublisher) Disconnect()                       {}

var (
	_ AlertPublisher = (*Publisher)(nil)
	_ AlertPublisher = NoopPublisher{}
)
