package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/sweeney/pushbutton/internal/logic"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// Config configures a RealPublisher.
type Config struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	// BufferSize is the number of messages kept while disconnected.
	BufferSize int
}

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are buffered and replayed, oldest first, once the
// client reconnects.
type RealPublisher struct {
	client      paho.Client
	eventsTopic string
	systemTopic string
	log         logrus.FieldLogger

	mu         sync.Mutex
	outbox     *outbox
	wasOffline bool
}

// NewRealPublisher creates a publisher connected to the configured broker.
// The broker publishes a retained OFFLINE message on the system topic if the
// daemon disappears without a clean shutdown.
func NewRealPublisher(cfg Config, log logrus.FieldLogger) (*RealPublisher, error) {
	p := newPublisher(cfg, log)

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     SystemOffline,
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(p.systemTopic, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

func newPublisher(cfg Config, log logrus.FieldLogger) *RealPublisher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "mqtt")
	return &RealPublisher{
		eventsTopic: EventsTopic(cfg.TopicPrefix),
		systemTopic: SystemTopic(cfg.TopicPrefix),
		log:         log,
		outbox:      newOutbox(cfg.BufferSize, log),
	}
}

// Publish sends a button event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	return p.publish(outMsg{topic: p.eventsTopic, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events
	return p.publish(outMsg{topic: p.systemTopic, payload: payload, qos: 1, retained: event.Retained})
}

// IsConnected reports whether the client currently has a broker connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns the number of messages waiting for a reconnect.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outbox.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}

func (p *RealPublisher) publish(msg outMsg) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		p.outbox.add(msg)
		p.mu.Unlock()
		return nil
	}

	if err := p.send(msg); err != nil {
		p.mu.Lock()
		p.outbox.add(msg)
		p.mu.Unlock()
		return err
	}
	return nil
}

func (p *RealPublisher) send(msg outMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: timeout", msg.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", msg.topic, err)
	}
	return nil
}

// onConnect runs on every (re)connection. It replays buffered messages and
// announces the reconnect.
func (p *RealPublisher) onConnect(paho.Client) {
	p.mu.Lock()
	pending, dropped := p.outbox.take()
	reconnected := p.wasOffline
	p.wasOffline = false
	p.mu.Unlock()

	if reconnected {
		p.log.WithFields(logrus.Fields{"buffered": len(pending), "dropped": dropped}).Info("mqtt reconnected")
		payload, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: SystemReconnected})
		if err == nil {
			pending = append(pending, outMsg{topic: p.systemTopic, payload: payload, qos: 1})
		}
	}

	for i, msg := range pending {
		if err := p.send(msg); err != nil {
			p.log.WithError(err).Warn("replay failed, keeping remaining messages")
			p.mu.Lock()
			for _, m := range pending[i:] {
				p.outbox.add(m)
			}
			p.mu.Unlock()
			return
		}
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.wasOffline = true
	p.mu.Unlock()
	p.log.WithError(err).Warn("mqtt connection lost")
}
