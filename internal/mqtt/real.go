package mqtt

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/egpwc/internal/events"
)

// Options configures a RealPublisher.
type Options struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	// Buffer is the number of messages kept while disconnected.
	Buffer int
}

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are buffered and sent on reconnect.
type RealPublisher struct {
	client paho.Client
	topics Topics
	logger *log.Logger

	mu     sync.Mutex
	buffer *ringBuffer
}

// NewRealPublisher creates a publisher connected to the given broker. The
// broker keeps a retained SHUTDOWN/MQTT_DISCONNECT message as the will.
func NewRealPublisher(o Options, logger *log.Logger) (*RealPublisher, error) {
	p := &RealPublisher{
		topics: TopicsFor(o.TopicPrefix),
		logger: logger,
		buffer: newRingBuffer(o.Buffer),
	}

	will, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "SHUTDOWN", Reason: "MQTT_DISCONNECT"})
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(p.topics.System, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warn("mqtt connection lost", "err", err)
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

// onConnect replays the buffered messages and announces the reconnection.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	msgs := p.buffer.drainAll()
	p.mu.Unlock()

	if len(msgs) > 0 {
		p.logger.Info("mqtt connected, replaying buffer", "messages", len(msgs))
	}
	for _, m := range msgs {
		c.Publish(m.topic, m.qos, m.retained, m.payload)
	}
	payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
	c.Publish(p.topics.System, 1, false, payload)
}

func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		first := p.buffer.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		if first {
			p.logger.Warn("mqtt buffer full, dropping oldest", "capacity", len(p.buffer.buf))
		}
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Publish sends an output event to the MQTT broker.
func (p *RealPublisher) Publish(event events.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 1: an alert must not be lost on a flaky link
	return p.send(p.topics.Events, 1, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.send(p.topics.System, 1, event.Retained, payload)
}

// IsConnected reports whether the client currently has a connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
