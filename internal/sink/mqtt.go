package sink

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/oshokin/multivibrator/internal/logger"
)

const (
	// DefaultMQTTTopic is used when no topic is configured.
	DefaultMQTTTopic = "circuits/multivibrator/output"
	// DefaultMQTTClientID is used when no client id is configured.
	DefaultMQTTClientID = "multivibrator"
	// defaultMQTTTimeout bounds connect and publish acknowledgements.
	defaultMQTTTimeout = 5 * time.Second
	// disconnectQuiesce is the grace period in milliseconds for Close.
	disconnectQuiesce = 1000
)

var (
	// ErrBrokerRequired is returned when no broker URL is configured.
	ErrBrokerRequired = errors.New("mqtt broker must be provided")
	// errConnectTimeout is returned when the broker does not answer in time.
	errConnectTimeout = errors.New("mqtt connection timeout")
	// errPublishTimeout is recorded when a publish is not acknowledged in time.
	errPublishTimeout = errors.New("mqtt publish timeout")
)

// MQTTOptions configures the MQTT sink.
type MQTTOptions struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883.
	Broker string `yaml:"broker"`
	// Topic receives "1" and "0" payloads.
	Topic string `yaml:"topic"`
	// ClientID identifies the connection at the broker.
	ClientID string `yaml:"client_id"`
	// QoS is the MQTT quality of service (0, 1 or 2).
	QoS byte `yaml:"qos"`
	// Retained makes the broker keep the last level for new subscribers.
	Retained bool `yaml:"retained"`
	// Timeout bounds connect and publish acknowledgements.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// withDefaults fills the optional fields.
func (o MQTTOptions) withDefaults() MQTTOptions {
	if o.Topic == "" {
		o.Topic = DefaultMQTTTopic
	}

	if o.ClientID == "" {
		o.ClientID = DefaultMQTTClientID
	}

	if o.Timeout <= 0 {
		o.Timeout = defaultMQTTTimeout
	}

	if o.QoS > 2 {
		o.QoS = 2
	}

	return o
}

// MQTT mirrors the output level to a broker topic.
type MQTT struct {
	// client is the broker connection.
	client paho.Client
	// opts holds the resolved options.
	opts MQTTOptions
	// value is the last published level.
	value atomic.Bool
	// failures counts publishes that were not acknowledged.
	failures atomic.Uint64
	// log reports publish failures.
	log *zap.SugaredLogger
}

// DialMQTT connects to the configured broker and returns the sink.
func DialMQTT(ctx context.Context, opts MQTTOptions) (*MQTT, error) {
	if opts.Broker == "" {
		return nil, ErrBrokerRequired
	}

	opts = opts.withDefaults()

	clientOpts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(opts.Timeout)

	client := paho.NewClient(clientOpts)

	token := client.Connect()
	if !token.WaitTimeout(opts.Timeout) {
		return nil, fmt.Errorf("connect to %s: %w", opts.Broker, errConnectTimeout)
	}

	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", opts.Broker, err)
	}

	logger.InfoKV(ctx, "Connected to MQTT broker", "broker", opts.Broker, "topic", opts.Topic)

	return NewMQTT(ctx, client, opts), nil
}

// NewMQTT wraps an already configured client.
func NewMQTT(ctx context.Context, client paho.Client, opts MQTTOptions) *MQTT {
	return &MQTT{
		client: client,
		opts:   opts.withDefaults(),
		log:    logger.FromContext(ctx).Named("mqtt"),
	}
}

// Read returns the last published level.
func (m *MQTT) Read() bool {
	return m.value.Load()
}

// Publish sends the level to the topic and waits for the acknowledgement.
// Failures are logged and counted; the level is stored regardless.
func (m *MQTT) Publish(value bool) {
	m.value.Store(value)

	token := m.client.Publish(m.opts.Topic, m.opts.QoS, m.opts.Retained, Payload(value))

	err := errPublishTimeout
	if token.WaitTimeout(m.opts.Timeout) {
		err = token.Error()
	}

	if err != nil {
		m.failures.Add(1)
		m.log.Warnw("MQTT publish failed", "topic", m.opts.Topic, "value", value, "error", err)
	}
}

// Failures returns the number of unacknowledged publishes.
func (m *MQTT) Failures() uint64 {
	return m.failures.Load()
}

// Connected reports whether the client is connected to the broker.
func (m *MQTT) Connected() bool {
	return m.client.IsConnected()
}

// Close disconnects from the broker and logs the publish statistics.
func (m *MQTT) Close() error {
	m.log.Infow("Disconnecting from MQTT broker",
		"topic", m.opts.Topic,
		"connected", m.Connected(),
		"failures", m.Failures(),
	)

	m.client.Disconnect(disconnectQuiesce)

	return nil
}
