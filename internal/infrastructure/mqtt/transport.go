package mqtt

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/verdantio/hydro-core/internal/infrastructure/config"
)

// Events receives transport-level notifications.
//
// Methods are invoked from paho's callback goroutines; implementations
// should hand the event to a channel rather than doing work inline so
// the transport's threading model never leaks into the application.
type Events interface {
	Connected()
	ConnectionLost(err error)
	Reconnecting()
	Message(topic string, payload []byte)
}

// Transport wraps paho.mqtt.golang as one broker connection.
//
// A Transport is built by Dial, connected once with Connect, and
// discarded after Disconnect. Event delivery can be permanently severed
// with Suppress, which is how a superseded session guarantees its stale
// transport can no longer influence application state.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Transport struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig

	// suppressed permanently stops event delivery once set.
	suppressed atomic.Bool
}

// Dial builds a Transport for the configured broker. It does not
// connect; call Connect on the result.
//
// The transport variant (plain socket vs WebSocket) and TLS are chosen
// purely from the broker configuration. The configured client ID gets
// a unique suffix so a superseded transport can never collide with its
// replacement at the broker.
//
// Parameters:
//   - cfg: MQTT configuration from config.yaml
//   - events: Sink for connection and message events (required)
//
// Returns:
//   - *Transport: Transport ready for Connect
//   - error: If no event sink is provided
func Dial(cfg config.MQTTConfig, events Events) (*Transport, error) {
	if events == nil {
		return nil, fmt.Errorf("%w: event sink is required", ErrConnectionFailed)
	}

	t := &Transport{cfg: cfg}
	opts := buildClientOptions(cfg)

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		if t.suppressed.Load() {
			return
		}
		events.Connected()
	})

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		if t.suppressed.Load() {
			return
		}
		events.ConnectionLost(err)
	})

	opts.SetReconnectingHandler(func(_ pahomqtt.Client, _ *pahomqtt.ClientOptions) {
		if t.suppressed.Load() {
			return
		}
		events.Reconnecting()
	})

	opts.SetDefaultPublishHandler(func(_ pahomqtt.Client, msg pahomqtt.Message) {
		if t.suppressed.Load() {
			return
		}
		events.Message(msg.Topic(), msg.Payload())
	})

	t.client = pahomqtt.NewClient(opts)
	return t, nil
}

// Connect performs the broker handshake.
//
// Returns:
//   - error: Wrapped ErrConnectionFailed if the handshake is rejected
//     or does not complete within the connect timeout (or the context
//     deadline, whichever is sooner)
func (t *Transport) Connect(ctx context.Context) error {
	timeout := defaultConnectTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	token := t.client.Connect()
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return nil
}

// Subscribe registers a topic pattern. Received messages are delivered
// through Events.Message; paho routes them via the default handler.
//
// Returns:
//   - error: Wrapped ErrSubscribeFailed on rejection or timeout
func (t *Transport) Subscribe(topic string, qos byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if !t.client.IsConnected() {
		return ErrNotConnected
	}

	token := t.client.Subscribe(topic, qos, nil)
	if !token.WaitTimeout(defaultOperationTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, defaultOperationTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	return nil
}

// Publish sends a message to the specified topic.
//
// Returns:
//   - error: Wrapped ErrPublishFailed on rejection or timeout
func (t *Transport) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if !t.client.IsConnected() {
		return ErrNotConnected
	}

	token := t.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultOperationTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultOperationTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// Disconnect tears down the connection, allowing quiesce time for
// in-flight operations. Disconnecting also stops paho's auto-reconnect
// loop, so a disconnected transport stays down.
func (t *Transport) Disconnect(quiesce time.Duration) {
	if t.client == nil {
		return
	}
	// #nosec G115 -- quiesce is a small non-negative duration
	t.client.Disconnect(uint(quiesce.Milliseconds()))
}

// Suppress permanently severs event delivery from this transport.
//
// After Suppress, no Connected/ConnectionLost/Reconnecting/Message
// notification will ever fire again, even if paho's auto-reconnect
// re-establishes the connection before the transport is disconnected.
func (t *Transport) Suppress() {
	t.suppressed.Store(true)
}

// IsConnected reports the transport's current connection state.
func (t *Transport) IsConnected() bool {
	return t.client != nil && t.client.IsConnected()
}
