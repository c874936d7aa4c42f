package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/verdantio/hydro-core/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for the handshake.
	defaultConnectTimeout = 10 * time.Second

	// defaultOperationTimeout is the maximum time to wait for
	// publish/subscribe acknowledgment.
	defaultOperationTimeout = 5 * time.Second

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// brokerScheme selects the URL scheme for the transport variant.
//
// This is a pure function of the broker configuration: plain socket
// transports use tcp/ssl, WebSocket transports use ws/wss. No business
// state participates in the choice.
func brokerScheme(websocket, tlsEnabled bool) string {
	switch {
	case websocket && tlsEnabled:
		return "wss"
	case websocket:
		return "ws"
	case tlsEnabled:
		return "ssl"
	default:
		return "tcp"
	}
}

// brokerURL builds the full broker URL from configuration.
func brokerURL(cfg config.MQTTBrokerConfig) string {
	return fmt.Sprintf("%s://%s:%d", brokerScheme(cfg.WebSocket, cfg.TLS), cfg.Host, cfg.Port)
}

// uniqueClientID appends a random suffix to the configured client ID.
//
// Each transport instance gets its own identity at the broker, so a
// superseded session's transport can never be kicked off (or kick off)
// its replacement through a client-ID collision.
func uniqueClientID(base string) string {
	return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8])
}

// buildClientOptions creates paho MQTT options from Hydro Core config.
//
// This configures:
//   - Broker URL (transport variant chosen by brokerScheme)
//   - Unique client ID for identification
//   - Authentication credentials (if provided)
//   - Auto-reconnect with bounded retry interval
//   - Keep-alive, connect timeout, clean session
//   - TLS configuration (if enabled)
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	opts.AddBroker(brokerURL(cfg.Broker))
	opts.SetClientID(uniqueClientID(cfg.Broker.ClientID))

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	// Clean session - no persistent state at the broker between connects.
	opts.SetCleanSession(true)

	// Auto-reconnect with bounded backoff.
	opts.SetAutoReconnect(true)
	opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)

	opts.SetConnectTimeout(defaultConnectTimeout)

	keepAlive := cfg.KeepAlive
	if keepAlive <= 0 {
		keepAlive = 60
	}
	opts.SetKeepAlive(time.Duration(keepAlive) * time.Second)

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tlsMinVersion,
		})
	}

	return opts
}
