// Package mqtt provides the broker transport for Hydro Core.
//
// This package wraps paho.mqtt.golang as a single-connection Transport:
//   - Transport variant selection (plain socket tcp/ssl vs WebSocket
//     ws/wss) as a pure function of configuration
//   - Handshake with timeout, publish/subscribe with QoS guarantees
//   - Auto-reconnect with bounded retry interval
//   - Event delivery (connected/lost/reconnecting/message) into an
//     application-owned sink, severable via Suppress
//
// # Architecture
//
// The session layer (internal/session) owns transports and consumes
// their events through a channel. The transport deliberately knows
// nothing about topics, payload formats, or session state; it only
// moves bytes and connection events.
//
//	Grow nodes → MQTT Broker ↔ Transport → session demux → typed streams
//
// A session that has been superseded calls Suppress on its transport so
// stale paho callbacks cannot fire into the application ever again;
// this is stronger than flag checks scattered through every callback.
package mqtt
