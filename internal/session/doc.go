// Package session owns the logical broker connection for Hydro Core.
//
// A Session wraps one transport at a time and demultiplexes its inbound
// messages into typed, replay-capable streams:
//
//   - raw messages (live only)
//   - parsed sensor readings (live only)
//   - parsed actuator/device status events (replayed to late
//     subscribers, bounded history)
//   - connection status (last-known status replayed)
//
// Connect admission is single-flight: an explicit state machine
// (disconnected | connecting | connected) admits at most one connect
// attempt at a time, and repeated calls while one is in flight are
// successful no-ops. A separate one-way retired flag takes a
// superseded session out of service without releasing its resources;
// Dispose releases them.
//
// The transport is injected through a factory, so the paho-backed
// transport is wired in main and tests drive the session with fakes.
package session
