// Package stream provides a bounded replay-then-live event broadcaster.
//
// A Broadcaster holds the last N published events in a ring and fans
// live events out to independently-cancellable subscribers. Every new
// subscriber first receives the current history snapshot, then the
// live tail, so late subscribers are never starved of state.
//
// The session uses this for its device-status stream (last 50 status
// events) and its connection-status stream (the single last-known
// status), and for the live-only sensor and raw-message streams
// (capacity 0).
package stream
