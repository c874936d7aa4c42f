// Package recovery orchestrates manual reconnection across the broker
// session and the time-series store.
//
// One attempt at a time: an explicit in-progress flag rejects
// overlapping calls, and a throttle window rejects rapid retries
// (force bypasses the throttle, never the overlap guard). The two
// halves of an attempt succeed or fail independently and the Result
// reports both, so a caller can show "broker back, store still down"
// instead of a single all-or-nothing flag.
package recovery
