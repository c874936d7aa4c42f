package session

import "errors"

// ErrNotConnected indicates an operation needing a live broker
// connection was attempted while the session was disconnected.
var ErrNotConnected = errors.New("session: not connected")
