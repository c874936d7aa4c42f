package hydro

import "errors"

// Domain-specific errors for telemetry parsing and command building.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrMalformedPayload is returned when a wire payload cannot be
	// decoded into its domain event. The demux drops such messages
	// silently; this error never reaches stream subscribers.
	ErrMalformedPayload = errors.New("hydro: malformed payload")

	// ErrInvalidDeviceID is returned when a synthetic device identifier
	// does not have the {node}_{deviceType}_{deviceID} shape.
	ErrInvalidDeviceID = errors.New("hydro: invalid device identifier")

	// ErrInvalidCommand is returned when an actuator command is empty.
	ErrInvalidCommand = errors.New("hydro: command cannot be empty")
)
