// Package hydro defines the wire and domain model for grow telemetry.
//
// This package manages:
//   - Topic builders and the {namespace}/{node}/{category} shape
//   - Parsing sensor and actuator/device JSON payloads
//   - The synthetic device join key {node}_{deviceType}_{deviceID}
//   - Actuator command construction
//
// Parsing is deliberately tolerant: deviceID and value fields arrive
// as strings or numbers depending on node firmware, and unrecognised
// sensor types fall back to a generic type instead of being rejected.
// A payload that cannot be parsed at all yields ErrMalformedPayload,
// which the session demux converts into a silent drop so one device's
// bad firmware cannot disturb telemetry for the rest.
package hydro
