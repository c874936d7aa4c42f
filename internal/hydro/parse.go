package hydro

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// sensorPayload mirrors the JSON shape published by sensor nodes.
// deviceID and value arrive as either strings or numbers depending on
// the node firmware, so both are decoded loosely and coerced.
type sensorPayload struct {
	DeviceType string `json:"deviceType"`
	DeviceID   any    `json:"deviceID"`
	Value      any    `json:"value"`
	Location   string `json:"location"`
}

// devicePayload mirrors the JSON shape published by actuator/device nodes.
type devicePayload struct {
	DeviceType  string `json:"deviceType"`
	DeviceID    any    `json:"deviceID"`
	Location    string `json:"location"`
	Running     bool   `json:"running"`
	Description string `json:"description"`
}

// ParseSensorReading decodes a sensor payload received from the given node.
//
// Required fields: deviceType (string), deviceID (string or number),
// value (number or numeric string). An unrecognised deviceType falls
// back to the generic sensor type rather than failing.
//
// Returns:
//   - SensorReading: The parsed reading with its synthetic DeviceID
//   - error: Wrapped ErrMalformedPayload on any shape or type failure
func ParseSensorReading(node string, payload []byte) (SensorReading, error) {
	var raw sensorPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return SensorReading{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	if raw.DeviceType == "" {
		return SensorReading{}, fmt.Errorf("%w: missing deviceType", ErrMalformedPayload)
	}

	id, err := coerceString(raw.DeviceID)
	if err != nil {
		return SensorReading{}, fmt.Errorf("%w: deviceID: %w", ErrMalformedPayload, err)
	}

	value, err := coerceFloat(raw.Value)
	if err != nil {
		return SensorReading{}, fmt.Errorf("%w: value: %w", ErrMalformedPayload, err)
	}

	return SensorReading{
		DeviceID:   JoinKey(node, raw.DeviceType, id),
		Type:       normalizeSensorType(raw.DeviceType),
		Node:       node,
		Location:   raw.Location,
		Value:      value,
		ReceivedAt: time.Now().UTC(),
	}, nil
}

// ParseDeviceStatus decodes an actuator/device status payload received
// from the given node.
//
// Required fields: deviceType (string), deviceID (string or number).
// location, running, and description are optional.
//
// Returns:
//   - DeviceStatus: The parsed status with its synthetic DeviceID
//   - error: Wrapped ErrMalformedPayload on any shape or type failure
func ParseDeviceStatus(node string, payload []byte) (DeviceStatus, error) {
	var raw devicePayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return DeviceStatus{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	if raw.DeviceType == "" {
		return DeviceStatus{}, fmt.Errorf("%w: missing deviceType", ErrMalformedPayload)
	}

	id, err := coerceString(raw.DeviceID)
	if err != nil {
		return DeviceStatus{}, fmt.Errorf("%w: deviceID: %w", ErrMalformedPayload, err)
	}

	return DeviceStatus{
		DeviceID:    JoinKey(node, raw.DeviceType, id),
		Type:        raw.DeviceType,
		Node:        node,
		Location:    raw.Location,
		Description: raw.Description,
		Running:     raw.Running,
		ReceivedAt:  time.Now().UTC(),
	}, nil
}

// coerceString accepts a JSON string or number and returns it as a string.
func coerceString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		if val == "" {
			return "", fmt.Errorf("empty value")
		}
		return val, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case nil:
		return "", fmt.Errorf("missing value")
	default:
		return "", fmt.Errorf("unsupported type %T", v)
	}
}

// coerceFloat accepts a JSON number or numeric string and returns a float64.
func coerceFloat(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, fmt.Errorf("not numeric: %q", val)
		}
		return f, nil
	case nil:
		return 0, fmt.Errorf("missing value")
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
