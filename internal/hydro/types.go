package hydro

import "time"

// Topic categories under the grow namespace.
// Topic shape: {namespace}/{node}/{category}
const (
	CategorySensor   = "sensor"
	CategoryActuator = "actuator"
	CategoryDevice   = "device"
)

// SensorTypeGeneric is the fallback type for unrecognised sensor
// deviceType values. Unknown types are accepted rather than rejected
// so new firmware can ship sensors before the core learns about them.
const SensorTypeGeneric = "generic"

// knownSensorTypes lists the sensor types the system renders natively.
var knownSensorTypes = map[string]struct{}{
	"temperature": {},
	"humidity":    {},
	"ph":          {},
	"ec":          {},
	"water_level": {},
	"light":       {},
	"co2":         {},
}

// Message is the raw demultiplexed unit: one inbound broker message
// before category-specific parsing. Immutable once constructed.
type Message struct {
	Topic   string
	Payload string
}

// SensorReading is a parsed sensor telemetry event.
//
// DeviceID is the synthetic join key {node}_{deviceType}_{deviceID}
// used across the whole system to correlate a wire message with a
// device entity.
type SensorReading struct {
	DeviceID   string
	Type       string
	Node       string
	Location   string
	Value      float64
	ReceivedAt time.Time
}

// DeviceStatus is a parsed actuator/device status event.
// DeviceID uses the same synthetic join key as SensorReading.
type DeviceStatus struct {
	DeviceID    string
	Type        string
	Node        string
	Location    string
	Description string
	Running     bool
	ReceivedAt  time.Time
}

// Command is an actuator command published to {namespace}/{node}/actuator/set.
type Command struct {
	DeviceID  string    `json:"deviceID"`
	Command   string    `json:"command"`
	Timestamp time.Time `json:"timestamp"`
}

// JoinKey builds the synthetic device identifier from its parts.
func JoinKey(node, deviceType, deviceID string) string {
	return node + "_" + deviceType + "_" + deviceID
}

// normalizeSensorType maps a wire deviceType to a known sensor type,
// falling back to SensorTypeGeneric for unrecognised values.
func normalizeSensorType(deviceType string) string {
	if _, ok := knownSensorTypes[deviceType]; ok {
		return deviceType
	}
	return SensorTypeGeneric
}
