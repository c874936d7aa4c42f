package hydro

import (
	"fmt"
	"strings"
)

// DefaultNamespace is the leading topic segment for grow telemetry.
const DefaultNamespace = "grow"

// Topics provides builders for grow telemetry MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
// All telemetry topics follow the shape: {namespace}/{node}/{category}
//
//	topics := hydro.Topics{}
//	pattern := topics.AllSensors()
//	// Returns: "grow/+/sensor"
type Topics struct {
	// Namespace overrides DefaultNamespace when non-empty.
	Namespace string
}

func (t Topics) prefix() string {
	if t.Namespace != "" {
		return t.Namespace
	}
	return DefaultNamespace
}

// Sensor returns the sensor telemetry topic for a node.
//
// Example: grow/rpi/sensor
func (t Topics) Sensor(node string) string {
	return fmt.Sprintf("%s/%s/%s", t.prefix(), node, CategorySensor)
}

// Actuator returns the actuator status topic for a node.
//
// Example: grow/rpi/actuator
func (t Topics) Actuator(node string) string {
	return fmt.Sprintf("%s/%s/%s", t.prefix(), node, CategoryActuator)
}

// Device returns the device status topic for a node.
//
// Example: grow/rpi/device
func (t Topics) Device(node string) string {
	return fmt.Sprintf("%s/%s/%s", t.prefix(), node, CategoryDevice)
}

// ActuatorSet returns the actuator command topic for a node.
//
// Example: grow/rpi/actuator/set
func (t Topics) ActuatorSet(node string) string {
	return fmt.Sprintf("%s/%s/%s/set", t.prefix(), node, CategoryActuator)
}

// AllSensors returns a pattern matching sensor telemetry from every node.
//
// Pattern: grow/+/sensor
func (t Topics) AllSensors() string {
	return fmt.Sprintf("%s/+/%s", t.prefix(), CategorySensor)
}

// AllActuators returns a pattern matching actuator status from every node.
//
// Pattern: grow/+/actuator
func (t Topics) AllActuators() string {
	return fmt.Sprintf("%s/+/%s", t.prefix(), CategoryActuator)
}

// AllDevices returns a pattern matching device status from every node.
//
// Pattern: grow/+/device
func (t Topics) AllDevices() string {
	return fmt.Sprintf("%s/+/%s", t.prefix(), CategoryDevice)
}

// Subscriptions returns the fixed topic set the session subscribes to
// on every successful connect.
func (t Topics) Subscriptions() []string {
	return []string{t.AllSensors(), t.AllActuators(), t.AllDevices()}
}

// Split decomposes a telemetry topic into its node and category.
//
// Only the exact 3-segment shape {namespace}/{node}/{category} with a
// recognised category is accepted; everything else reports ok=false
// and is ignored by the demux.
func (t Topics) Split(topic string) (node, category string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != t.prefix() {
		return "", "", false
	}
	switch parts[2] {
	case CategorySensor, CategoryActuator, CategoryDevice:
		return parts[1], parts[2], true
	default:
		return "", "", false
	}
}
