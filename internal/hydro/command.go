package hydro

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// BuildCommand constructs the topic and JSON payload for an actuator
// command.
//
// The target node is derived from the first underscore-delimited
// segment of the device's synthetic identifier, and the command is
// published to {namespace}/{node}/actuator/set with a UTC timestamp.
//
// Parameters:
//   - topics: Topic builder (carries the namespace)
//   - deviceID: Synthetic identifier ({node}_{deviceType}_{deviceID})
//   - command: The actuator command string (e.g., "on", "off")
//
// Returns:
//   - string: The command topic
//   - []byte: The JSON payload
//   - error: ErrInvalidDeviceID or ErrInvalidCommand on bad input
func BuildCommand(topics Topics, deviceID, command string) (string, []byte, error) {
	if command == "" {
		return "", nil, ErrInvalidCommand
	}

	node, _, found := strings.Cut(deviceID, "_")
	if !found || node == "" {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidDeviceID, deviceID)
	}

	payload, err := json.Marshal(Command{
		DeviceID:  deviceID,
		Command:   command,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return "", nil, fmt.Errorf("encoding command: %w", err)
	}

	return topics.ActuatorSet(node), payload, nil
}
