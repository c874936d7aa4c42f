package hydro

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		builder  func() string
		expected string
	}{
		{
			name:     "Sensor",
			builder:  func() string { return Topics{}.Sensor("rpi") },
			expected: "grow/rpi/sensor",
		},
		{
			name:     "Actuator",
			builder:  func() string { return Topics{}.Actuator("rpi") },
			expected: "grow/rpi/actuator",
		},
		{
			name:     "Device",
			builder:  func() string { return Topics{}.Device("tent2") },
			expected: "grow/tent2/device",
		},
		{
			name:     "ActuatorSet",
			builder:  func() string { return Topics{}.ActuatorSet("rpi") },
			expected: "grow/rpi/actuator/set",
		},
		{
			name:     "AllSensors",
			builder:  func() string { return Topics{}.AllSensors() },
			expected: "grow/+/sensor",
		},
		{
			name:     "AllActuators",
			builder:  func() string { return Topics{}.AllActuators() },
			expected: "grow/+/actuator",
		},
		{
			name:     "AllDevices",
			builder:  func() string { return Topics{}.AllDevices() },
			expected: "grow/+/device",
		},
		{
			name:     "CustomNamespace",
			builder:  func() string { return Topics{Namespace: "farm"}.Sensor("n1") },
			expected: "farm/n1/sensor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.builder()
			if result != tt.expected {
				t.Errorf("%s() = %q, want %q", tt.name, result, tt.expected)
			}
		})
	}
}

func TestTopics_Subscriptions(t *testing.T) {
	subs := Topics{}.Subscriptions()
	want := []string{"grow/+/sensor", "grow/+/actuator", "grow/+/device"}

	if len(subs) != len(want) {
		t.Fatalf("Subscriptions() returned %d topics, want %d", len(subs), len(want))
	}
	for i, topic := range want {
		if subs[i] != topic {
			t.Errorf("Subscriptions()[%d] = %q, want %q", i, subs[i], topic)
		}
	}
}

func TestTopics_Split(t *testing.T) {
	tests := []struct {
		topic        string
		wantNode     string
		wantCategory string
		wantOK       bool
	}{
		{"grow/rpi/sensor", "rpi", "sensor", true},
		{"grow/tent2/actuator", "tent2", "actuator", true},
		{"grow/esp32/device", "esp32", "device", true},
		{"grow/rpi/unknown", "", "", false},
		{"grow/rpi/actuator/set", "", "", false},
		{"grow/rpi", "", "", false},
		{"other/rpi/sensor", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			node, category, ok := Topics{}.Split(tt.topic)
			if ok != tt.wantOK {
				t.Fatalf("Split(%q) ok = %v, want %v", tt.topic, ok, tt.wantOK)
			}
			if node != tt.wantNode || category != tt.wantCategory {
				t.Errorf("Split(%q) = (%q, %q), want (%q, %q)",
					tt.topic, node, category, tt.wantNode, tt.wantCategory)
			}
		})
	}
}

func TestBuildCommand(t *testing.T) {
	topic, payload, err := BuildCommand(Topics{}, "rpi_pump_3", "on")
	if err != nil {
		t.Fatalf("BuildCommand() error = %v", err)
	}

	if topic != "grow/rpi/actuator/set" {
		t.Errorf("topic = %q, want %q", topic, "grow/rpi/actuator/set")
	}

	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if cmd.DeviceID != "rpi_pump_3" {
		t.Errorf("payload deviceID = %q, want %q", cmd.DeviceID, "rpi_pump_3")
	}
	if cmd.Command != "on" {
		t.Errorf("payload command = %q, want %q", cmd.Command, "on")
	}
	if cmd.Timestamp.IsZero() {
		t.Error("payload timestamp is zero")
	}
	if cmd.Timestamp.Location() != time.UTC {
		t.Errorf("payload timestamp location = %v, want UTC", cmd.Timestamp.Location())
	}
	if !strings.Contains(string(payload), `"timestamp"`) {
		t.Error("payload missing timestamp field")
	}
}

func TestBuildCommand_InvalidInput(t *testing.T) {
	if _, _, err := BuildCommand(Topics{}, "rpi_pump_3", ""); err == nil {
		t.Error("BuildCommand() expected error for empty command")
	}
	if _, _, err := BuildCommand(Topics{}, "no-underscores", "on"); err == nil {
		t.Error("BuildCommand() expected error for malformed device ID")
	}
	if _, _, err := BuildCommand(Topics{}, "_pump_3", "on"); err == nil {
		t.Error("BuildCommand() expected error for empty node segment")
	}
}
