package influxdb

import (
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/verdantio/hydro-core/internal/hydro"
)

// WriteSensorReading records one sensor reading in the telemetry bucket.
//
// The write is non-blocking; data is batched and sent asynchronously.
// Writes on a disconnected client are dropped.
//
// Example:
//
//	client.WriteSensorReading(reading) // measurement "sensor", value 23.5
func (c *Client) WriteSensorReading(r hydro.SensorReading) {
	if !c.IsConnected() {
		return
	}

	tags := map[string]string{
		"device_id": r.DeviceID,
		"type":      r.Type,
		"node":      r.Node,
	}
	if r.Location != "" {
		tags["location"] = r.Location
	}

	point := write.NewPoint(
		"sensor",
		tags,
		map[string]interface{}{
			"value": r.Value,
		},
		r.ReceivedAt,
	)

	c.writeAPI.WritePoint(point)
}

// WriteDeviceStatus records one actuator/device status event.
//
// The running flag is stored as 0/1 so it can be graphed alongside
// numeric telemetry.
func (c *Client) WriteDeviceStatus(s hydro.DeviceStatus) {
	if !c.IsConnected() {
		return
	}

	running := 0
	if s.Running {
		running = 1
	}

	tags := map[string]string{
		"device_id": s.DeviceID,
		"type":      s.Type,
		"node":      s.Node,
	}
	if s.Location != "" {
		tags["location"] = s.Location
	}

	point := write.NewPoint(
		"device_status",
		tags,
		map[string]interface{}{
			"running": running,
		},
		s.ReceivedAt,
	)

	c.writeAPI.WritePoint(point)
}
