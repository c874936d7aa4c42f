// Package influxdb provides the time-series store client for Hydro Core.
//
// This package manages:
//   - Connection to InfluxDB v2 with token authentication
//   - Non-blocking, batched telemetry writes (sensor readings and
//     device status events)
//   - The health probe used by the recovery orchestrator
//
// The recovery orchestrator treats this store as a black box with one
// contract: HealthCheck(ctx) passes or fails. Everything else here is
// the telemetry recording path.
//
// Usage:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteSensorReading(reading)
package influxdb
