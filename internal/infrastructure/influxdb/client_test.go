package influxdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/verdantio/hydro-core/internal/hydro"
	"github.com/verdantio/hydro-core/internal/infrastructure/config"
)

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestHealthCheck_NotConnected(t *testing.T) {
	c := &Client{}

	err := c.HealthCheck(context.Background())
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestClose_ZeroClient(t *testing.T) {
	c := &Client{}

	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}

func TestWrites_DroppedWhenDisconnected(t *testing.T) {
	// A disconnected client silently drops writes; with a nil writeAPI
	// this would panic if the connected guard were missing.
	c := &Client{}

	c.WriteSensorReading(hydro.SensorReading{
		DeviceID:   "rpi_temperature_1",
		Type:       "temperature",
		Node:       "rpi",
		Value:      23.5,
		ReceivedAt: time.Now(),
	})
	c.WriteDeviceStatus(hydro.DeviceStatus{
		DeviceID:   "rpi_pump_1",
		Type:       "pump",
		Node:       "rpi",
		Running:    true,
		ReceivedAt: time.Now(),
	})
	c.Flush()
}

func TestIsConnected_InitiallyFalse(t *testing.T) {
	c := &Client{}

	if c.IsConnected() {
		t.Error("IsConnected() = true for zero client")
	}
}
