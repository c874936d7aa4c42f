package recorder

import (
	"sync"
	"testing"
	"time"

	"github.com/verdantio/hydro-core/internal/hydro"
	"github.com/verdantio/hydro-core/internal/infrastructure/config"
	"github.com/verdantio/hydro-core/internal/infrastructure/logging"
	"github.com/verdantio/hydro-core/internal/stream"
)

type fakeSource struct {
	sensors *stream.Broadcaster[hydro.SensorReading]
	devices *stream.Broadcaster[hydro.DeviceStatus]
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		sensors: stream.New[hydro.SensorReading](0),
		devices: stream.New[hydro.DeviceStatus](0),
	}
}

func (f *fakeSource) SensorReadings() *stream.Subscription[hydro.SensorReading] {
	return f.sensors.Subscribe()
}

func (f *fakeSource) DeviceStatuses() *stream.Subscription[hydro.DeviceStatus] {
	return f.devices.Subscribe()
}

type fakeStore struct {
	mu       sync.Mutex
	readings []hydro.SensorReading
	statuses []hydro.DeviceStatus
}

func (f *fakeStore) WriteSensorReading(r hydro.SensorReading) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readings = append(f.readings, r)
}

func (f *fakeStore) WriteDeviceStatus(s hydro.DeviceStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, s)
}

func (f *fakeStore) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.readings), len(f.statuses)
}

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}, "test")
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestRecorder_WritesStreamEvents(t *testing.T) {
	source := newFakeSource()
	store := &fakeStore{}
	rec := New(source, store, testLogger())

	rec.Start()
	defer rec.Stop()

	source.sensors.Publish(hydro.SensorReading{DeviceID: "rpi_temperature_1", Value: 23.5})
	source.devices.Publish(hydro.DeviceStatus{DeviceID: "rpi_pump_1", Running: true})

	waitFor(t, func() bool {
		r, s := store.counts()
		return r == 1 && s == 1
	})

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.readings[0].DeviceID != "rpi_temperature_1" {
		t.Errorf("reading DeviceID = %q, want %q", store.readings[0].DeviceID, "rpi_temperature_1")
	}
	if store.statuses[0].DeviceID != "rpi_pump_1" {
		t.Errorf("status DeviceID = %q, want %q", store.statuses[0].DeviceID, "rpi_pump_1")
	}
}

func TestRecorder_StopDetaches(t *testing.T) {
	source := newFakeSource()
	store := &fakeStore{}
	rec := New(source, store, testLogger())

	rec.Start()
	rec.Stop()
	rec.Stop() // idempotent

	source.sensors.Publish(hydro.SensorReading{DeviceID: "rpi_temperature_1", Value: 1})

	time.Sleep(10 * time.Millisecond)
	if r, _ := store.counts(); r != 0 {
		t.Errorf("recorded %d readings after Stop(), want 0", r)
	}
}

func TestRecorder_NilStoreDisabled(t *testing.T) {
	source := newFakeSource()
	rec := New(source, nil, testLogger())

	rec.Start() // must not panic or subscribe
	rec.Stop()
}

func TestRecorder_StartIdempotent(t *testing.T) {
	source := newFakeSource()
	store := &fakeStore{}
	rec := New(source, store, testLogger())

	rec.Start()
	rec.Start()
	defer rec.Stop()

	source.sensors.Publish(hydro.SensorReading{DeviceID: "rpi_ec_1", Value: 1.8})

	waitFor(t, func() bool {
		r, _ := store.counts()
		return r >= 1
	})

	time.Sleep(10 * time.Millisecond)
	if r, _ := store.counts(); r != 1 {
		t.Errorf("recorded %d readings, want 1 (double Start must not double-subscribe)", r)
	}
}
