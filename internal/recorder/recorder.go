package recorder

import (
	"sync"

	"github.com/verdantio/hydro-core/internal/hydro"
	"github.com/verdantio/hydro-core/internal/infrastructure/logging"
	"github.com/verdantio/hydro-core/internal/stream"
)

// Source provides the telemetry streams to record. *session.Session
// satisfies it.
type Source interface {
	SensorReadings() *stream.Subscription[hydro.SensorReading]
	DeviceStatuses() *stream.Subscription[hydro.DeviceStatus]
}

// Store persists telemetry points. *influxdb.Client satisfies it.
type Store interface {
	WriteSensorReading(r hydro.SensorReading)
	WriteDeviceStatus(s hydro.DeviceStatus)
}

// Recorder pipes the session's telemetry streams into the time-series
// store. It consumes sensor readings and device status events from
// Start until Stop and writes each as a point; writes are batched and
// non-blocking inside the store.
//
// A nil store disables recording: Start logs once and does nothing.
type Recorder struct {
	source Source
	store  Store
	log    *logging.Logger

	mu      sync.Mutex
	started bool
	sensors *stream.Subscription[hydro.SensorReading]
	devices *stream.Subscription[hydro.DeviceStatus]
	wg      sync.WaitGroup
}

// New creates a Recorder. Pass a nil store when no time-series store
// is configured.
func New(source Source, store Store, log *logging.Logger) *Recorder {
	if log == nil {
		log = logging.Default()
	}
	return &Recorder{
		source: source,
		store:  store,
		log:    log.With("component", "recorder"),
	}
}

// Start subscribes to the telemetry streams and begins recording.
// Calling Start on a running recorder is a no-op.
func (r *Recorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return
	}
	if r.store == nil {
		r.log.Info("telemetry recording disabled")
		return
	}
	r.started = true

	r.sensors = r.source.SensorReadings()
	r.devices = r.source.DeviceStatuses()

	r.wg.Add(2)
	go r.recordSensors(r.sensors)
	go r.recordDevices(r.devices)

	r.log.Info("telemetry recording started")
}

func (r *Recorder) recordSensors(sub *stream.Subscription[hydro.SensorReading]) {
	defer r.wg.Done()
	for reading := range sub.C {
		r.store.WriteSensorReading(reading)
	}
}

func (r *Recorder) recordDevices(sub *stream.Subscription[hydro.DeviceStatus]) {
	defer r.wg.Done()
	for status := range sub.C {
		r.store.WriteDeviceStatus(status)
	}
}

// Stop cancels the stream subscriptions and waits for the recording
// goroutines to drain. Idempotent.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	sensors, devices := r.sensors, r.devices
	r.sensors, r.devices = nil, nil
	r.mu.Unlock()

	sensors.Cancel()
	devices.Cancel()
	r.wg.Wait()

	r.log.Info("telemetry recording stopped")
}
