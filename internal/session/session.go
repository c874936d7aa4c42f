package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/verdantio/hydro-core/internal/hydro"
	"github.com/verdantio/hydro-core/internal/infrastructure/logging"
	"github.com/verdantio/hydro-core/internal/stream"
)

// Defaults applied when Options fields are zero.
const (
	defaultHistorySize  = 50
	defaultReadyTimeout = 5 * time.Second
	defaultQoS          = 1

	// disconnectQuiesce allows in-flight operations to finish before the
	// transport is torn down.
	disconnectQuiesce = 250 * time.Millisecond

	// eventBuffer sizes the internal event channel between transport
	// callbacks and the demux goroutine.
	eventBuffer = 256
)

// State is the session's connection state.
//
// At most one of StateConnecting/StateConnected holds at any time, and
// StateConnecting only spans an admitted Connect call.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Status is a connection status event published on the status stream.
//
// The status stream replays only the last-known status to new
// subscribers, so a late subscriber immediately learns where the
// connection stands.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusReconnecting Status = "reconnecting"
)

// Transport is one broker connection as the session consumes it.
// *mqtt.Transport satisfies this; tests provide fakes.
type Transport interface {
	Connect(ctx context.Context) error
	Subscribe(topic string, qos byte) error
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Disconnect(quiesce time.Duration)
	Suppress()
	IsConnected() bool
}

// TransportFactory builds a fresh transport wired to the given event
// sink. The session calls it once per admitted connect attempt so a
// discarded transport is never reused.
type TransportFactory func(events Events) (Transport, error)

// Options configures a Session. Zero fields take defaults.
type Options struct {
	// Namespace is the leading topic segment ("grow" by default).
	Namespace string

	// HistorySize is the device-status replay depth (default 50).
	HistorySize int

	// ReadyTimeout bounds EnsureInitialized's wait (default 5s).
	ReadyTimeout time.Duration

	// QoS for subscriptions and command publishes (default 1).
	QoS byte
}

// Session owns one logical broker connection and demultiplexes its
// inbound messages into typed streams.
//
// Lifecycle: a session is built by New, connected with Connect, and
// either reset for reuse or retired when superseded. Retire is one-way
// and makes every later operation a successful no-op; it does NOT
// release resources — that is Dispose's job. A retired session's
// transport has its event delivery severed, so a stale connection can
// never write into the streams again.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Stream delivery happens on a single internal demux goroutine, so
//     subscribers observe events in arrival order.
type Session struct {
	factory TransportFactory
	log     *logging.Logger
	topics  hydro.Topics
	qos     byte

	readyTimeout time.Duration

	mu        sync.Mutex
	state     State
	retired   bool
	disposed  bool
	attempts  int
	transport Transport

	// initCh is the readiness latch: closed once the wildcard
	// subscriptions are in place. Re-armed by Reset and Disconnect.
	initCh chan struct{}
	ready  bool

	raw     *stream.Broadcaster[hydro.Message]
	sensors *stream.Broadcaster[hydro.SensorReading]
	devices *stream.Broadcaster[hydro.DeviceStatus]
	status  *stream.Broadcaster[Status]

	events chan event
	done   chan struct{}
}

// New creates a Session that builds transports with the given factory.
//
// The demux goroutine starts immediately and runs until Dispose.
func New(factory TransportFactory, opts Options, log *logging.Logger) *Session {
	if log == nil {
		log = logging.Default()
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = defaultHistorySize
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = defaultReadyTimeout
	}
	if opts.QoS == 0 {
		opts.QoS = defaultQoS
	}

	s := &Session{
		factory:      factory,
		log:          log.With("component", "session"),
		topics:       hydro.Topics{Namespace: opts.Namespace},
		qos:          opts.QoS,
		readyTimeout: opts.ReadyTimeout,
		initCh:       make(chan struct{}),
		raw:          stream.New[hydro.Message](0),
		sensors:      stream.New[hydro.SensorReading](0),
		devices:      stream.New[hydro.DeviceStatus](opts.HistorySize),
		status:       stream.New[Status](1),
		events:       make(chan event, eventBuffer),
		done:         make(chan struct{}),
	}

	go s.run()

	return s
}

// Connect establishes the broker connection.
//
// Admission is single-flight: if the session is already connecting or
// connected the call returns nil immediately without side effects, and
// a retired or disposed session always reports success. Exactly one
// admitted attempt can be in flight, and the attempt counter increments
// once per admitted attempt.
//
// On success the session subscribes to the fixed wildcard set
// ({namespace}/+/sensor, /actuator, /device); EnsureInitialized waits
// for those subscriptions to land.
//
// Returns:
//   - error: nil on success or when the call was a no-op; the
//     transport's error otherwise
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.retired || s.disposed {
		s.mu.Unlock()
		return nil
	}
	if s.state == StateConnecting || s.state == StateConnected {
		s.mu.Unlock()
		return nil
	}

	s.attempts++
	attempt := s.attempts
	s.transition(StateConnecting)
	s.mu.Unlock()

	s.log.Info("connecting", "attempt", attempt)

	transport, err := s.factory(sink{s})
	if err != nil {
		s.failConnect()
		return fmt.Errorf("building transport: %w", err)
	}

	// Store before the handshake so the connected event handler always
	// finds the transport, even when the callback outruns this call.
	s.mu.Lock()
	if s.retired || s.disposed {
		s.state = StateDisconnected
		s.mu.Unlock()
		transport.Suppress()
		return nil
	}
	s.transport = transport
	s.mu.Unlock()

	if err := transport.Connect(ctx); err != nil {
		s.mu.Lock()
		s.transport = nil
		s.mu.Unlock()
		s.failConnect()
		s.log.Warn("connect failed", "attempt", attempt, "error", err)
		return fmt.Errorf("connecting transport: %w", err)
	}

	s.mu.Lock()
	if s.retired || s.disposed {
		s.transport = nil
		s.state = StateDisconnected
		s.mu.Unlock()
		transport.Suppress()
		transport.Disconnect(disconnectQuiesce)
		return nil
	}
	s.transition(StateConnected)
	s.mu.Unlock()

	s.log.Info("connected", "attempt", attempt)
	return nil
}

// failConnect returns the session to the disconnected state after a
// failed admitted attempt.
func (s *Session) failConnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retired || s.disposed {
		s.state = StateDisconnected
		return
	}
	s.transition(StateDisconnected)
}

// transition moves the state machine and publishes the matching status
// event. No-op when the state is unchanged. Caller must hold s.mu.
func (s *Session) transition(to State) {
	if s.state == to {
		return
	}
	s.state = to

	switch to {
	case StateConnecting:
		s.status.Publish(StatusConnecting)
	case StateConnected:
		s.status.Publish(StatusConnected)
	case StateDisconnected:
		s.status.Publish(StatusDisconnected)
	}
}

// EnsureInitialized waits until the session's subscriptions are in
// place, or the timeout elapses, whichever comes first.
//
// The wait is silent: it never fails, it just bounds how long a caller
// blocks before proceeding with whatever state the session is in. A
// timeout <= 0 uses the configured ready timeout.
func (s *Session) EnsureInitialized(timeout time.Duration) {
	if timeout <= 0 {
		timeout = s.readyTimeout
	}

	s.mu.Lock()
	ch := s.initCh
	s.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ch:
	case <-timer.C:
	}
}

// resolveReady releases EnsureInitialized waiters. Caller must hold s.mu.
func (s *Session) resolveReady() {
	if !s.ready {
		s.ready = true
		close(s.initCh)
	}
}

// rearmReady resolves any current waiters and arms a fresh latch for
// the next connect cycle. Caller must hold s.mu.
func (s *Session) rearmReady() {
	s.resolveReady()
	s.ready = false
	s.initCh = make(chan struct{})
}

// Disconnect tears down the transport and reports the disconnected
// status. The streams stay open; a later Connect resumes delivery into
// the same streams. No-op on a retired or disposed session.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if s.retired || s.disposed {
		s.mu.Unlock()
		return
	}
	t := s.transport
	s.transport = nil
	s.transition(StateDisconnected)
	s.rearmReady()
	s.mu.Unlock()

	if t != nil {
		t.Suppress()
		t.Disconnect(disconnectQuiesce)
	}

	s.log.Info("disconnected")
}

// Reset returns the session to a clean disconnected state: the
// transport is discarded, the device-status replay history is cleared,
// and the readiness latch is re-armed. Subscribers keep their streams.
// No-op on a retired or disposed session.
func (s *Session) Reset() {
	s.mu.Lock()
	if s.retired || s.disposed {
		s.mu.Unlock()
		return
	}
	t := s.transport
	s.transport = nil
	s.transition(StateDisconnected)
	s.rearmReady()
	s.mu.Unlock()

	if t != nil {
		t.Suppress()
		t.Disconnect(disconnectQuiesce)
	}

	s.devices.Clear()

	s.log.Info("session reset")
}

// Retire permanently takes the session out of service.
//
// Retirement is one-way and idempotent: every later Connect, Reset,
// Disconnect, and PublishCommand is a successful no-op, and the
// transport's event delivery is severed so nothing stale can reach the
// streams. Retirement does not release resources; call Dispose for
// that.
func (s *Session) Retire() {
	s.mu.Lock()
	if s.retired {
		s.mu.Unlock()
		return
	}
	s.retired = true
	t := s.transport
	s.mu.Unlock()

	if t != nil {
		t.Suppress()
	}

	s.log.Info("session retired")
}

// Dispose releases the session's resources: the transport is
// suppressed and disconnected, the demux goroutine stops, all streams
// are closed, and any EnsureInitialized waiters are released.
// Idempotent; implies Retire.
func (s *Session) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	s.retired = true
	t := s.transport
	s.transport = nil
	s.state = StateDisconnected
	s.resolveReady()
	s.mu.Unlock()

	close(s.done)

	if t != nil {
		t.Suppress()
		t.Disconnect(disconnectQuiesce)
	}

	s.raw.Close()
	s.sensors.Close()
	s.devices.Close()
	s.status.Close()

	s.log.Info("session disposed")
}

// PublishCommand sends an actuator command derived from the device's
// synthetic identifier ({node}_{deviceType}_{deviceID}); the command
// goes to {namespace}/{node}/actuator/set with a UTC timestamp.
//
// Returns:
//   - error: nil on success (or retired no-op); ErrNotConnected when
//     no transport is up; hydro's sentinels on malformed input
func (s *Session) PublishCommand(deviceID, command string) error {
	s.mu.Lock()
	if s.retired || s.disposed {
		s.mu.Unlock()
		return nil
	}
	t := s.transport
	connected := s.state == StateConnected
	s.mu.Unlock()

	if t == nil || !connected {
		return ErrNotConnected
	}

	topic, payload, err := hydro.BuildCommand(s.topics, deviceID, command)
	if err != nil {
		return err
	}

	if err := t.Publish(topic, payload, s.qos, false); err != nil {
		return fmt.Errorf("publishing command: %w", err)
	}

	s.log.Debug("command published", "device_id", deviceID, "command", command)
	return nil
}

// Messages subscribes to the raw message stream (live only).
func (s *Session) Messages() *stream.Subscription[hydro.Message] {
	return s.raw.Subscribe()
}

// SensorReadings subscribes to parsed sensor telemetry (live only).
func (s *Session) SensorReadings() *stream.Subscription[hydro.SensorReading] {
	return s.sensors.Subscribe()
}

// DeviceStatuses subscribes to parsed actuator/device status events.
// New subscribers first replay the recent history (up to the configured
// capacity), then receive live events.
func (s *Session) DeviceStatuses() *stream.Subscription[hydro.DeviceStatus] {
	return s.devices.Subscribe()
}

// StatusUpdates subscribes to connection status events. New subscribers
// first receive the last-known status.
func (s *Session) StatusUpdates() *stream.Subscription[Status] {
	return s.status.Subscribe()
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsConnected reports whether the session is connected.
func (s *Session) IsConnected() bool {
	return s.State() == StateConnected
}

// IsRetired reports whether the session has been retired.
func (s *Session) IsRetired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retired
}

// Attempts returns how many connect attempts have been admitted.
func (s *Session) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}
