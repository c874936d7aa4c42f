package session

import "github.com/verdantio/hydro-core/internal/hydro"

// Events receives transport-level notifications. It mirrors the
// transport wrapper's event interface so the paho adapter in main can
// satisfy both with one type.
type Events interface {
	Connected()
	ConnectionLost(err error)
	Reconnecting()
	Message(topic string, payload []byte)
}

type eventKind int

const (
	evtConnected eventKind = iota
	evtConnectionLost
	evtReconnecting
	evtMessage
)

// event is one transport notification queued for the demux goroutine.
type event struct {
	kind    eventKind
	topic   string
	payload []byte
	err     error
}

// sink adapts transport callbacks onto the session's event channel.
// Transport callbacks must never block, so a full channel drops the
// event rather than waiting.
type sink struct {
	s *Session
}

func (k sink) Connected() {
	k.s.push(event{kind: evtConnected})
}

func (k sink) ConnectionLost(err error) {
	k.s.push(event{kind: evtConnectionLost, err: err})
}

func (k sink) Reconnecting() {
	k.s.push(event{kind: evtReconnecting})
}

func (k sink) Message(topic string, payload []byte) {
	k.s.push(event{kind: evtMessage, topic: topic, payload: payload})
}

func (s *Session) push(e event) {
	select {
	case <-s.done:
	case s.events <- e:
	default:
		s.log.Debug("event channel full, dropping event", "kind", int(e.kind))
	}
}

// run is the demux loop: it consumes transport events in arrival order
// and fans messages out into the typed streams. One goroutine per
// session, started by New, stopped by Dispose.
func (s *Session) run() {
	for {
		select {
		case <-s.done:
			return
		case e := <-s.events:
			switch e.kind {
			case evtConnected:
				s.handleConnected()
			case evtConnectionLost:
				s.handleConnectionLost(e.err)
			case evtReconnecting:
				s.handleReconnecting()
			case evtMessage:
				s.handleMessage(e.topic, e.payload)
			}
		}
	}
}

// handleConnected establishes the fixed wildcard subscriptions. It runs
// on both the initial connect and every transport-level reconnect, so
// subscriptions survive a broker bounce. The readiness latch resolves
// only once all subscriptions are in place.
func (s *Session) handleConnected() {
	s.mu.Lock()
	if s.retired || s.disposed {
		s.mu.Unlock()
		return
	}
	s.transition(StateConnected)
	t := s.transport
	qos := s.qos
	subscriptions := s.topics.Subscriptions()
	s.mu.Unlock()

	if t == nil {
		return
	}

	for _, topic := range subscriptions {
		if err := t.Subscribe(topic, qos); err != nil {
			s.log.Warn("subscribe failed", "topic", topic, "error", err)
			return
		}
	}

	s.mu.Lock()
	s.resolveReady()
	s.mu.Unlock()

	s.log.Debug("subscriptions established", "topics", subscriptions)
}

func (s *Session) handleConnectionLost(err error) {
	s.mu.Lock()
	if s.retired || s.disposed {
		s.mu.Unlock()
		return
	}
	s.transition(StateDisconnected)
	s.mu.Unlock()

	s.log.Warn("connection lost", "error", err)
}

func (s *Session) handleReconnecting() {
	s.mu.Lock()
	if s.retired || s.disposed {
		s.mu.Unlock()
		return
	}
	s.status.Publish(StatusReconnecting)
	s.mu.Unlock()

	s.log.Info("transport reconnecting")
}

// handleMessage demultiplexes one inbound message.
//
// Every message lands on the raw stream. Messages matching the
// 3-segment {namespace}/{node}/{category} shape are parsed by
// category; a payload that fails to parse is dropped with a debug log
// and never disturbs the streams or the session state. Topics outside
// the namespace shape are ignored, and a retired session emits nothing
// even if a stale transport event slips past suppression.
func (s *Session) handleMessage(topic string, payload []byte) {
	s.mu.Lock()
	if s.retired || s.disposed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.raw.Publish(hydro.Message{Topic: topic, Payload: string(payload)})

	node, category, ok := s.topics.Split(topic)
	if !ok {
		return
	}

	switch category {
	case hydro.CategorySensor:
		reading, err := hydro.ParseSensorReading(node, payload)
		if err != nil {
			s.log.Debug("dropping malformed sensor payload", "topic", topic, "error", err)
			return
		}
		s.sensors.Publish(reading)

	case hydro.CategoryActuator, hydro.CategoryDevice:
		status, err := hydro.ParseDeviceStatus(node, payload)
		if err != nil {
			s.log.Debug("dropping malformed device payload", "topic", topic, "error", err)
			return
		}
		s.devices.Publish(status)
	}
}
