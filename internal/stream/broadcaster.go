package stream

import "sync"

// subscriberHeadroom is extra buffer beyond the replay capacity so a
// subscriber that keeps pace never blocks the publisher.
const subscriberHeadroom = 64

// Broadcaster fans events out to any number of independent subscribers,
// replaying a bounded history of recent events to each new subscriber
// before its live tail.
//
// A subscriber attaching after events [A, B, C] were published observes
// exactly [A, B, C] followed by every later event, with no gap or
// duplicate between the replay and the live registration: the history
// snapshot is copied into the subscriber channel and the subscriber
// registered under one lock acquisition, so no publish can interleave.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Each subscription is cancelled independently; cancelling one
//     never affects the others.
//
// Subscribers that stop draining lose the newest events once their
// channel buffer fills; the publisher never blocks on a slow consumer.
type Broadcaster[T any] struct {
	mu       sync.Mutex
	capacity int
	history  []T
	subs     map[uint64]chan T
	nextID   uint64
	closed   bool
}

// Subscription is one subscriber's view of a Broadcaster.
// Receive from C; call Cancel when done.
type Subscription[T any] struct {
	// C delivers the history replay followed by live events.
	// C is closed when the subscription is cancelled or the
	// broadcaster is closed.
	C <-chan T

	cancel func()
	once   sync.Once
}

// Cancel detaches this subscription and closes its channel.
// Idempotent; other subscriptions are unaffected.
func (s *Subscription[T]) Cancel() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// New creates a Broadcaster that replays up to capacity recent events
// to each new subscriber. A capacity of 0 means live-only (no replay).
func New[T any](capacity int) *Broadcaster[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Broadcaster[T]{
		capacity: capacity,
		subs:     make(map[uint64]chan T),
	}
}

// Publish appends v to the replay history (evicting the oldest entry
// once capacity is exceeded) and delivers it to every subscriber.
// Publishing to a closed broadcaster is a no-op.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	if b.capacity > 0 {
		b.history = append(b.history, v)
		if len(b.history) > b.capacity {
			// FIFO eviction; reallocate occasionally so the backing
			// array does not grow without bound.
			if cap(b.history) > 2*b.capacity {
				trimmed := make([]T, b.capacity)
				copy(trimmed, b.history[1:])
				b.history = trimmed
			} else {
				b.history = b.history[1:]
			}
		}
	}

	for _, ch := range b.subs {
		select {
		case ch <- v:
		default:
			// Subscriber buffer full; drop for that subscriber only.
		}
	}
}

// Subscribe attaches a new subscriber.
//
// The returned subscription's channel first yields a snapshot of the
// current history (oldest first), then every subsequent live event.
// Subscribing to a closed broadcaster yields an already-closed channel.
func (b *Broadcaster[T]) Subscribe() *Subscription[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan T, b.capacity+subscriberHeadroom)
	sub := &Subscription[T]{C: ch}

	if b.closed {
		close(ch)
		return sub
	}

	// Buffer is sized to hold the full history, so these sends never block.
	for _, v := range b.history {
		ch <- v
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	sub.cancel = func() { b.remove(id) }

	return sub
}

// remove detaches one subscriber and closes its channel.
func (b *Broadcaster[T]) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Last returns the most recent event in the replay history.
func (b *Broadcaster[T]) Last() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.history) == 0 {
		var zero T
		return zero, false
	}
	return b.history[len(b.history)-1], true
}

// Clear discards the replay history. Existing subscribers keep their
// channels; only the replay shown to future subscribers is affected.
func (b *Broadcaster[T]) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = nil
}

// Close detaches every subscriber and closes their channels.
// Idempotent; Publish and Subscribe after Close are safe no-ops.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// Closed reports whether Close has been called.
func (b *Broadcaster[T]) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
