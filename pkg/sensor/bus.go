package sensor

import (
	"sync"
	"sync/atomic"
)

// Bus fans sensor events out to subscribers (the websocket demo feed
// in cmd/cyre-demo, or a test assertion channel), non-blocking, with
// events dropped rather than backpressuring the call path on a slow
// subscriber. Grounded directly on the teacher's
// internal/realtime.DefaultEventBus: a buffered channel per subscriber,
// a map guarded by sync.RWMutex, and a dedicated broadcast goroutine
// started by NewBus and stopped by Close.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[uint64]chan Event
	nextID      uint64

	events  chan Event
	closed  chan struct{}
	once    sync.Once
	dropped atomic.Int64
}

// NewBus creates a Bus with the given event queue depth.
func NewBus(queueDepth int) *Bus {
	if queueDepth <= 0 {
		queueDepth = 1000
	}
	b := &Bus{
		subscribers: make(map[uint64]chan Event),
		events:      make(chan Event, queueDepth),
		closed:      make(chan struct{}),
	}
	go b.run()
	return b
}

// Emit implements Sink: a non-blocking send to the internal broadcast
// queue. If the queue is full the event is dropped and counted,
// mirroring the teacher's "channel full, drop event" posture rather
// than blocking the call path.
func (b *Bus) Emit(e Event) {
	select {
	case b.events <- e:
	default:
		b.dropped.Add(1)
	}
}

// Dropped reports how many events have been dropped for queue
// overflow since the bus was created.
func (b *Bus) Dropped() int64 { return b.dropped.Load() }

// Subscribe registers a new listener and returns its event channel and
// an unsubscribe function. The channel is closed when Unsubscribe runs.
func (b *Bus) Subscribe(bufferSize int) (<-chan Event, func()) {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	ch := make(chan Event, bufferSize)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = ch
	b.mu.Unlock()

	return ch, func() { b.unsubscribe(id) }
}

func (b *Bus) unsubscribe(id uint64) {
	b.mu.Lock()
	ch, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
	if ok {
		close(ch)
	}
}

// SubscriberCount reports how many listeners are currently attached.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

func (b *Bus) run() {
	for {
		select {
		case <-b.closed:
			return
		case e := <-b.events:
			b.broadcast(e)
		}
	}
}

func (b *Bus) broadcast(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			// Slow subscriber: drop rather than stall the broadcaster.
		}
	}
}

// Close stops the broadcast goroutine and closes every subscriber
// channel.
func (b *Bus) Close() {
	b.once.Do(func() {
		close(b.closed)
		b.mu.Lock()
		for id, ch := range b.subscribers {
			delete(b.subscribers, id)
			close(ch)
		}
		b.mu.Unlock()
	})
}
