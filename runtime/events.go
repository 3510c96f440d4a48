package runtime

import (
	"sync"
	"sync/atomic"
	"time"
)

// EventType names a lifecycle event.
type EventType string

const (
	EventConnectionCreated   EventType = "CONNECTION_CREATED"
	EventQueryStart          EventType = "QUERY_START"
	EventQueryEnd            EventType = "QUERY_END"
	EventQueryError          EventType = "QUERY_ERROR"
	EventRetryAttempt        EventType = "RETRY_ATTEMPT"
	EventTransactionCommit   EventType = "TRANSACTION_COMMIT"
	EventTransactionRollback EventType = "TRANSACTION_ROLLBACK"
)

// Event is a structured lifecycle notification.
type Event struct {
	Type    EventType
	Time    time.Time
	Dialect string
	SQL     string
	Params  []any
	// Attempt is the 1-based attempt number of the statement.
	Attempt int
	// Elapsed is the statement duration on QUERY_END and QUERY_ERROR, and
	// the scheduled backoff on RETRY_ATTEMPT.
	Elapsed time.Duration
	Rows    int
	Err     error
	// InTx is true for statements issued through a transaction handle.
	InTx bool
}

// Observer consumes events. Observe must not block for long: events are
// delivered from a single background goroutine.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) { f(e) }

// DefaultEventBuffer is the dispatcher queue size.
const DefaultEventBuffer = 256

// dispatcher delivers events to an observer without ever blocking the
// emitter. Events are dropped when the queue is full.
type dispatcher struct {
	obs     Observer
	ch      chan Event
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

func newDispatcher(obs Observer, size int) *dispatcher {
	if size <= 0 {
		size = DefaultEventBuffer
	}
	d := &dispatcher{
		obs:  obs,
		ch:   make(chan Event, size),
		done: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *dispatcher) run() {
	defer close(d.done)
	for e := range d.ch {
		d.deliver(e)
	}
}

// deliver isolates the worker from panicking observers.
func (d *dispatcher) deliver(e Event) {
	defer func() { _ = recover() }()
	d.obs.Observe(e)
}

func (d *dispatcher) emit(e Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.dropped.Add(1)
		return
	}
	select {
	case d.ch <- e:
	default:
		d.dropped.Add(1)
	}
}

// close stops accepting events and waits until queued ones are delivered.
func (d *dispatcher) close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	close(d.ch)
	d.mu.Unlock()
	<-d.done
}
