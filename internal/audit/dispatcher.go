package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultCapacity bounds the queue when Options.Capacity is unset.
const DefaultCapacity = 256

// Options configures a Dispatcher.
type Options struct {
	// Capacity is the number of undelivered events the queue holds.
	Capacity int
	// DropIfFull discards events past Capacity. Otherwise the queue grows
	// and Settle makes callers wait for it to shrink.
	DropIfFull bool
	// Logger reports sink panics.
	Logger *slog.Logger
}

// Stats is a point-in-time view of the dispatcher counters.
type Stats struct {
	Delivered uint64
	Dropped   uint64
	Failed    uint64
	Pending   int
}

// Dispatcher delivers events to a sink on its own goroutine, in enqueue
// order.
//
// Enqueue never blocks, so the engine can call it while holding its own
// mutex. Backpressure is applied separately by Settle, which the engine calls
// after releasing that mutex.
type Dispatcher struct {
	sink       Sink
	capacity   int
	dropIfFull bool
	logger     *slog.Logger

	mu     sync.Mutex
	queue  []Event
	room   chan struct{} // closed and replaced each time an event is taken
	closed bool

	wake    chan struct{}
	stopped chan struct{}

	delivered atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
}

// NewDispatcher starts the delivery goroutine. A nil sink yields a nil
// Dispatcher, which accepts and discards every call.
func NewDispatcher(sink Sink, opts Options) *Dispatcher {
	if sink == nil {
		return nil
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	d := &Dispatcher{
		sink:       sink,
		capacity:   opts.Capacity,
		dropIfFull: opts.DropIfFull,
		logger:     opts.Logger,
		room:       make(chan struct{}),
		wake:       make(chan struct{}, 1),
		stopped:    make(chan struct{}),
	}
	go d.run()
	return d
}

// Enqueue appends event to the queue. Events enqueued after Close are
// ignored.
func (d *Dispatcher) Enqueue(event Event) {
	if d == nil {
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if d.dropIfFull && len(d.queue) >= d.capacity {
		d.mu.Unlock()
		d.dropped.Add(1)
		return
	}
	d.queue = append(d.queue, event)
	d.mu.Unlock()

	d.signal()
}

// Settle waits until the queue is back within capacity. It returns early
// with ctx's error, or nil once the dispatcher is closed.
func (d *Dispatcher) Settle(ctx context.Context) error {
	if d == nil {
		return nil
	}
	for {
		d.mu.Lock()
		if d.closed || len(d.queue) <= d.capacity {
			d.mu.Unlock()
			return nil
		}
		room := d.room
		d.mu.Unlock()

		select {
		case <-room:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops accepting events, delivers everything already queued and
// waits for the goroutine to exit. It is safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.signal()
	<-d.stopped
}

// Dropped returns the number of events discarded on a full queue.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Stats returns the dispatcher counters.
func (d *Dispatcher) Stats() Stats {
	if d == nil {
		return Stats{}
	}
	d.mu.Lock()
	pending := len(d.queue)
	d.mu.Unlock()

	return Stats{
		Delivered: d.delivered.Load(),
		Dropped:   d.dropped.Load(),
		Failed:    d.failed.Load(),
		Pending:   pending,
	}
}

func (d *Dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) run() {
	defer close(d.stopped)
	for {
		event, ok, done := d.take()
		switch {
		case ok:
			d.deliver(event)
		case done:
			return
		default:
			<-d.wake
		}
	}
}

// take pops the oldest event. done reports a closed and empty queue.
func (d *Dispatcher) take() (event Event, ok, done bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.queue) == 0 {
		return Event{}, false, d.closed
	}
	event = d.queue[0]
	d.queue[0] = Event{}
	d.queue = d.queue[1:]

	close(d.room)
	d.room = make(chan struct{})
	return event, true, false
}

func (d *Dispatcher) deliver(event Event) {
	defer func() {
		if r := recover(); r != nil {
			d.failed.Add(1)
			d.logger.Error("pinlock: audit sink panicked", "event", event.EventType, "panic", r)
		}
	}()

	d.sink.Emit(context.Background(), event)
	d.delivered.Add(1)
}
