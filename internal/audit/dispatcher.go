package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls dispatcher buffering and how events are completed into
// activity-log records.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool

	// Now stamps events that arrive without a Timestamp. Defaults to time.Now.
	Now func() time.Time
	// Modules maps an action to its activity-log module. It fills Module
	// when the caller left it empty.
	Modules map[string]string
	// Origin reads the client IP and user agent from the request context.
	// It runs on the caller's goroutine, while the request is still live.
	Origin func(ctx context.Context) (ip, userAgent string)
}

// Dispatcher completes events with request origin, module and time, then
// forwards them to a sink from one background goroutine so request paths
// never wait on audit persistence. A nil *Dispatcher is a valid no-op.
type Dispatcher struct {
	cfg     Config
	sink    Sink
	dropped atomic.Uint64

	// mu guards sends on queue against Close closing it.
	mu      sync.RWMutex
	closed  bool
	queue   chan Event
	flushed chan struct{}
}

// NewDispatcher starts a dispatcher, or returns nil when cfg is disabled.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:     cfg,
		sink:    sink,
		queue:   make(chan Event, cfg.BufferSize),
		flushed: make(chan struct{}),
	}
	go d.deliver()
	return d
}

// deliver runs until Close closes the queue, so every accepted event reaches
// the sink.
func (d *Dispatcher) deliver() {
	defer close(d.flushed)
	for event := range d.queue {
		d.sink.Emit(context.Background(), event)
	}
}

func (d *Dispatcher) complete(ctx context.Context, event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = d.cfg.Now().UTC()
	}
	if event.Module == "" {
		event.Module = d.cfg.Modules[event.Action]
	}
	if d.cfg.Origin != nil && (event.IP == "" || event.UserAgent == "") {
		ip, ua := d.cfg.Origin(ctx)
		if event.IP == "" {
			event.IP = ip
		}
		if event.UserAgent == "" {
			event.UserAgent = ua
		}
	}
}

// Emit completes event and enqueues it. With DropIfFull a full buffer drops
// the event and counts it; otherwise Emit waits for room or ctx
// cancellation. Events emitted after Close are ignored.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.complete(ctx, &event)

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.cfg.DropIfFull {
		select {
		case d.queue <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
	}
}

// Close stops accepting events and returns once everything accepted has
// been delivered.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.flushed
}

// Dropped returns the number of events discarded on a full buffer.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
