package notify

import (
	"context"
	"sync"
)

// Async hands events to a background worker so slow deliveries never hold a
// request open. When the queue is full the event is dropped and logged.
type Async struct {
	next  Notifier
	queue chan Event

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewAsync starts a worker delivering to next with a queue of size buffer.
func NewAsync(next Notifier, buffer int) *Async {
	if buffer < 1 {
		buffer = 1
	}
	a := &Async{
		next:  next,
		queue: make(chan Event, buffer),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for ev := range a.queue {
		a.next.Notify(context.Background(), ev)
	}
}

// Notify implements Notifier. It never blocks.
func (a *Async) Notify(ctx context.Context, ev Event) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}
	select {
	case a.queue <- ev:
	default:
		loggerFrom(ctx).Warn().
			Uint("request_id", ev.Request.ID).
			Str("kind", string(ev.Kind)).
			Msg("notification queue full; dropping event")
	}
}

// Close stops accepting events and waits for queued ones to be delivered,
// or for ctx to end.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		loggerFrom(ctx).Warn().Msg("notification queue not drained before shutdown")
		return ctx.Err()
	}
}
