package events

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event)
	Subscribe(eventType EventType, handler EventHandler)
}

// AsyncDispatcher runs every handler on its own goroutine. Publish never blocks on
// a handler and handler failures are only logged.
type AsyncDispatcher struct {
	logger *zap.Logger

	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	closed    bool

	root   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ Dispatcher = (*AsyncDispatcher)(nil)

// NewAsyncDispatcher creates a dispatcher whose handlers run under a root context
// that Close cancels.
func NewAsyncDispatcher(logger *zap.Logger) *AsyncDispatcher {
	root, cancel := context.WithCancel(context.Background())
	return &AsyncDispatcher{
		logger:    logger,
		listeners: make(map[EventType][]EventHandler),
		root:      root,
		cancel:    cancel,
	}
}

// Publish schedules the handlers subscribed to event.Type. The caller's context
// only contributes its values; handlers outlive the request that triggered them.
func (d *AsyncDispatcher) Publish(ctx context.Context, event Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("dispatcher closed; dropping event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
		return
	}

	// Add happens under the read lock so Close cannot start waiting in between.
	for _, handler := range d.listeners[event.Type] {
		d.wg.Add(1)
		go d.run(handler, event)
	}
}

func (d *AsyncDispatcher) run(handler EventHandler, event Event) {
	defer d.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panicked",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.String("panic", fmt.Sprint(r)),
				zap.ByteString("stack", debug.Stack()))
		}
	}()

	if err := handler(d.root, event); err != nil {
		d.logger.Warn("event handler failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Int64("incident_id", event.IncidentID),
			zap.Error(err))
	}
}

// Subscribe registers a handler for the given event type.
func (d *AsyncDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

// Wait blocks until every in-flight handler has returned.
func (d *AsyncDispatcher) Wait() {
	d.wg.Wait()
}

// Close cancels in-flight handlers and waits for them to return.
func (d *AsyncDispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
}
