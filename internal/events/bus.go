package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// HandlerFunc is a function that handles an event.
type HandlerFunc func(ctx context.Context, event Event) error

// FailurePolicy decides what a publish does after a handler fails.
type FailurePolicy int

const (
	// ContinueOnError logs the failure and keeps calling later handlers.
	ContinueOnError FailurePolicy = iota
	// AbortOnError stops the publish at the first failing handler.
	AbortOnError
)

// ParseFailurePolicy maps a config string to a FailurePolicy.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "", "continue":
		return ContinueOnError, nil
	case "abort":
		return AbortOnError, nil
	default:
		return ContinueOnError, fmt.Errorf("unknown failure policy %q", s)
	}
}

// String returns the config name of the policy.
func (p FailurePolicy) String() string {
	if p == AbortOnError {
		return "abort"
	}
	return "continue"
}

// EventBus delivers events synchronously to subscribed handlers. Handlers for
// the event's own type run first in subscription order, then the wildcard
// handlers in subscription order. Each publish works on a snapshot of the
// handler lists, so subscriptions made during a publish take effect on the
// next one.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]handlerEntry
	policy   FailurePolicy
	stopped  bool
}

type handlerEntry struct {
	name    string
	handler HandlerFunc
}

// NewEventBus creates a new EventBus with the log-and-continue policy.
func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]handlerEntry),
	}
}

// SetFailurePolicy overrides how handler failures are treated.
func (eb *EventBus) SetFailurePolicy(p FailurePolicy) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.policy = p
}

// Subscribe registers a handler function for a specific event type.
// The name parameter is used for logging and for Unsubscribe.
func (eb *EventBus) Subscribe(eventType EventType, name string, handler HandlerFunc) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handlerEntry{
		name:    name,
		handler: handler,
	})

	log.Debug().
		Str("event", string(eventType)).
		Str("handler", name).
		Msg("subscribed to event")
}

// Unsubscribe removes a named handler from a specific event type. A publish
// already in progress still calls it.
func (eb *EventBus) Unsubscribe(eventType EventType, name string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	handlers, exists := eb.handlers[eventType]
	if !exists {
		return
	}

	filtered := make([]handlerEntry, 0, len(handlers))
	for _, h := range handlers {
		if h.name != name {
			filtered = append(filtered, h)
		}
	}
	eb.handlers[eventType] = filtered

	log.Debug().
		Str("event", string(eventType)).
		Str("handler", name).
		Msg("unsubscribed from event")
}

// Publish delivers event to its handlers on the calling goroutine. It returns
// the first handler error. Under AbortOnError no handler runs after a
// failure. Cancelling ctx stops the remaining handlers; the one running is
// allowed to finish.
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	eb.mu.RLock()
	if eb.stopped {
		eb.mu.RUnlock()
		return nil
	}
	policy := eb.policy
	specific := eb.handlers[event.Type]
	wildcard := eb.handlers[EventAll]
	queue := make([]handlerEntry, 0, len(specific)+len(wildcard))
	queue = append(queue, specific...)
	if event.Type != EventAll {
		queue = append(queue, wildcard...)
	}
	eb.mu.RUnlock()

	if len(queue) == 0 {
		return nil
	}

	log.Trace().
		Str("event", string(event.Type)).
		Int("handlers", len(queue)).
		Msg("publishing event")

	var firstErr error
	for _, h := range queue {
		if ctx.Err() != nil {
			return firstErr
		}

		if err := eb.invoke(ctx, h, event); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			log.Error().
				Err(err).
				Str("event", string(event.Type)).
				Str("handler", h.name).
				Msg("handler returned error")

			if policy == AbortOnError {
				return firstErr
			}
		}
	}
	return firstErr
}

// invoke runs one handler and converts a panic into an error.
func (eb *EventBus) invoke(ctx context.Context, h handlerEntry, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %s panicked: %v", h.name, r)
		}
	}()
	return h.handler(ctx, event)
}

// Stop makes every later Publish a no-op.
func (eb *EventBus) Stop() {
	eb.mu.Lock()
	eb.stopped = true
	eb.mu.Unlock()
	log.Debug().Msg("event bus stopped")
}

// HandlerCount returns the number of handlers registered for a specific event type.
func (eb *EventBus) HandlerCount(eventType EventType) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.handlers[eventType])
}
