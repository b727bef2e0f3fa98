package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recorder(calls *[]string, name string) HandlerFunc {
	return func(ctx context.Context, e Event) error {
		*calls = append(*calls, name)
		return nil
	}
}

func TestPublishOrder(t *testing.T) {
	bus := NewEventBus()
	var calls []string

	bus.Subscribe(EventAll, "wild-1", recorder(&calls, "wild-1"))
	bus.Subscribe(EventLogin, "login-1", recorder(&calls, "login-1"))
	bus.Subscribe(EventLogin, "login-2", recorder(&calls, "login-2"))
	bus.Subscribe(EventAll, "wild-2", recorder(&calls, "wild-2"))
	bus.Subscribe(EventMessage, "message", recorder(&calls, "message"))

	require.NoError(t, bus.Publish(context.Background(), Event{Type: EventLogin}))
	assert.Equal(t, []string{"login-1", "login-2", "wild-1", "wild-2"}, calls)
}

func TestPublishWithoutHandlers(t *testing.T) {
	assert.NoError(t, NewEventBus().Publish(context.Background(), Event{Type: EventSound}))
}

func TestUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	var calls []string
	bus.Subscribe(EventSound, "a", recorder(&calls, "a"))
	bus.Subscribe(EventSound, "b", recorder(&calls, "b"))
	bus.Unsubscribe(EventSound, "a")
	bus.Unsubscribe(EventMessage, "missing")

	require.NoError(t, bus.Publish(context.Background(), Event{Type: EventSound}))
	assert.Equal(t, []string{"b"}, calls)
	assert.Equal(t, 1, bus.HandlerCount(EventSound))
}

func TestSubscribeDuringPublishAppliesNextTime(t *testing.T) {
	bus := NewEventBus()
	var calls []string
	bus.Subscribe(EventSound, "outer", func(ctx context.Context, e Event) error {
		calls = append(calls, "outer")
		bus.Subscribe(EventSound, "inner", recorder(&calls, "inner"))
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), Event{Type: EventSound}))
	assert.Equal(t, []string{"outer"}, calls)

	calls = nil
	bus.Unsubscribe(EventSound, "outer")
	require.NoError(t, bus.Publish(context.Background(), Event{Type: EventSound}))
	assert.Equal(t, []string{"inner"}, calls)
}

func TestHandlerFailureContinues(t *testing.T) {
	bus := NewEventBus()
	var calls []string
	boom := errors.New("boom")

	bus.Subscribe(EventSound, "fails", func(ctx context.Context, e Event) error { return boom })
	bus.Subscribe(EventSound, "panics", func(ctx context.Context, e Event) error { panic("bad handler") })
	bus.Subscribe(EventSound, "after", recorder(&calls, "after"))

	err := bus.Publish(context.Background(), Event{Type: EventSound})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"after"}, calls)
}

func TestHandlerPanicBecomesError(t *testing.T) {
	bus := NewEventBus()
	bus.Subscribe(EventSound, "panics", func(ctx context.Context, e Event) error { panic("bad handler") })

	err := bus.Publish(context.Background(), Event{Type: EventSound})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panics")
}

func TestHandlerFailureAborts(t *testing.T) {
	bus := NewEventBus()
	bus.SetFailurePolicy(AbortOnError)
	var calls []string
	boom := errors.New("boom")

	bus.Subscribe(EventSound, "fails", func(ctx context.Context, e Event) error { return boom })
	bus.Subscribe(EventSound, "after", recorder(&calls, "after"))

	assert.ErrorIs(t, bus.Publish(context.Background(), Event{Type: EventSound}), boom)
	assert.Empty(t, calls)
}

func TestPublishStopsOnCancel(t *testing.T) {
	bus := NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	var calls []string

	bus.Subscribe(EventSound, "first", func(ctx context.Context, e Event) error {
		calls = append(calls, "first")
		cancel()
		return nil
	})
	bus.Subscribe(EventSound, "second", recorder(&calls, "second"))

	assert.NoError(t, bus.Publish(ctx, Event{Type: EventSound}))
	assert.Equal(t, []string{"first"}, calls)
}

func TestStoppedBusDropsEvents(t *testing.T) {
	bus := NewEventBus()
	var calls []string
	bus.Subscribe(EventAll, "wild", recorder(&calls, "wild"))
	bus.Stop()

	assert.NoError(t, bus.Publish(context.Background(), Event{Type: EventSound}))
	assert.Empty(t, calls)
}

func TestParseFailurePolicy(t *testing.T) {
	p, err := ParseFailurePolicy("")
	require.NoError(t, err)
	assert.Equal(t, ContinueOnError, p)

	p, err = ParseFailurePolicy("abort")
	require.NoError(t, err)
	assert.Equal(t, AbortOnError, p)
	assert.Equal(t, "abort", p.String())

	_, err = ParseFailurePolicy("retry")
	assert.Error(t, err)
}
