package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherInvokesSubscribers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var seen []Event
	dispatcher.Subscribe(EventTicketCreated, func(_ context.Context, event Event) error {
		seen = append(seen, event)
		return nil
	})

	err := dispatcher.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "ticket-1"})
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, "ticket-1", seen[0].TicketID)
}

func TestDispatcherIgnoresOtherEventTypes(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	called := false
	dispatcher.Subscribe(EventTicketDeleted, func(context.Context, Event) error {
		called = true
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventTicketCreated}))
	assert.False(t, called)
}

func TestDispatcherContinuesPastHandlerErrors(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var order []string
	dispatcher.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		order = append(order, "first")
		return errors.New("boom")
	})
	dispatcher.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		order = append(order, "second")
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventTicketCreated}))
	assert.Equal(t, []string{"first", "second"}, order)
}
