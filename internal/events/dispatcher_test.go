package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var calls []string
	d.Subscribe(EventDealCreated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventDealCreated, func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+e.DealID)
		return nil
	})
	d.Subscribe(EventDealDeleted, func(context.Context, Event) error {
		calls = append(calls, "unrelated")
		return nil
	})

	err := d.Publish(context.Background(), New(EventDealCreated, "deal-1", "owner@example.com", nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second:deal-1"}, calls)
}
