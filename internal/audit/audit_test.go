package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "rollcall/pkg/domain"
)

func TestPublisherDefaultsTimestamp(t *testing.T) {
	store := NewInMemoryStore()
	p := NewPublisher(store)
	activityID := id.NewActivityID()

	require.NoError(t, p.Emit(context.Background(), Event{
		ActorID:    id.NewUserID(),
		Action:     ActionRegistrationCreated,
		ActivityID: activityID,
	}))

	trail, err := p.List(context.Background(), activityID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.False(t, trail[0].Timestamp.IsZero())
}

func TestChannelPublisher(t *testing.T) {
	t.Run("delivers through the worker", func(t *testing.T) {
		store := NewInMemoryStore()
		inbox := make(chan Event, 8)
		p := NewChannelPublisher(inbox)
		activityID := id.NewActivityID()

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = NewWorker(store, inbox).Run(ctx)
		}()

		require.NoError(t, p.Emit(context.Background(), Event{
			Action:     ActionRegistrationDecided,
			ActivityID: activityID,
			Decision:   "approve",
		}))

		require.Eventually(t, func() bool {
			trail, err := store.ListByActivity(context.Background(), activityID)
			return err == nil && len(trail) == 1
		}, time.Second, 10*time.Millisecond)

		cancel()
		<-done
	})

	t.Run("drops instead of blocking when the inbox is full", func(t *testing.T) {
		inbox := make(chan Event, 1)
		p := NewChannelPublisher(inbox)

		require.NoError(t, p.Emit(context.Background(), Event{Action: ActionAttendanceVerified}))
		err := p.Emit(context.Background(), Event{Action: ActionAttendanceVerified})
		require.ErrorIs(t, err, ErrTrailFull)
	})
}

func TestInMemoryStoreTrailsPerActivity(t *testing.T) {
	store := NewInMemoryStore()
	first := id.NewActivityID()
	second := id.NewActivityID()

	require.NoError(t, store.Append(context.Background(), Event{ActivityID: first, Action: ActionRegistrationCreated}))
	require.NoError(t, store.Append(context.Background(), Event{ActivityID: first, Action: ActionRegistrationWithdrawn}))
	require.NoError(t, store.Append(context.Background(), Event{ActivityID: second, Action: ActionActivityTransitioned}))

	trail, err := store.ListByActivity(context.Background(), first)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, ActionRegistrationCreated, trail[0].Action)
	assert.Equal(t, ActionRegistrationWithdrawn, trail[1].Action)

	other, err := store.ListByActivity(context.Background(), second)
	require.NoError(t, err)
	assert.Len(t, other, 1)
}
