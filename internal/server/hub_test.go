package server

import (
	"testing"
	"time"

	"github.com/MeKo-Tech/keva/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishDeliversToSubscribers(t *testing.T) {
	hub := NewHub()

	events, cancel := hub.Subscribe()
	defer cancel()

	hub.Publish(store.Event{Type: store.EventPut, Key: "k", Revision: 1})

	select {
	case ev := <-events:
		assert.Equal(t, store.EventPut, ev.Type)
		assert.Equal(t, "k", ev.Key)
		assert.Equal(t, int64(1), ev.Revision)
	case <-time.After(time.Second):
		t.Fatal("expected event was not delivered")
	}
}

func TestHub_CancelClosesChannel(t *testing.T) {
	hub := NewHub()

	events, cancel := hub.Subscribe()
	require.Equal(t, 1, hub.Subscribers())

	cancel()
	assert.Equal(t, 0, hub.Subscribers())

	_, open := <-events
	assert.False(t, open)

	// A second cancel must be harmless.
	assert.NotPanics(t, cancel)
}

func TestHub_SlowSubscriberDropsEventsWithoutBlocking(t *testing.T) {
	hub := NewHub()

	events, cancel := hub.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer+10; i++ {
			hub.Publish(store.Event{Type: store.EventPut, Key: "k", Revision: int64(i)})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	assert.Len(t, events, subscriberBuffer)
}

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	hub := NewHub()

	assert.NotPanics(t, func() {
		hub.Publish(store.Event{Type: store.EventDelete, Key: "k"})
	})
}
