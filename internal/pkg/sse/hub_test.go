package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesOnlyThatUser(t *testing.T) {
	h := NewHub()

	a1, cleanA1 := h.Subscribe("a")
	a2, cleanA2 := h.Subscribe("a")
	b, cleanB := h.Subscribe("b")
	defer cleanA1()
	defer cleanA2()
	defer cleanB()

	assert.Equal(t, 2, h.SubscriberCount("a"))
	assert.Equal(t, 3, h.TotalSubscribers())

	h.Publish("a", Event{UserID: "a", Event: "attendance.changed"})

	for _, ch := range []<-chan Event{a1, a2} {
		select {
		case ev := <-ch:
			assert.Equal(t, "attendance.changed", ev.Event)
		default:
			t.Fatal("expected an event")
		}
	}
	select {
	case <-b:
		t.Fatal("user b must not receive user a's events")
	default:
	}
}

func TestHub_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	h := NewHub()
	ch, cleanup := h.Subscribe("a")
	defer cleanup()

	for i := 0; i < h.buffer+5; i++ {
		h.Publish("a", Event{Event: "tick"})
	}
	assert.Len(t, ch, h.buffer)
}

func TestHub_CleanupIsIdempotent(t *testing.T) {
	h := NewHub()
	ch, cleanup := h.Subscribe("a")

	cleanup()
	cleanup()

	_, open := <-ch
	require.False(t, open)
	assert.Zero(t, h.SubscriberCount("a"))
	assert.Zero(t, h.TotalSubscribers())

	h.Publish("a", Event{Event: "after"})
}
