package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		require.True(t, ok, "channel closed")
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case e := <-ch:
		t.Fatalf("unexpected event %+v", e)
	default:
	}
}

func TestBroker_DeliversToMatchingUser(t *testing.T) {
	t.Parallel()

	b := NewBroker(4)
	alice, cancelAlice := b.Subscribe("alice")
	defer cancelAlice()
	bob, cancelBob := b.Subscribe("bob")
	defer cancelBob()
	all, cancelAll := b.Subscribe("")
	defer cancelAll()

	b.Publish(Event{Type: EventEnded, UserID: "alice", SessionID: "s1"})

	got := receive(t, alice)
	assert.Equal(t, EventEnded, got.Type)
	assert.Equal(t, "s1", got.SessionID)
	assert.False(t, got.At.IsZero())

	assert.Equal(t, "alice", receive(t, all).UserID)
	assertNoEvent(t, bob)
}

func TestBroker_CancelClosesAndUnregisters(t *testing.T) {
	t.Parallel()

	b := NewBroker(1)
	ch, cancel := b.Subscribe("u1")
	assert.Equal(t, 1, b.Subscribers())

	cancel()
	cancel()
	assert.Equal(t, 0, b.Subscribers())

	_, ok := <-ch
	assert.False(t, ok)

	// Publishing after cancel must not panic.
	b.Publish(Event{Type: EventStarted, UserID: "u1"})
}

func TestBroker_DropsWhenFull(t *testing.T) {
	t.Parallel()

	b := NewBroker(1)
	ch, cancel := b.Subscribe("u1")
	defer cancel()

	b.Publish(Event{Type: EventStarted, UserID: "u1", SessionID: "first"})
	b.Publish(Event{Type: EventEnded, UserID: "u1", SessionID: "second"})

	assert.Equal(t, "first", receive(t, ch).SessionID)
	assertNoEvent(t, ch)
}
