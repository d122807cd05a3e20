package events_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-intercom-bridge/doorlog"
	"github.com/jrsteele09/go-intercom-bridge/events"
	"github.com/stretchr/testify/require"
)

var entry = doorlog.Entry{CaptureTime: "2024-03-01 10:05:00", Initiator: "Bob", Location: "Front Gate"}

func receive(t *testing.T, sub *events.Subscription) events.DoorEvent {
	t.Helper()
	select {
	case evt := <-sub.C:
		return evt
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
	return events.DoorEvent{}
}

func TestBus_FanOut(t *testing.T) {
	bus := events.New()
	a := bus.Subscribe(1)
	b := bus.Subscribe(1)
	require.Equal(t, 2, bus.Subscribers())

	bus.Publish(entry)

	evtA := receive(t, a)
	evtB := receive(t, b)
	require.Equal(t, evtA.ID, evtB.ID)
	require.Equal(t, events.DoorUpdate, evtA.Event)
	require.Equal(t, entry, evtA.Entry)
	_, err := uuid.Parse(evtA.ID)
	require.NoError(t, err)
	require.False(t, evtA.ReceivedAt.IsZero())
}

func TestBus_FullSubscriberDoesNotBlock(t *testing.T) {
	bus := events.New()
	slow := bus.Subscribe(0)
	fast := bus.Subscribe(2)

	done := make(chan struct{})
	go func() {
		bus.Publish(entry)
		bus.Publish(entry)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	receive(t, fast)
	receive(t, fast)
	select {
	case <-slow.C:
		t.Fatal("unbuffered subscriber should have missed the events")
	default:
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := events.New()
	sub := bus.Subscribe(1)
	bus.Unsubscribe(sub)
	bus.Unsubscribe(sub)
	require.Zero(t, bus.Subscribers())

	_, open := <-sub.C
	require.False(t, open)

	bus.Publish(entry)
}
