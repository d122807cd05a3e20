package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-intercom-bridge/doorlog"
	"github.com/rs/zerolog/log"
)

// DoorUpdate is the event name carried by every DoorEvent.
const DoorUpdate = "door_update"

// DoorEvent is a door log entry as delivered to subscribers.
type DoorEvent struct {
	ID         string    `json:"id"`
	Event      string    `json:"event"`
	ReceivedAt time.Time `json:"received_at"`
	doorlog.Entry
}

// Subscription receives events on C until it is unsubscribed.
type Subscription struct {
	C  <-chan DoorEvent
	ch chan DoorEvent
}

// Bus fans door events out to subscribers without blocking the publisher.
type Bus struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	nowTime func() time.Time
}

var _ doorlog.Publisher = (*Bus)(nil)

func New() *Bus {
	return &Bus{
		subs:    make(map[*Subscription]struct{}),
		nowTime: time.Now,
	}
}

// Subscribe registers a subscriber with the given channel buffer.
func (b *Bus) Subscribe(buffer int) *Subscription {
	ch := make(chan DoorEvent, buffer)
	sub := &Subscription{C: ch, ch: ch}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[sub] = struct{}{}
	return sub
}

// Unsubscribe removes sub and closes its channel. Repeated calls are no-ops.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	close(sub.ch)
}

func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish delivers entry to every subscriber with room in its buffer. Full
// subscribers miss the event.
func (b *Bus) Publish(entry doorlog.Entry) {
	evt := DoorEvent{
		ID:         uuid.NewString(),
		Event:      DoorUpdate,
		ReceivedAt: b.nowTime(),
		Entry:      entry,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs {
		select {
		case sub.ch <- evt:
		default:
			log.Warn().Str("event_id", evt.ID).Msg("subscriber buffer full, dropping door event")
		}
	}
}
