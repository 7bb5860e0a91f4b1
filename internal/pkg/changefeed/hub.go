package changefeed

import (
	"context"
	"errors"
	"sync"

	"github.com/talentmatch/messaging-service/internal/model"
)

const defaultBuffer = 64

var ErrClosed = errors.New("change feed closed")

// Hub fans change events out to filtered subscriptions. A subscriber that
// falls behind by more than its buffer is dropped: its channel is closed and
// it is expected to resubscribe and reload.
type Hub struct {
	mu     sync.Mutex
	subs   map[uint64]*subscription
	nextID uint64
	buffer int
	closed bool
}

func NewHub() *Hub {
	return &Hub{
		subs:   make(map[uint64]*subscription),
		buffer: defaultBuffer,
	}
}

// Subscription is a live, filtered stream of change events. The channel is
// closed when the subscription ends for any reason.
type Subscription interface {
	Events() <-chan model.ChangeEvent
	Close() error
}

type subscription struct {
	id     uint64
	hub    *Hub
	filter model.Filter
	events chan model.ChangeEvent
	once   sync.Once
}

func (s *subscription) Events() <-chan model.ChangeEvent {
	return s.events
}

func (s *subscription) Close() error {
	s.hub.remove(s)
	return nil
}

func (h *Hub) Subscribe(ctx context.Context, filter model.Filter) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}

	h.nextID++
	sub := &subscription{
		id:     h.nextID,
		hub:    h,
		filter: filter,
		events: make(chan model.ChangeEvent, h.buffer),
	}
	h.subs[sub.id] = sub

	return sub, nil
}

func (h *Hub) Publish(event model.ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, sub := range h.subs {
		if !sub.filter.Matches(event) {
			continue
		}
		select {
		case sub.events <- event:
		default:
			delete(h.subs, id)
			sub.once.Do(func() { close(sub.events) })
		}
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		sub.once.Do(func() { close(sub.events) })
	}
}

func (h *Hub) remove(sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subs, sub.id)
	sub.once.Do(func() { close(sub.events) })
}
