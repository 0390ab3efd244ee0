// Package broadcast fans lifecycle events out to the currently-connected
// subscribers of a branch and role. Delivery is best-effort and at-most-once:
// a subscriber whose buffer is full, or that is not connected at emission
// time, misses the event and reconciles by re-fetching order lists.
package broadcast

import (
	"sync"
	"sync/atomic"

	"restaurant-pos/internal/models"
)

// Room identifies one subscriber group.
type Room struct {
	BranchID int
	Role     models.Role
}

// Subscriber receives events for one room over a buffered channel.
type Subscriber struct {
	C  <-chan models.Event
	ch chan models.Event
}

// Hub maintains the (branch, role) → subscriber-set mapping. Safe for
// concurrent use.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[Room]map[*Subscriber]struct{}
	buffer  int
	dropped atomic.Uint64
}

// NewHub creates a hub whose subscribers buffer up to buffer events each.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		rooms:  make(map[Room]map[*Subscriber]struct{}),
		buffer: buffer,
	}
}

// Subscribe joins a room and returns the subscriber and its leave function.
// Leaving closes the subscriber's channel.
func (h *Hub) Subscribe(branchID int, role models.Role) (*Subscriber, func()) {
	room := Room{BranchID: branchID, Role: role}
	ch := make(chan models.Event, h.buffer)
	sub := &Subscriber{C: ch, ch: ch}

	h.mu.Lock()
	set, ok := h.rooms[room]
	if !ok {
		set = make(map[*Subscriber]struct{})
		h.rooms[room] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	leave := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.rooms[room]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(h.rooms, room)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return sub, leave
}

// Publish delivers the event to every subscriber of the event's audience
// rooms. It never blocks: a subscriber with a full buffer is skipped.
func (h *Hub) Publish(event models.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, role := range event.Audience {
		room := Room{BranchID: event.BranchID, Role: role}
		for sub := range h.rooms[room] {
			select {
			case sub.ch <- event:
			default:
				h.dropped.Add(1)
			}
		}
	}
}

// Dropped returns how many events were skipped because a subscriber's buffer
// was full.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// SubscriberCount returns how many subscribers a room currently has.
func (h *Hub) SubscriberCount(branchID int, role models.Role) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[Room{BranchID: branchID, Role: role}])
}
