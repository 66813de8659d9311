package realtime

import (
	"encoding/json"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Event names carried over the websocket channel.
const (
	EventJoin    = "join"
	EventMessage = "message"
	EventTyping  = "typing"
)

// Event is the wire envelope for every frame on the realtime channel.
type Event struct {
	Event   string          `json:"event"`
	Room    string          `json:"room,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ConversationRoomID derives the deterministic room id for a conversation
// between two participants. Both sides compute the same id regardless of
// who initiates: the ids are sorted lexicographically and joined with "-".
func ConversationRoomID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return ids[0] + "-" + ids[1]
}

// Hub tracks all live connections and their room memberships. Broadcasts
// are a local in-process fan-out, so events within one room preserve the
// emitter's order. Delivery is at-most-once: a slow consumer's frame is
// dropped rather than blocking the emitter.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]bool
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]bool),
	}
}

// Join adds the client to a room. Joining is idempotent and additive: a
// client can be in any number of rooms and joining twice is a no-op.
func (h *Hub) Join(c *Client, room string) {
	if room == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[room] = members
	}
	members[c] = true
	zap.S().Debugw("client joined room", "user", c.userID, "room", room)
}

// Remove drops the client from every room it joined
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, members := range h.rooms {
		if members[c] {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
}

// EmitToRoom delivers the event to every member of the room except the
// sender. A nil sender delivers to everyone in the room.
func (h *Hub) EmitToRoom(room string, sender *Client, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for member := range h.rooms[room] {
		if member == sender {
			continue
		}
		select {
		case member.send <- ev:
		default:
			// the member's buffer is full, drop the frame
			zap.S().Warnw("dropping realtime event for slow consumer",
				"user", member.userID,
				"room", room,
				"event", ev.Event,
			)
		}
	}
}

// RoomSize returns the current number of members in a room
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
