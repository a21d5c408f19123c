package realtime

import (
	"sync"

	"go.uber.org/zap"
)

// EventKind names the fan-out events emitted after a committed state change.
type EventKind string

const (
	EventMessageCreated EventKind = "message-created"
	EventMessageDeleted EventKind = "message-deleted"
	EventMemberJoined   EventKind = "member-joined"
	EventMemberLeft     EventKind = "member-left"
	EventMemberKicked   EventKind = "member-kicked"
)

// Event is delivered to every session subscribed to the group channel.
// Payloads are fully resolved snapshots; subscribers never re-fetch.
type Event struct {
	Kind    EventKind   `json:"kind"`
	GroupID string      `json:"group_id"`
	Payload interface{} `json:"payload"`
}

// Broadcaster is the dispatcher interface the domain services depend on.
// Delivery is best-effort to currently connected subscribers only.
type Broadcaster interface {
	Publish(groupID string, kind EventKind, payload interface{})
}

// Conn is the transport-side write surface of one connection.
// *websocket.Conn satisfies it.
type Conn interface {
	WriteJSON(v interface{}) error
}

// Client wraps a connection with a write lock; websocket conns do not
// tolerate concurrent writers.
type Client struct {
	conn Conn
	mu   sync.Mutex
}

func NewClient(conn Conn) *Client {
	return &Client{conn: conn}
}

func (c *Client) send(e Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(e)
}

// Hub tracks which sessions are subscribed to which group channels and
// fans committed events out to them. It holds no durable subscription
// state: every session re-subscribes on (re)connect.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
	log   *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
		log:   log,
	}
}

// Subscribe adds a session to a group channel.
func (h *Hub) Subscribe(groupID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[groupID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[groupID] = room
	}
	room[c] = struct{}{}
}

// Unsubscribe removes a session from a group channel.
func (h *Hub) Unsubscribe(groupID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[groupID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, groupID)
		}
	}
}

// Drop removes a session from every channel; called on disconnect.
func (h *Hub) Drop(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for groupID, room := range h.rooms {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, groupID)
		}
	}
}

// Publish delivers an event to every session currently subscribed to the
// group channel. Delivery failure is non-fatal; the failing session is
// dropped and the triggering operation is never aborted.
func (h *Hub) Publish(groupID string, kind EventKind, payload interface{}) {
	event := Event{Kind: kind, GroupID: groupID, Payload: payload}

	h.mu.RLock()
	subscribers := make([]*Client, 0, len(h.rooms[groupID]))
	for c := range h.rooms[groupID] {
		subscribers = append(subscribers, c)
	}
	h.mu.RUnlock()

	for _, c := range subscribers {
		if err := c.send(event); err != nil {
			h.log.Warn("websocket delivery failed, dropping subscriber",
				zap.String("group_id", groupID),
				zap.String("event", string(kind)),
				zap.Error(err))
			h.Drop(c)
		}
	}
}

// SubscriberCount reports how many sessions are in a group channel.
func (h *Hub) SubscriberCount(groupID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[groupID])
}
