package realtime

import (
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxFrameSize bounds inbound frames; messages are short JSON envelopes
	maxFrameSize = 8 * 1024

	sendBufferSize = 64
)

// Client is one live websocket connection owned by a single authenticated
// user. Reads and writes each run on their own goroutine.
type Client struct {
	userID string
	hub    *Hub
	conn   *websocket.Conn
	send   chan Event
	done   chan struct{}
}

// NewClient wires a websocket connection into the hub
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		userID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan Event, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// UserID returns the id of the authenticated user behind the connection
func (c *Client) UserID() string {
	return c.userID
}

// participantOf reports whether the connection's user is one of the two
// participants encoded in a conversation room id. User ids never contain
// the "-" separator, so the prefix/suffix check is exact.
func (c *Client) participantOf(room string) bool {
	return strings.HasPrefix(room, c.userID+"-") || strings.HasSuffix(room, "-"+c.userID)
}

// Run starts the read and write pumps and blocks until the connection
// closes. Room membership is cleaned up on the way out.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump consumes inbound frames and dispatches them. join adds the
// connection to a room; message and typing fan out to the other members
// of the named room.
func (c *Client) readPump() {
	defer func() {
		c.hub.Remove(c)
		c.conn.Close()
		close(c.done)
	}()
	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var ev Event
		if err := c.conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.S().Warnw("websocket read error", "user", c.userID, "error", err)
			}
			return
		}

		if ev.Event == EventJoin || ev.Event == EventMessage || ev.Event == EventTyping {
			if !c.participantOf(ev.Room) {
				zap.S().Warnw("rejecting realtime event for foreign room",
					"user", c.userID,
					"room", ev.Room,
					"event", ev.Event,
				)
				continue
			}
		}

		switch ev.Event {
		case EventJoin:
			c.hub.Join(c, ev.Room)
		case EventMessage, EventTyping:
			c.hub.EmitToRoom(ev.Room, c, ev)
		default:
			zap.S().Debugw("ignoring unknown realtime event", "user", c.userID, "event", ev.Event)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
			return
		case ev := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
