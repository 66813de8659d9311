package client

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mentorhub/mentorhub-api/realtime"
)

// Channel is the client side of the realtime delivery channel. The chat
// controller depends on this interface so tests can substitute an in-memory
// implementation.
type Channel interface {
	Join(room string) error
	Emit(event realtime.Event) error
	Events() <-chan realtime.Event
	Close() error
}

// WSChannel is the websocket-backed Channel.
type WSChannel struct {
	conn   *websocket.Conn
	events chan realtime.Event

	writeMu sync.Mutex

	closeOnce sync.Once
}

// DialChannel connects to the server's realtime endpoint using a ticket
// minted via APIClient.WSTicket.
func DialChannel(ctx context.Context, baseURL, ticket string) (*WSChannel, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/ws")
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("ticket", ticket)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}

	ch := &WSChannel{
		conn:   conn,
		events: make(chan realtime.Event, 64),
	}
	go ch.readLoop()
	return ch, nil
}

// Join subscribes this connection to a room.
func (ch *WSChannel) Join(room string) error {
	return ch.Emit(realtime.Event{Event: realtime.EventJoin, Room: room})
}

// Emit sends one event to the server.
func (ch *WSChannel) Emit(event realtime.Event) error {
	ch.writeMu.Lock()
	defer ch.writeMu.Unlock()
	return ch.conn.WriteJSON(event)
}

// Events returns the stream of events pushed by the server. The channel is
// closed when the connection drops.
func (ch *WSChannel) Events() <-chan realtime.Event {
	return ch.events
}

// Close tears down the connection.
func (ch *WSChannel) Close() error {
	var err error
	ch.closeOnce.Do(func() {
		err = ch.conn.Close()
	})
	return err
}

func (ch *WSChannel) readLoop() {
	defer close(ch.events)
	for {
		_, raw, err := ch.conn.ReadMessage()
		if err != nil {
			return
		}
		var event realtime.Event
		if err := json.Unmarshal(raw, &event); err != nil {
			continue
		}
		ch.events <- event
	}
}
