package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	Send      chan []byte
	UserID    string
	SessionID string

	// done is closed once the hub removes the client. Send is never closed.
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient creates a client for an authenticated page.
func NewClient(hub *Hub, conn *websocket.Conn, userID, sessionID string) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		Send:      make(chan []byte, 16),
		UserID:    userID,
		SessionID: sessionID,
		done:      make(chan struct{}),
	}
}

// ReadPump reads from the connection until it closes. The only inbound
// action understood is "ping".
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Detach(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("user_id", c.UserID).Msg("Unexpected websocket close")
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.trySend(NewErrorMessage("invalid message"))
			continue
		}
		switch msg.Action {
		case "ping":
			c.trySend(encode(Message{Action: "pong"}))
		default:
			c.trySend(NewErrorMessage("Unknown action: " + msg.Action))
		}
	}
}

// Done is closed once the hub has removed the client.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// trySend queues a reply without blocking. Replies to a removed client or
// to a full buffer are dropped.
func (c *Client) trySend(message []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.Send <- message:
	default:
	}
}

// WritePump pumps messages from the hub to the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
