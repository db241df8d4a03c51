package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/isdelr/taskmanager/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serveHub upgrades every request into a client of hub and reports it on
// attached.
func serveHub(t *testing.T, hub *Hub, attached chan<- *Client) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, "u1", "s1")
		if !hub.Attach(client) {
			conn.Close()
			return
		}
		go client.WritePump()
		go client.ReadPump()
		attached <- client
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestClient_RepliesToPingAndUnknownAction(t *testing.T) {
	hub := NewHub(session.NewBroker(8))
	go hub.Run()
	defer hub.Stop()
	srv := serveHub(t, hub, make(chan *Client, 1))
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(Message{Action: "ping"}))
	assert.Equal(t, "pong", readFrame(t, conn).Action)

	require.NoError(t, conn.WriteJSON(Message{Action: "dance"}))
	msg := readFrame(t, conn)
	assert.Equal(t, "error", msg.Action)
	assert.Equal(t, map[string]interface{}{"message": "Unknown action: dance"}, msg.Payload)
}

func TestClient_StopWhileRepliesAreQueued(t *testing.T) {
	hub := NewHub(session.NewBroker(8))
	go hub.Run()
	attached := make(chan *Client, 1)
	srv := serveHub(t, hub, attached)
	conn := dial(t, srv)

	var client *Client
	select {
	case client = <-attached:
	case <-time.After(2 * time.Second):
		t.Fatal("client never attached")
	}

	stopFlood := make(chan struct{})
	flooded := make(chan struct{})
	go func() {
		defer close(flooded)
		for {
			select {
			case <-stopFlood:
				return
			default:
			}
			if err := conn.WriteJSON(Message{Action: "ping"}); err != nil {
				return
			}
		}
	}()

	time.Sleep(150 * time.Millisecond)
	hub.Stop()

	select {
	case <-client.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("client not released on stop")
	}
	close(stopFlood)
	<-flooded
}
