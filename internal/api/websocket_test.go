package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/isdelr/taskmanager/internal/api/handlers"
	"github.com/isdelr/taskmanager/internal/auth"
	"github.com/isdelr/taskmanager/internal/routes"
	"github.com/isdelr/taskmanager/internal/session"
	"github.com/isdelr/taskmanager/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveApp(t *testing.T, app *testApp) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(app.handler)
	t.Cleanup(srv.Close)
	return srv
}

func dialEvents(srv *httptest.Server, token, origin string) (*gws.Conn, *http.Response, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Cookie", auth.CookieName+"="+token)
	}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+routes.Events, header)
}

func readEvent(t *testing.T, conn *gws.Conn) websocket.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg websocket.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

// awaitAttached round-trips a ping so the client is known to be registered
// with the hub.
func awaitAttached(t *testing.T, conn *gws.Conn) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(websocket.Message{Action: "ping"}))
	require.Equal(t, "pong", readEvent(t, conn).Action)
}

func TestEvents_RejectsWithoutSession(t *testing.T) {
	app := newTestApp(t, handlers.Options{}, nil)
	srv := serveApp(t, app)

	for _, token := range []string{"", "not-a-jwt"} {
		conn, resp, err := dialEvents(srv, token, "")
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		if conn != nil {
			conn.Close()
		}
	}
}

func TestEvents_ChecksOrigin(t *testing.T) {
	app := newTestApp(t, handlers.Options{}, nil)
	srv := serveApp(t, app)
	token := app.signIn(t, "ada@example.com")

	conn, resp, err := dialEvents(srv, token, "http://evil.example")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	if conn != nil {
		conn.Close()
	}

	for _, origin := range []string{"http://localhost:3000", srv.URL, ""} {
		conn, _, err := dialEvents(srv, token, origin)
		require.NoError(t, err, "origin %q", origin)
		awaitAttached(t, conn)
		conn.Close()
	}
}

func TestEvents_LogoutPushesSessionEnded(t *testing.T) {
	app := newTestApp(t, handlers.Options{}, nil)
	srv := serveApp(t, app)
	token := app.signIn(t, "ada@example.com")

	conn, _, err := dialEvents(srv, token, "")
	require.NoError(t, err)
	defer conn.Close()
	awaitAttached(t, conn)

	rec := app.do(http.MethodPost, routes.Logout, url.Values{"confirm": {"true"}}, token)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	msg := readEvent(t, conn)
	assert.Equal(t, string(session.EventEnded), msg.Action)
	payload, ok := msg.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, payload["sessionId"])
}
