package websocket

import (
	"encoding/json"

	"github.com/isdelr/taskmanager/internal/session"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// NewSessionMessage encodes a session event for the browser.
func NewSessionMessage(e session.Event) []byte {
	return encode(Message{Action: string(e.Type), Payload: e})
}

// NewErrorMessage encodes an error notice.
func NewErrorMessage(msg string) []byte {
	return encode(Message{Action: "error", Payload: map[string]string{"message": msg}})
}

func encode(m Message) []byte {
	data, err := json.Marshal(m)
	if err != nil {
		return []byte(`{"action":"error","payload":{"message":"encoding failed"}}`)
	}
	return data
}
