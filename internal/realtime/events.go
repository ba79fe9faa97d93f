// Package realtime implements the presence and relay core: WebSocket
// connections, per-user and per-chat rooms, and verbatim event fan-out.
package realtime

import (
	"encoding/json"
	"log"
)

// Event names carried on the wire, both directions.
const (
	EventSetup           = "setup"
	EventJoinChat        = "join chat"
	EventTyping          = "typing"
	EventStopTyping      = "stop typing"
	EventNewMessage      = "new message"
	EventConnected       = "connected"
	EventMessageReceived = "message received"
)

// Event is the frame envelope. WebSocket frames have no event names of their
// own, so every frame is a JSON object naming the event it carries.
type Event struct {
	Name    string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (e Event) encode() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		log.Printf("encode event %q: %v", e.Name, err)
		return nil
	}
	return data
}

// setupPayload is the slice of the user object the relay reads. The id is
// trusted as-is; nothing is cross-checked against the persistence layer.
type setupPayload struct {
	ID string `json:"_id"`
}

// messagePayload is the slice of the message wire object the relay reads to
// address delivery. The full payload is forwarded untouched.
type messagePayload struct {
	Chat struct {
		Users []struct {
			ID string `json:"_id"`
		} `json:"users"`
	} `json:"chat"`
	Sender struct {
		ID string `json:"_id"`
	} `json:"sender"`
}
