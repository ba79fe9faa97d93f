package realtime

import (
	"encoding/json"
	"log"
)

// Relay forwards inbound events to the right audience. It holds no state of
// its own beyond the registry capability it dispatches through: no retries,
// no acknowledgement tracking, no persisted relay state. A recipient that is
// not connected simply misses the event.
type Relay struct {
	registry Registry
}

func NewRelay(registry Registry) *Relay {
	return &Relay{registry: registry}
}

// Handle dispatches one inbound event. Called from the connection's read
// pump, so events from a single connection are processed in order.
func (r *Relay) Handle(c *Conn, evt Event) {
	switch evt.Name {
	case EventSetup:
		r.setup(c, evt.Payload)
	case EventJoinChat:
		r.joinChat(c, evt.Payload)
	case EventTyping, EventStopTyping:
		r.typing(c, evt)
	case EventNewMessage:
		r.newMessage(c, evt.Payload)
	default:
		log.Printf("dropping unknown event %q from %s", evt.Name, c.id)
	}
}

// setup joins the connection to the room named by the announced user id and
// acknowledges with "connected" to this connection only. The id is trusted
// as-is.
func (r *Relay) setup(c *Conn, payload json.RawMessage) {
	var user setupPayload
	if err := json.Unmarshal(payload, &user); err != nil {
		log.Printf("dropping setup with malformed payload: %v", err)
		return
	}

	c.userID = user.ID
	r.registry.Join(user.ID, c)
	c.trySend(Event{Name: EventConnected}.encode())
}

func (r *Relay) joinChat(c *Conn, payload json.RawMessage) {
	var room string
	if err := json.Unmarshal(payload, &room); err != nil {
		log.Printf("dropping join chat with malformed payload: %v", err)
		return
	}

	r.registry.Join(room, c)
	log.Printf("User Joined Room: %s", room)
}

// typing re-emits the event verbatim to the chat room; the broadcast
// primitive excludes the sender.
func (r *Relay) typing(c *Conn, evt Event) {
	var room string
	if err := json.Unmarshal(evt.Payload, &room); err != nil {
		log.Printf("dropping %s with malformed payload: %v", evt.Name, err)
		return
	}

	r.registry.Broadcast(room, c, evt.encode())
}

// newMessage addresses delivery per recipient identity: every participant
// other than the sender gets "message received" in their user room, so it
// reaches them whichever chat they currently have open.
func (r *Relay) newMessage(c *Conn, payload json.RawMessage) {
	var msg messagePayload
	if err := json.Unmarshal(payload, &msg); err != nil {
		log.Printf("dropping new message with malformed payload: %v", err)
		return
	}

	if msg.Chat.Users == nil {
		log.Println("chat.users not defined")
		return
	}

	data := Event{Name: EventMessageReceived, Payload: payload}.encode()
	for _, u := range msg.Chat.Users {
		if u.ID == msg.Sender.ID {
			continue
		}
		r.registry.Broadcast(u.ID, c, data)
	}
}
