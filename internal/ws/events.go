package ws

import "encoding/json"

// Event names on the realtime channel
const (
	EventConnected  = "connected"
	EventMessage    = "message"
	EventJoinRoom   = "join_room"
	EventJoinedRoom = "joined_room"
	EventError      = "error"
)

// Event is the wire envelope for every frame on the realtime channel
type Event struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// outboundEvent is the envelope used when the server emits a frame
type outboundEvent struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

func marshalEvent(event string, payload any) ([]byte, error) {
	return json.Marshal(outboundEvent{Event: event, Payload: payload})
}

// errorPayload is unicast to a sender when its frame could not be handled
type errorPayload struct {
	Message string `json:"message"`
}
