package websocket

import (
	"encoding/json"
	"fmt"
)

// Event names carried in the envelope
const (
	EventJoinRoom         = "join_room"
	EventSendMessage      = "send_message"
	EventAdminSendMessage = "admin_send_message"
	EventReceiveMessage   = "receive_message"
	EventMessageDeleted   = "message_deleted"
	EventError            = "error"
)

// Envelope is the frame exchanged in both directions
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type JoinRoomPayload struct {
	Room  string `json:"room"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// SendMessagePayload is the body of send_message and admin_send_message.
// TargetEmail only applies to admin messages.
type SendMessagePayload struct {
	Room        string `json:"room"`
	SenderEmail string `json:"senderEmail"`
	SenderName  string `json:"senderName"`
	SenderPhoto string `json:"senderPhoto"`
	Body        string `json:"body"`
	TargetEmail string `json:"targetEmail,omitempty"`
}

type MessageDeletedPayload struct {
	MessageID string `json:"messageId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Encode wraps data in an envelope for event
func Encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// Decode parses an inbound frame
func Decode(frame []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("invalid frame: %w", err)
	}
	if env.Event == "" {
		return nil, fmt.Errorf("invalid frame: missing event")
	}
	return &env, nil
}
