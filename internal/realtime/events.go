package realtime

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// EventType names an event on the wire.
type EventType string

const (
	// inbound
	EventSendMessage EventType = "sendMessage"
	EventTyping      EventType = "typing"
	EventStopTyping  EventType = "stopTyping"

	// outbound
	EventNewMessage  EventType = "newMessage"
	EventUpdateUsers EventType = "updateUsers"
	EventError       EventType = "error"
)

// ErrorCodeAuth is sent to a client whose credential was rejected. The client
// should discard its token and log in again.
const ErrorCodeAuth = "AUTH_ERROR"

var (
	ErrMalformedEvent = errors.New("malformed event")
	ErrUnknownEvent   = errors.New("unknown event type")
)

// Envelope is the JSON frame exchanged over the connection.
type Envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// InboundEvent is one of SendMessage, Typing or StopTyping.
type InboundEvent interface {
	inbound()
}

// SendMessage asks the server to relay Text to every connection.
type SendMessage struct {
	Text string
}

// Typing marks the sender as typing.
type Typing struct{}

// StopTyping marks the sender as active again.
type StopTyping struct{}

func (SendMessage) inbound() {}
func (Typing) inbound()      {}
func (StopTyping) inbound()  {}

// DecodeInbound parses a client frame. The sendMessage payload is a JSON
// string; an absent or null payload decodes as empty text.
func DecodeInbound(data []byte) (InboundEvent, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	switch env.Type {
	case EventSendMessage:
		var text string
		if len(env.Payload) > 0 && !bytes.Equal(env.Payload, []byte("null")) {
			if err := json.Unmarshal(env.Payload, &text); err != nil {
				return nil, fmt.Errorf("%w: sendMessage payload: %v", ErrMalformedEvent, err)
			}
		}
		return SendMessage{Text: text}, nil
	case EventTyping:
		return Typing{}, nil
	case EventStopTyping:
		return StopTyping{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}
}

// OutboundEvent is one of NewMessage, UpdateUsers or ErrorEvent.
type OutboundEvent interface {
	Type() EventType
}

// NewMessage is a relayed chat message.
type NewMessage struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

// UserPresence is one entry of the presence view.
type UserPresence struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// UpdateUsers carries the full presence view.
type UpdateUsers []UserPresence

// ErrorEvent reports a failure to the client.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (NewMessage) Type() EventType  { return EventNewMessage }
func (UpdateUsers) Type() EventType { return EventUpdateUsers }
func (ErrorEvent) Type() EventType  { return EventError }

// Encode wraps an outbound event into its wire envelope.
func Encode(evt OutboundEvent) ([]byte, error) {
	if users, ok := evt.(UpdateUsers); ok && users == nil {
		evt = UpdateUsers{}
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", evt.Type(), err)
	}
	return json.Marshal(Envelope{Type: evt.Type(), Payload: payload})
}
