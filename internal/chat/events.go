package chat

import (
	"errors"

	"tripchat/internal/models"
)

// Server to client event types.
const (
	EventNewMessage  = "new-message"
	EventOnlineUsers = "online-users"
	EventAck         = "ack"
	EventError       = "error"
)

// Client to server event types.
const (
	EventJoinRoom    = "join-room"
	EventLeaveRoom   = "leave-room"
	EventSendMessage = "send-message"
)

// Event is one outbound frame queued on a session.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type OnlineUsers struct {
	RoomID  int64   `json:"roomId"`
	UserIDs []int64 `json:"userIds"`
}

type Ack struct {
	Event  string `json:"event"`
	RoomID int64  `json:"roomId"`
}

type Failure struct {
	Event       string `json:"event"`
	RoomID      int64  `json:"roomId,omitempty"`
	Code        string `json:"code"`
	Message     string `json:"message"`
	ClientToken string `json:"clientToken,omitempty"`
}

func newMessageEvent(m models.Message) Event {
	return Event{Type: EventNewMessage, Data: m}
}

// AckEvent confirms a join or leave.
func AckEvent(event string, roomID int64) Event {
	return Event{Type: EventAck, Data: Ack{Event: event, RoomID: roomID}}
}

// ErrorEvent reports a failed operation back to the session that issued it.
// Store failures carry only the generic message, never the driver error.
func ErrorEvent(event string, roomID int64, clientToken string, err error) Event {
	msg := err.Error()
	if errors.Is(err, ErrStoreUnavailable) {
		msg = ErrStoreUnavailable.Error()
	}
	return Event{Type: EventError, Data: Failure{
		Event:       event,
		RoomID:      roomID,
		Code:        ErrorCode(err),
		Message:     msg,
		ClientToken: clientToken,
	}}
}
