package models

import "time"

// Message is a persisted chat message. Once appended it never changes.
type Message struct {
	ID          int64     `json:"id"`
	RoomID      int64     `json:"roomId"`
	SenderID    int64     `json:"senderId"`
	SenderName  string    `json:"senderDisplayName"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"createdAt"`
	ClientToken string    `json:"clientToken,omitempty"`
}

// NewMessage is the input of an append.
type NewMessage struct {
	RoomID      int64
	SenderID    int64
	Body        string
	ClientToken string
}
