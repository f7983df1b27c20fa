package models

import "time"

// Trip is a chat room. Trips and their members are managed outside the chat service.
type Trip struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedBy int64     `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}
