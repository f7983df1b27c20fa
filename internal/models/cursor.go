package models

// Cursor selects a page of room history. After == 0 means the newest Limit
// messages; otherwise messages with id greater than After. Results are
// always in ascending id order.
type Cursor struct {
	After int64
	Limit int
}
