package domain

import "time"

// Note is a free-form annotation attached to a book.
type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Page      int       `json:"page,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
