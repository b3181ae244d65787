package model

import "time"

// Note личная заметка студента или консультанта
type Note struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"ownerId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}
