package model

import "time"

type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Message   string    `json:"message"`
	Link      string    `json:"link"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
