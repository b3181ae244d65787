package model

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	ID         int64     `json:"id"`
	SessionID  uuid.UUID `json:"sessionId"`
	SenderID   int64     `json:"senderId"`
	SenderName string    `json:"senderName"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}
