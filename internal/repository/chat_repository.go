package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository/base"
	"github.com/google/uuid"
)

type ChatRepository struct {
	*base.Repository
}

func NewChatRepository(db base.DBTX) *ChatRepository {
	return &ChatRepository{Repository: base.NewRepository(db)}
}

// Create добавляет сообщение в чат сессии
func (r *ChatRepository) Create(ctx context.Context, message *model.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (session_id, sender_id, message)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query, message.SessionID, message.SenderID, message.Message).
		Scan(&message.ID, &message.Timestamp)
	if err != nil {
		return fmt.Errorf("create chat message: %w", err)
	}

	return nil
}

// ListBySession возвращает всю переписку сессии по возрастанию времени
func (r *ChatRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*model.ChatMessage, error) {
	query := `
		SELECT m.id, m.session_id, m.sender_id, u.name, m.message, m.created_at
		FROM chat_messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.session_id = $1
		ORDER BY m.created_at ASC, m.id ASC
	`

	rows, err := r.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	messages := []*model.ChatMessage{}
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.SenderID, &m.SenderName, &m.Message, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		messages = append(messages, &m)
	}

	return messages, rows.Err()
}
