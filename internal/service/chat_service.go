package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ChatService переписка внутри сессии. chatStatus только подсказка для интерфейса:
// отправка разрешена всегда и снова открывает чат
type ChatService struct {
	db       base.Pool
	notifier Notifier
	logger   *zap.Logger
}

func NewChatService(db base.Pool, notifier Notifier, logger *zap.Logger) *ChatService {
	return &ChatService{db: db, notifier: notifier, logger: logger}
}

// SendMessage добавляет сообщение и открывает чат
func (s *ChatService) SendMessage(ctx context.Context, caller model.Caller, sessionID uuid.UUID, text string) (*model.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}

	message := &model.ChatMessage{
		SessionID:  sessionID,
		SenderID:   caller.ID,
		SenderName: caller.Name,
		Message:    text,
	}

	var recipientID int64
	err := base.InTx(ctx, s.db, func(tx pgx.Tx) error {
		sessions := repository.NewSessionRepository(tx)

		session, err := loadParticipantSession(ctx, sessions, caller, sessionID)
		if err != nil {
			return err
		}
		recipientID = session.Counterpart(caller.ID)

		if err := repository.NewChatRepository(tx).Create(ctx, message); err != nil {
			return err
		}
		return sessions.UpdateChatStatus(ctx, sessionID, model.ChatStatusOpen)
	})
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	s.logger.Debug("Chat message sent",
		zap.String("session_id", sessionID.String()),
		zap.Int64("sender_id", caller.ID))

	s.notifier.Notify(ctx, recipientID, fmt.Sprintf("New message from %s", caller.Name), linkChat+sessionID.String())

	return message, nil
}

// SetChatStatus участник открывает или закрывает чат
func (s *ChatService) SetChatStatus(ctx context.Context, caller model.Caller, sessionID uuid.UUID, status model.ChatStatus) error {
	if _, ok := model.ParseChatStatus(string(status)); !ok {
		return fmt.Errorf("%w: invalid chat status %q", ErrInvalidInput, status)
	}

	err := base.InTx(ctx, s.db, func(tx pgx.Tx) error {
		sessions := repository.NewSessionRepository(tx)

		if _, err := loadParticipantSession(ctx, sessions, caller, sessionID); err != nil {
			return err
		}
		return sessions.UpdateChatStatus(ctx, sessionID, status)
	})
	if err != nil {
		return fmt.Errorf("set chat status: %w", err)
	}

	s.logger.Info("Chat status updated",
		zap.String("session_id", sessionID.String()),
		zap.String("chat_status", string(status)))

	return nil
}

// ListMessages вся переписка по возрастанию времени. Читают участники и админ
func (s *ChatService) ListMessages(ctx context.Context, caller model.Caller, sessionID uuid.UUID) ([]*model.ChatMessage, error) {
	session, err := repository.NewSessionRepository(s.db).GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session not found", ErrNotFound)
	}
	if !canRead(caller, session) {
		return nil, fmt.Errorf("%w: you are not part of this chat session", ErrForbidden)
	}

	return repository.NewChatRepository(s.db).ListBySession(ctx, sessionID)
}

func loadParticipantSession(ctx context.Context, sessions *repository.SessionRepository, caller model.Caller, sessionID uuid.UUID) (*model.CounselingSession, error) {
	session, err := sessions.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session not found", ErrNotFound)
	}
	if !session.HasParticipant(caller.ID) {
		return nil, fmt.Errorf("%w: you are not part of this chat session", ErrForbidden)
	}
	return session, nil
}
