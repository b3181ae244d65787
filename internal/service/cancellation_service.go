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

// CancellationService переговоры об отмене подтверждённой сессии.
// Каждый переход читает строку сессии с FOR UPDATE и пишет в той же транзакции,
// поэтому параллельные запросы выполняются по очереди и второй видит уже новое состояние
type CancellationService struct {
	db       base.Pool
	notifier Notifier
	logger   *zap.Logger
}

func NewCancellationService(db base.Pool, notifier Notifier, logger *zap.Logger) *CancellationService {
	return &CancellationService{db: db, notifier: notifier, logger: logger}
}

// cancellationStep результат перехода: что записать и кого уведомить
type cancellationStep struct {
	Status             model.SessionStatus
	CancellationStatus model.CancellationStatus
	Reason             *string
	NotifyUserID       int64
	Message            string
	Link               string
}

// planCancellationRequest решает, что делает запрос на отмену от участника
func planCancellationRequest(session *model.CounselingSession, caller model.Caller, reason string) (cancellationStep, error) {
	if !session.HasParticipant(caller.ID) {
		return cancellationStep{}, fmt.Errorf("%w: not a participant of this session", ErrForbidden)
	}
	if session.Status != model.SessionStatusConfirmed {
		return cancellationStep{}, fmt.Errorf("%w: only confirmed sessions can be canceled", ErrInvalidState)
	}

	switch caller.Role {
	case model.RoleStudent:
		if caller.ID != session.StudentID {
			return cancellationStep{}, fmt.Errorf("%w: not the student of this session", ErrForbidden)
		}
		if session.CancellationStatus != nil {
			return cancellationStep{}, fmt.Errorf("%w: cancellation already %s", ErrInvalidState, *session.CancellationStatus)
		}
		return cancellationStep{
			Status:             session.Status,
			CancellationStatus: model.CancellationPendingStudent,
			Reason:             &reason,
			NotifyUserID:       session.CounselorID,
			Message:            fmt.Sprintf("%s requested to cancel a session", caller.Name),
			Link:               linkRequests,
		}, nil
	case model.RoleCounselor:
		if caller.ID != session.CounselorID {
			return cancellationStep{}, fmt.Errorf("%w: not the counselor of this session", ErrForbidden)
		}
		return cancellationStep{
			Status:             model.SessionStatusCanceled,
			CancellationStatus: model.CancellationApproved,
			Reason:             &reason,
			NotifyUserID:       session.StudentID,
			Message:            "The counselor has canceled the session",
			Link:               linkHistory,
		}, nil
	case model.RoleAdmin:
		return cancellationStep{}, fmt.Errorf("%w: admins do not take part in sessions", ErrForbidden)
	default:
		return cancellationStep{}, fmt.Errorf("%w: unknown role %q", ErrForbidden, caller.Role)
	}
}

// planApproval подтверждение отмены, запрошенной студентом
func planApproval(session *model.CounselingSession, caller model.Caller) (cancellationStep, error) {
	if session.CounselorID != caller.ID {
		return cancellationStep{}, fmt.Errorf("%w: session not found", ErrNotFound)
	}
	if !session.IsCancellationPending() {
		return cancellationStep{}, fmt.Errorf("%w: no cancellation request from the student", ErrInvalidState)
	}

	return cancellationStep{
		Status:             model.SessionStatusCanceled,
		CancellationStatus: model.CancellationApproved,
		Reason:             session.CancellationReason,
		NotifyUserID:       session.StudentID,
		Message:            "Your cancellation request has been approved",
		Link:               linkHistory,
	}, nil
}

// RequestCancellation студент запрашивает отмену, консультант отменяет сразу
func (s *CancellationService) RequestCancellation(ctx context.Context, caller model.Caller, sessionID uuid.UUID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fmt.Errorf("%w: cancellation reason is required", ErrInvalidInput)
	}

	step, err := s.transition(ctx, sessionID, func(session *model.CounselingSession) (cancellationStep, error) {
		return planCancellationRequest(session, caller, reason)
	})
	if err != nil {
		return fmt.Errorf("request cancellation: %w", err)
	}

	s.logger.Info("Cancellation requested",
		zap.String("session_id", sessionID.String()),
		zap.Int64("user_id", caller.ID),
		zap.String("role", caller.Role.String()),
		zap.String("cancellation_status", string(step.CancellationStatus)))

	s.notifier.Notify(ctx, step.NotifyUserID, step.Message, step.Link)
	return nil
}

// ApproveCancellation консультант подтверждает отмену, запрошенную студентом
func (s *CancellationService) ApproveCancellation(ctx context.Context, caller model.Caller, sessionID uuid.UUID) error {
	if err := requireRole(caller, model.RoleCounselor); err != nil {
		return err
	}

	step, err := s.transition(ctx, sessionID, func(session *model.CounselingSession) (cancellationStep, error) {
		return planApproval(session, caller)
	})
	if err != nil {
		return fmt.Errorf("approve cancellation: %w", err)
	}

	s.logger.Info("Cancellation approved",
		zap.String("session_id", sessionID.String()),
		zap.Int64("counselor_id", caller.ID))

	s.notifier.Notify(ctx, step.NotifyUserID, step.Message, step.Link)
	return nil
}

// transition читает сессию под блокировкой, решает переход и записывает его
func (s *CancellationService) transition(
	ctx context.Context,
	sessionID uuid.UUID,
	plan func(*model.CounselingSession) (cancellationStep, error),
) (cancellationStep, error) {
	var step cancellationStep

	err := base.InTx(ctx, s.db, func(tx pgx.Tx) error {
		sessions := repository.NewSessionRepository(tx)

		session, err := sessions.GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return fmt.Errorf("%w: session not found", ErrNotFound)
		}

		step, err = plan(session)
		if err != nil {
			return err
		}

		cancellation := step.CancellationStatus
		return sessions.UpdateCancellation(ctx, sessionID, step.Status, &cancellation, step.Reason)
	})

	return step, err
}
