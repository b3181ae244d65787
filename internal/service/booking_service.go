package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// BookingOptions настройки записи на сессии
type BookingOptions struct {
	Location *time.Location
	// Проверять, что время сессии совпадает со свободным объявленным слотом
	RequireDeclaredSlot bool
}

type BookingService struct {
	db       base.Pool
	notifier Notifier
	opts     BookingOptions
	logger   *zap.Logger
}

func NewBookingService(db base.Pool, notifier Notifier, opts BookingOptions, logger *zap.Logger) *BookingService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &BookingService{
		db:       db,
		notifier: notifier,
		opts:     opts,
		logger:   logger,
	}
}

// SessionRequest запрос студента на сессию
type SessionRequest struct {
	CounselorID int64
	DateTime    time.Time
	Topic       string
}

// RequestSession создаёт сессию в статусе pending и уведомляет консультанта
func (s *BookingService) RequestSession(ctx context.Context, caller model.Caller, req SessionRequest) (uuid.UUID, error) {
	if err := requireRole(caller, model.RoleStudent); err != nil {
		return uuid.Nil, err
	}

	topic := strings.TrimSpace(req.Topic)
	if req.CounselorID == 0 || req.DateTime.IsZero() || topic == "" {
		return uuid.Nil, fmt.Errorf("%w: counselor, date and topic are required", ErrInvalidInput)
	}

	session := &model.CounselingSession{
		StudentID:   caller.ID,
		CounselorID: req.CounselorID,
		DateTime:    req.DateTime,
		Status:      model.SessionStatusPending,
		ChatStatus:  model.ChatStatusClosed,
		Topic:       topic,
	}

	err := base.InTx(ctx, s.db, func(tx pgx.Tx) error {
		counselor, err := repository.NewUserRepository(tx).GetByID(ctx, req.CounselorID)
		if err != nil {
			return err
		}
		if counselor == nil || !counselor.IsBookable() {
			return fmt.Errorf("%w: counselor not found", ErrNotFound)
		}

		if s.opts.RequireDeclaredSlot {
			if err := s.checkDeclaredSlot(ctx, tx, req.CounselorID, req.DateTime); err != nil {
				return err
			}
		}

		return repository.NewSessionRepository(tx).Create(ctx, session)
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("request session: %w", err)
	}

	s.logger.Info("Session requested",
		zap.String("session_id", session.ID.String()),
		zap.Int64("student_id", caller.ID),
		zap.Int64("counselor_id", req.CounselorID),
		zap.Time("date_time", req.DateTime))

	s.notifier.Notify(ctx, req.CounselorID, fmt.Sprintf("New session request from %s", caller.Name), linkRequests)

	return session.ID, nil
}

// checkDeclaredSlot время должно совпадать с объявленным слотом, на который нет активной сессии.
// Advisory-блокировка сериализует запись к одному консультанту
func (s *BookingService) checkDeclaredSlot(ctx context.Context, tx pgx.Tx, counselorID int64, dateTime time.Time) error {
	slotRepo := repository.NewAvailabilityRepository(tx)
	if err := slotRepo.LockCounselor(ctx, counselorID); err != nil {
		return err
	}

	date, startTime := slotOf(dateTime, s.opts.Location)
	declared, err := slotRepo.Exists(ctx, counselorID, date, startTime)
	if err != nil {
		return err
	}
	if !declared {
		return fmt.Errorf("%w: %s %s is not an available slot", ErrConflict, date, startTime)
	}

	taken, err := repository.NewSessionRepository(tx).ListActiveByCounselorBetween(ctx, counselorID, dateTime, dateTime.Add(time.Minute))
	if err != nil {
		return err
	}
	if len(taken) > 0 {
		return fmt.Errorf("%w: %s %s is already booked", ErrConflict, date, startTime)
	}

	return nil
}

// SetStatus меняет статус сессии. Только консультант-владелец.
// Статусы ставятся свободно, кроме выхода из canceled
func (s *BookingService) SetStatus(ctx context.Context, caller model.Caller, sessionID uuid.UUID, status model.SessionStatus) error {
	if err := requireRole(caller, model.RoleCounselor); err != nil {
		return err
	}
	if _, ok := model.ParseSessionStatus(string(status)); !ok {
		return fmt.Errorf("%w: invalid status %q", ErrInvalidInput, status)
	}

	var session *model.CounselingSession
	err := base.InTx(ctx, s.db, func(tx pgx.Tx) error {
		sessions := repository.NewSessionRepository(tx)

		var err error
		session, err = loadOwnedSession(ctx, sessions, caller, sessionID)
		if err != nil {
			return err
		}
		if err := checkStatusChange(session.Status, status); err != nil {
			return err
		}

		return sessions.UpdateStatus(ctx, sessionID, status)
	})
	if err != nil {
		return fmt.Errorf("set session status: %w", err)
	}

	s.logger.Info("Session status updated",
		zap.String("session_id", sessionID.String()),
		zap.String("from", string(session.Status)),
		zap.String("to", string(status)))

	s.notifier.Notify(ctx, session.StudentID,
		fmt.Sprintf("Status of session %q updated to %s", session.Topic, status), linkHistory)

	return nil
}

// Reschedule переносит сессию. Статус не меняется
func (s *BookingService) Reschedule(ctx context.Context, caller model.Caller, sessionID uuid.UUID, dateTime time.Time) error {
	if err := requireRole(caller, model.RoleCounselor); err != nil {
		return err
	}
	if dateTime.IsZero() {
		return fmt.Errorf("%w: new date and time are required", ErrInvalidInput)
	}

	var session *model.CounselingSession
	err := base.InTx(ctx, s.db, func(tx pgx.Tx) error {
		sessions := repository.NewSessionRepository(tx)

		var err error
		session, err = loadOwnedSession(ctx, sessions, caller, sessionID)
		if err != nil {
			return err
		}

		return sessions.UpdateDateTime(ctx, sessionID, dateTime)
	})
	if err != nil {
		return fmt.Errorf("reschedule session: %w", err)
	}

	s.logger.Info("Session rescheduled",
		zap.String("session_id", sessionID.String()),
		zap.Time("from", session.DateTime),
		zap.Time("to", dateTime))

	s.notifier.Notify(ctx, session.StudentID,
		fmt.Sprintf("Session %q was rescheduled by the counselor", session.Topic), linkHistory)

	return nil
}

// ListSessions сессии пользователя, для админа все сессии
func (s *BookingService) ListSessions(ctx context.Context, caller model.Caller) ([]*model.CounselingSession, error) {
	sessions := repository.NewSessionRepository(s.db)

	switch caller.Role {
	case model.RoleStudent:
		return sessions.ListByStudent(ctx, caller.ID)
	case model.RoleCounselor:
		return sessions.ListByCounselor(ctx, caller.ID)
	case model.RoleAdmin:
		return sessions.ListAll(ctx)
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrForbidden, caller.Role)
	}
}

// GetSession сессия для участника или админа
func (s *BookingService) GetSession(ctx context.Context, caller model.Caller, sessionID uuid.UUID) (*model.CounselingSession, error) {
	session, err := repository.NewSessionRepository(s.db).GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil || !canRead(caller, session) {
		return nil, fmt.Errorf("%w: session not found", ErrNotFound)
	}

	return session, nil
}

// loadOwnedSession блокирует сессию консультанта. Чужая сессия неотличима от отсутствующей
func loadOwnedSession(ctx context.Context, sessions *repository.SessionRepository, caller model.Caller, sessionID uuid.UUID) (*model.CounselingSession, error) {
	session, err := sessions.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.CounselorID != caller.ID {
		return nil, fmt.Errorf("%w: session not found or permission denied", ErrNotFound)
	}
	return session, nil
}

// checkStatusChange canceled финальный: из него нельзя выйти
func checkStatusChange(current, next model.SessionStatus) error {
	if current == model.SessionStatusCanceled && next != model.SessionStatusCanceled {
		return fmt.Errorf("%w: canceled session cannot become %s", ErrInvalidState, next)
	}
	return nil
}

// canRead участники сессии и админ
func canRead(caller model.Caller, session *model.CounselingSession) bool {
	switch caller.Role {
	case model.RoleAdmin:
		return true
	case model.RoleStudent, model.RoleCounselor:
		return session.HasParticipant(caller.ID)
	default:
		return false
	}
}
