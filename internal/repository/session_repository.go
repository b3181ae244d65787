package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const sessionColumns = `
	s.id, s.student_id, s.counselor_id, s.date_time, s.status, s.chat_status, s.topic,
	s.cancellation_status, s.cancellation_reason, s.created_at, s.updated_at
`

type SessionRepository struct {
	*base.Repository
}

func NewSessionRepository(db base.DBTX) *SessionRepository {
	return &SessionRepository{Repository: base.NewRepository(db)}
}

func scanSession(row pgx.Row, extra ...any) (*model.CounselingSession, error) {
	var session model.CounselingSession
	dest := []any{
		&session.ID,
		&session.StudentID,
		&session.CounselorID,
		&session.DateTime,
		&session.Status,
		&session.ChatStatus,
		&session.Topic,
		&session.CancellationStatus,
		&session.CancellationReason,
		&session.CreatedAt,
		&session.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &session, nil
}

// Create создаёт новую сессию
func (r *SessionRepository) Create(ctx context.Context, session *model.CounselingSession) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}

	query := `
		INSERT INTO counseling_sessions (id, student_id, counselor_id, date_time, status, chat_status, topic)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		session.ID,
		session.StudentID,
		session.CounselorID,
		session.DateTime,
		session.Status,
		session.ChatStatus,
		session.Topic,
	).Scan(&session.CreatedAt, &session.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// GetByID получает сессию по ID с именами участников
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.CounselingSession, error) {
	query := `
		SELECT ` + sessionColumns + `, st.name, c.name
		FROM counseling_sessions s
		JOIN users st ON st.id = s.student_id
		JOIN users c ON c.id = s.counselor_id
		WHERE s.id = $1
	`

	var studentName, counselorName string
	session, err := scanSession(r.QueryRow(ctx, query, id), &studentName, &counselorName)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session by id: %w", err)
	}
	session.StudentName = studentName
	session.CounselorName = counselorName

	return session, nil
}

// GetByIDForUpdate блокирует строку сессии до конца транзакции
func (r *SessionRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.CounselingSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM counseling_sessions s
		WHERE s.id = $1
		FOR UPDATE
	`

	session, err := scanSession(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session for update: %w", err)
	}

	return session, nil
}

func (r *SessionRepository) list(ctx context.Context, where string, args ...any) ([]*model.CounselingSession, error) {
	query := `
		SELECT ` + sessionColumns + `, st.name, c.name
		FROM counseling_sessions s
		JOIN users st ON st.id = s.student_id
		JOIN users c ON c.id = s.counselor_id
		` + where + `
		ORDER BY s.date_time DESC
	`

	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*model.CounselingSession{}
	for rows.Next() {
		var studentName, counselorName string
		session, err := scanSession(rows, &studentName, &counselorName)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		session.StudentName = studentName
		session.CounselorName = counselorName
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

// ListByStudent получает все сессии студента
func (r *SessionRepository) ListByStudent(ctx context.Context, studentID int64) ([]*model.CounselingSession, error) {
	return r.list(ctx, `WHERE s.student_id = $1`, studentID)
}

// ListByCounselor получает все сессии консультанта
func (r *SessionRepository) ListByCounselor(ctx context.Context, counselorID int64) ([]*model.CounselingSession, error) {
	return r.list(ctx, `WHERE s.counselor_id = $1`, counselorID)
}

// ListAll получает все сессии (для админа)
func (r *SessionRepository) ListAll(ctx context.Context) ([]*model.CounselingSession, error) {
	return r.list(ctx, ``)
}

// ListBookedByCounselor возвращает не отменённые сессии консультанта
func (r *SessionRepository) ListBookedByCounselor(ctx context.Context, counselorID int64) ([]model.SessionSummary, error) {
	query := `
		SELECT id, date_time, status, student_id
		FROM counseling_sessions
		WHERE counselor_id = $1 AND status <> 'canceled'
		ORDER BY date_time
	`

	rows, err := r.Query(ctx, query, counselorID)
	if err != nil {
		return nil, fmt.Errorf("list booked sessions: %w", err)
	}
	defer rows.Close()

	booked := []model.SessionSummary{}
	for rows.Next() {
		var summary model.SessionSummary
		if err := rows.Scan(&summary.ID, &summary.DateTime, &summary.Status, &summary.StudentID); err != nil {
			return nil, fmt.Errorf("scan booked session: %w", err)
		}
		booked = append(booked, summary)
	}

	return booked, rows.Err()
}

// ListActiveByCounselorBetween возвращает pending/confirmed сессии консультанта в [from, to)
func (r *SessionRepository) ListActiveByCounselorBetween(ctx context.Context, counselorID int64, from, to time.Time) ([]model.SessionSummary, error) {
	query := `
		SELECT id, date_time, status, student_id
		FROM counseling_sessions
		WHERE counselor_id = $1
		  AND status IN ('pending', 'confirmed')
		  AND date_time >= $2 AND date_time < $3
		ORDER BY date_time
	`

	rows, err := r.Query(ctx, query, counselorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	defer rows.Close()

	var active []model.SessionSummary
	for rows.Next() {
		var summary model.SessionSummary
		if err := rows.Scan(&summary.ID, &summary.DateTime, &summary.Status, &summary.StudentID); err != nil {
			return nil, fmt.Errorf("scan active session: %w", err)
		}
		active = append(active, summary)
	}

	return active, rows.Err()
}

// UpdateStatus обновляет статус сессии
func (r *SessionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.SessionStatus) error {
	query := `
		UPDATE counseling_sessions
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`

	affected, err := r.ExecAffected(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session not found")
	}

	return nil
}

// UpdateDateTime переносит сессию, статус не меняется
func (r *SessionRepository) UpdateDateTime(ctx context.Context, id uuid.UUID, dateTime time.Time) error {
	query := `
		UPDATE counseling_sessions
		SET date_time = $1, updated_at = NOW()
		WHERE id = $2
	`

	affected, err := r.ExecAffected(ctx, query, dateTime, id)
	if err != nil {
		return fmt.Errorf("reschedule session: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session not found")
	}

	return nil
}

// UpdateCancellation записывает состояние переговоров об отмене.
// status и cancellationStatus пишутся вместе, чтобы пара всегда была согласована.
func (r *SessionRepository) UpdateCancellation(
	ctx context.Context,
	id uuid.UUID,
	status model.SessionStatus,
	cancellationStatus *model.CancellationStatus,
	reason *string,
) error {
	query := `
		UPDATE counseling_sessions
		SET status = $1, cancellation_status = $2, cancellation_reason = $3, updated_at = NOW()
		WHERE id = $4
	`

	affected, err := r.ExecAffected(ctx, query, status, cancellationStatus, reason, id)
	if err != nil {
		return fmt.Errorf("update session cancellation: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session not found")
	}

	return nil
}

// UpdateChatStatus открывает или закрывает чат сессии
func (r *SessionRepository) UpdateChatStatus(ctx context.Context, id uuid.UUID, chatStatus model.ChatStatus) error {
	query := `
		UPDATE counseling_sessions
		SET chat_status = $1, updated_at = NOW()
		WHERE id = $2
	`

	affected, err := r.ExecAffected(ctx, query, chatStatus, id)
	if err != nil {
		return fmt.Errorf("update chat status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session not found")
	}

	return nil
}

// CountOpenChats количество открытых чатов пользователя
func (r *SessionRepository) CountOpenChats(ctx context.Context, userID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM counseling_sessions
		WHERE (student_id = $1 OR counselor_id = $1) AND chat_status = 'open'
	`

	var count int
	if err := r.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count open chats: %w", err)
	}

	return count, nil
}
