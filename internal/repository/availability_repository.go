package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository/base"
)

type AvailabilityRepository struct {
	*base.Repository
}

func NewAvailabilityRepository(db base.DBTX) *AvailabilityRepository {
	return &AvailabilityRepository{Repository: base.NewRepository(db)}
}

// ListByCounselor возвращает все объявленные слоты консультанта
func (r *AvailabilityRepository) ListByCounselor(ctx context.Context, counselorID int64) ([]model.AvailabilitySlot, error) {
	query := `
		SELECT id, counselor_id, to_char(available_date, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI')
		FROM counselor_availability
		WHERE counselor_id = $1
		ORDER BY available_date, start_time
	`

	return r.list(ctx, query, counselorID)
}

// ListBetween возвращает слоты консультанта с датами в [from, to]
func (r *AvailabilityRepository) ListBetween(ctx context.Context, counselorID int64, from, to string) ([]model.AvailabilitySlot, error) {
	query := `
		SELECT id, counselor_id, to_char(available_date, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI')
		FROM counselor_availability
		WHERE counselor_id = $1 AND available_date BETWEEN $2::date AND $3::date
		ORDER BY available_date, start_time
	`

	return r.list(ctx, query, counselorID, from, to)
}

func (r *AvailabilityRepository) list(ctx context.Context, query string, args ...any) ([]model.AvailabilitySlot, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	defer rows.Close()

	slots := []model.AvailabilitySlot{}
	for rows.Next() {
		var slot model.AvailabilitySlot
		if err := rows.Scan(&slot.ID, &slot.CounselorID, &slot.Date, &slot.StartTime); err != nil {
			return nil, fmt.Errorf("scan availability slot: %w", err)
		}
		slots = append(slots, slot)
	}

	return slots, rows.Err()
}

// CountForDate количество объявленных слотов на дату
func (r *AvailabilityRepository) CountForDate(ctx context.Context, counselorID int64, date string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM counselor_availability
		WHERE counselor_id = $1 AND available_date = $2::date
	`

	var count int
	if err := r.QueryRow(ctx, query, counselorID, date).Scan(&count); err != nil {
		return 0, fmt.Errorf("count availability: %w", err)
	}

	return count, nil
}

// Exists объявлен ли слот на дату и время
func (r *AvailabilityRepository) Exists(ctx context.Context, counselorID int64, date, startTime string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM counselor_availability
			WHERE counselor_id = $1 AND available_date = $2::date AND start_time = $3::time
		)
	`

	var exists bool
	if err := r.QueryRow(ctx, query, counselorID, date, startTime).Scan(&exists); err != nil {
		return false, fmt.Errorf("check availability slot: %w", err)
	}

	return exists, nil
}

// DeleteDay удаляет все слоты консультанта на дату
func (r *AvailabilityRepository) DeleteDay(ctx context.Context, counselorID int64, date string) error {
	query := `DELETE FROM counselor_availability WHERE counselor_id = $1 AND available_date = $2::date`

	if _, err := r.DB().Exec(ctx, query, counselorID, date); err != nil {
		return fmt.Errorf("delete availability day: %w", err)
	}

	return nil
}

// InsertSlots вставляет слоты на дату одним запросом.
// Повтор времени в наборе нарушает уникальный ключ и возвращает ErrDuplicate.
func (r *AvailabilityRepository) InsertSlots(ctx context.Context, counselorID int64, date string, startTimes []string) error {
	if len(startTimes) == 0 {
		return nil
	}

	query := `
		INSERT INTO counselor_availability (counselor_id, available_date, start_time)
		SELECT $1, $2::date, t::time
		FROM unnest($3::text[]) AS t
	`

	if _, err := r.DB().Exec(ctx, query, counselorID, date, startTimes); err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("insert availability: %w", ErrDuplicate)
		}
		return fmt.Errorf("insert availability: %w", err)
	}

	return nil
}

// MarkCleared отмечает дату как явно очищенную консультантом
func (r *AvailabilityRepository) MarkCleared(ctx context.Context, counselorID int64, date string) error {
	query := `
		INSERT INTO counselor_cleared_days (counselor_id, cleared_date)
		VALUES ($1, $2::date)
		ON CONFLICT DO NOTHING
	`

	if _, err := r.DB().Exec(ctx, query, counselorID, date); err != nil {
		return fmt.Errorf("mark day cleared: %w", err)
	}

	return nil
}

func (r *AvailabilityRepository) UnmarkCleared(ctx context.Context, counselorID int64, date string) error {
	query := `DELETE FROM counselor_cleared_days WHERE counselor_id = $1 AND cleared_date = $2::date`

	if _, err := r.DB().Exec(ctx, query, counselorID, date); err != nil {
		return fmt.Errorf("unmark cleared day: %w", err)
	}

	return nil
}

func (r *AvailabilityRepository) IsCleared(ctx context.Context, counselorID int64, date string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM counselor_cleared_days
			WHERE counselor_id = $1 AND cleared_date = $2::date
		)
	`

	var cleared bool
	if err := r.QueryRow(ctx, query, counselorID, date).Scan(&cleared); err != nil {
		return false, fmt.Errorf("check cleared day: %w", err)
	}

	return cleared, nil
}

// LockCounselor берёт транзакционную advisory-блокировку на расписание консультанта
func (r *AvailabilityRepository) LockCounselor(ctx context.Context, counselorID int64) error {
	if _, err := r.DB().Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, counselorID); err != nil {
		return fmt.Errorf("lock counselor schedule: %w", err)
	}
	return nil
}
