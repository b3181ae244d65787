package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/render"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type AvailabilityService struct {
	db       base.Pool
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

func NewAvailabilityService(db base.Pool, location *time.Location, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		db:       db,
		location: location,
		now:      time.Now,
		logger:   logger,
	}
}

// GetAvailability объявленные слоты консультанта и его не отменённые сессии
func (s *AvailabilityService) GetAvailability(ctx context.Context, counselorID int64) (*model.Availability, error) {
	if err := s.requireCounselor(ctx, counselorID); err != nil {
		return nil, err
	}

	slots, err := repository.NewAvailabilityRepository(s.db).ListByCounselor(ctx, counselorID)
	if err != nil {
		return nil, fmt.Errorf("get slots: %w", err)
	}

	booked, err := repository.NewSessionRepository(s.db).ListBookedByCounselor(ctx, counselorID)
	if err != nil {
		return nil, fmt.Errorf("get booked sessions: %w", err)
	}

	return &model.Availability{Available: slots, Booked: booked}, nil
}

// SetDayAvailability полностью заменяет слоты консультанта на дату
func (s *AvailabilityService) SetDayAvailability(ctx context.Context, caller model.Caller, date string, slotTimes []string) error {
	if err := requireRole(caller, model.RoleCounselor); err != nil {
		return err
	}

	day, err := ParseDate(date)
	if err != nil {
		return err
	}
	times, err := normalizeSlotTimes(slotTimes)
	if err != nil {
		return err
	}
	dateKey := day.Format(dateLayout)

	err = base.InTx(ctx, s.db, func(tx pgx.Tx) error {
		slotRepo := repository.NewAvailabilityRepository(tx)
		sessionRepo := repository.NewSessionRepository(tx)

		if err := slotRepo.LockCounselor(ctx, caller.ID); err != nil {
			return err
		}

		current, err := slotRepo.ListBetween(ctx, caller.ID, dateKey, dateKey)
		if err != nil {
			return err
		}

		from, to := dayBounds(day, s.location)
		active, err := sessionRepo.ListActiveByCounselorBetween(ctx, caller.ID, from, to)
		if err != nil {
			return err
		}

		currentTimes := make([]string, 0, len(current))
		for _, slot := range current {
			currentTimes = append(currentTimes, slot.StartTime)
		}
		if removed := removedBookedTimes(currentTimes, times, active, s.location); len(removed) > 0 {
			return fmt.Errorf("%w: slots %s have active sessions", ErrConflict, strings.Join(removed, ", "))
		}

		if err := slotRepo.DeleteDay(ctx, caller.ID, dateKey); err != nil {
			return err
		}
		if err := slotRepo.InsertSlots(ctx, caller.ID, dateKey, times); err != nil {
			return err
		}

		// пустой день остаётся пустым при периодическом обновлении шаблона
		if len(times) == 0 {
			return slotRepo.MarkCleared(ctx, caller.ID, dateKey)
		}
		return slotRepo.UnmarkCleared(ctx, caller.ID, dateKey)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return fmt.Errorf("%w: this slot already exists", ErrConflict)
		}
		return fmt.Errorf("set day availability: %w", err)
	}

	s.logger.Info("Day availability replaced",
		zap.Int64("counselor_id", caller.ID),
		zap.String("date", dateKey),
		zap.Int("slots", len(times)))

	return nil
}

// ApplyDefaultTemplate заполняет по шаблону пустые дни на неделю вперёд.
// Дни, очищенные консультантом вручную, пропускаются
func (s *AvailabilityService) ApplyDefaultTemplate(ctx context.Context, counselorID int64, template model.DefaultSlotTemplate) (int, error) {
	var filled int
	err := base.InTx(ctx, s.db, func(tx pgx.Tx) error {
		var err error
		filled, err = s.applyTemplate(ctx, repository.NewAvailabilityRepository(tx), counselorID, template, true)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("apply default template: %w", err)
	}

	return filled, nil
}

// applyTemplate не трогает даты, где уже есть хотя бы один слот.
// skipCleared дополнительно пропускает явно очищенные даты
func (s *AvailabilityService) applyTemplate(ctx context.Context, slotRepo *repository.AvailabilityRepository, counselorID int64, template model.DefaultSlotTemplate, skipCleared bool) (int, error) {
	if err := slotRepo.LockCounselor(ctx, counselorID); err != nil {
		return 0, err
	}

	filled := 0
	for _, day := range planTemplateDays(s.today(), template) {
		count, err := slotRepo.CountForDate(ctx, counselorID, day.Date)
		if err != nil {
			return filled, err
		}
		if count > 0 {
			continue
		}
		if skipCleared {
			cleared, err := slotRepo.IsCleared(ctx, counselorID, day.Date)
			if err != nil {
				return filled, err
			}
			if cleared {
				continue
			}
		}

		if err := slotRepo.InsertSlots(ctx, counselorID, day.Date, day.Times); err != nil {
			return filled, err
		}
		if err := slotRepo.UnmarkCleared(ctx, counselorID, day.Date); err != nil {
			return filled, err
		}
		filled++
	}

	return filled, nil
}

// SaveSettings сохраняет шаблон и сразу применяет его в той же транзакции
func (s *AvailabilityService) SaveSettings(ctx context.Context, caller model.Caller, key string, value []int) error {
	if err := requireRole(caller, model.RoleCounselor); err != nil {
		return err
	}
	if key != model.SettingDefaultSlots {
		return fmt.Errorf("%w: unknown setting %q", ErrInvalidInput, key)
	}

	template, err := ValidateTemplate(value)
	if err != nil {
		return err
	}

	var filled int
	err = base.InTx(ctx, s.db, func(tx pgx.Tx) error {
		if err := repository.NewSettingsRepository(tx).SaveTemplate(ctx, caller.ID, template); err != nil {
			return err
		}
		filled, err = s.applyTemplate(ctx, repository.NewAvailabilityRepository(tx), caller.ID, template, false)
		return err
	})
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	s.logger.Info("Default slots saved",
		zap.Int64("counselor_id", caller.ID),
		zap.Ints("template", template[:]),
		zap.Int("days_filled", filled))

	return nil
}

// GetSettings настройки консультанта
func (s *AvailabilityService) GetSettings(ctx context.Context, counselorID int64) (*model.CounselorSettings, error) {
	return repository.NewSettingsRepository(s.db).GetByCounselor(ctx, counselorID)
}

// RefreshAllTemplates повторно применяет сохранённые шаблоны всех консультантов.
// Вызывается периодически, чтобы окно в 7 дней оставалось заполненным
func (s *AvailabilityService) RefreshAllTemplates(ctx context.Context) error {
	templates, err := repository.NewSettingsRepository(s.db).ListTemplates(ctx)
	if err != nil {
		return fmt.Errorf("list templates: %w", err)
	}

	totalDays := 0
	for counselorID, template := range templates {
		filled, err := s.ApplyDefaultTemplate(ctx, counselorID, template)
		if err != nil {
			s.logger.Error("Failed to apply default template",
				zap.Int64("counselor_id", counselorID),
				zap.Error(err))
			continue
		}
		totalDays += filled
	}

	s.logger.Info("Default templates refreshed",
		zap.Int("counselors", len(templates)),
		zap.Int("days_filled", totalDays))

	return nil
}

// RenderWeek PNG недели консультанта, начиная с понедельника недели weekStart
func (s *AvailabilityService) RenderWeek(ctx context.Context, counselorID int64, weekStart string) ([]byte, error) {
	start := s.today()
	if weekStart != "" {
		date, err := ParseDate(weekStart)
		if err != nil {
			return nil, err
		}
		start = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.location)
	}

	availability, err := s.GetAvailability(ctx, counselorID)
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string)
	users := repository.NewUserRepository(s.db)
	for _, session := range availability.Booked {
		if _, ok := names[session.StudentID]; ok {
			continue
		}
		student, err := users.GetByID(ctx, session.StudentID)
		if err != nil {
			return nil, fmt.Errorf("get student: %w", err)
		}
		if student != nil {
			names[session.StudentID] = student.Name
		}
	}

	image, err := render.WeekImage(render.Week{
		Start:        start,
		Location:     s.location,
		Now:          s.now(),
		Slots:        availability.Available,
		Booked:       availability.Booked,
		StudentNames: names,
	})
	if err != nil {
		return nil, fmt.Errorf("render week: %w", err)
	}

	return image, nil
}

func (s *AvailabilityService) requireCounselor(ctx context.Context, counselorID int64) error {
	counselor, err := repository.NewUserRepository(s.db).GetByID(ctx, counselorID)
	if err != nil {
		return fmt.Errorf("get counselor: %w", err)
	}
	if counselor == nil || counselor.Role != model.RoleCounselor {
		return fmt.Errorf("%w: counselor not found", ErrNotFound)
	}
	return nil
}

// today сегодняшняя дата в часовом поясе школы
func (s *AvailabilityService) today() time.Time {
	now := s.now().In(s.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
}
