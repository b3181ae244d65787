package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// TemplateRefresher дозаполняет 7-дневное окно по шаблонам консультантов
type TemplateRefresher interface {
	RefreshAllTemplates(ctx context.Context) error
}

// Scheduler периодически применяет шаблоны слотов, чтобы окно сдвигалось вместе с датой
type Scheduler struct {
	refresher TemplateRefresher
	interval  time.Duration
	logger    *zap.Logger
}

func NewScheduler(refresher TemplateRefresher, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		refresher: refresher,
		interval:  interval,
		logger:    logger,
	}
}

// Run блокируется до отмены ctx. При нулевом интервале сразу возвращается
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		s.logger.Info("Template refresh job disabled")
		return nil
	}

	s.logger.Info("Starting template refresh job", zap.Duration("interval", s.interval))
	s.refresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refresh(ctx)
		case <-ctx.Done():
			s.logger.Info("Template refresh job stopped")
			return nil
		}
	}
}

func (s *Scheduler) refresh(ctx context.Context) {
	started := time.Now()
	if err := s.refresher.RefreshAllTemplates(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("Failed to refresh slot templates", zap.Error(err))
		return
	}
	s.logger.Debug("Slot templates refreshed", zap.Duration("took", time.Since(started)))
}
