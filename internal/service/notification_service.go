package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository/base"
	"go.uber.org/zap"
)

const latestNotificationsLimit = 15

// UnreadCounter кэш счётчика непрочитанных уведомлений
type UnreadCounter interface {
	Get(ctx context.Context, userID int64) (int, bool)
	Set(ctx context.Context, userID int64, count int)
	Invalidate(ctx context.Context, userID int64)
}

type NotificationService struct {
	db     base.DBTX
	cache  UnreadCounter
	logger *zap.Logger
}

func NewNotificationService(db base.DBTX, cache UnreadCounter, logger *zap.Logger) *NotificationService {
	return &NotificationService{db: db, cache: cache, logger: logger}
}

// List последние уведомления пользователя
func (s *NotificationService) List(ctx context.Context, caller model.Caller) ([]*model.Notification, error) {
	notifications, err := repository.NewNotificationRepository(s.db).ListLatest(ctx, caller.ID, latestNotificationsLimit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// UnreadCount количество непрочитанных, сначала из кэша
func (s *NotificationService) UnreadCount(ctx context.Context, caller model.Caller) (int, error) {
	if count, ok := s.cache.Get(ctx, caller.ID); ok {
		return count, nil
	}

	count, err := repository.NewNotificationRepository(s.db).CountUnread(ctx, caller.ID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}

	s.cache.Set(ctx, caller.ID, count)
	return count, nil
}

// MarkAllRead помечает всё прочитанным
func (s *NotificationService) MarkAllRead(ctx context.Context, caller model.Caller) error {
	if err := repository.NewNotificationRepository(s.db).MarkAllRead(ctx, caller.ID); err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}

	s.cache.Invalidate(ctx, caller.ID)
	s.logger.Debug("Notifications marked read", zap.Int64("user_id", caller.ID))
	return nil
}
