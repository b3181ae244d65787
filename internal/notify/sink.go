package notify

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository/base"
	"go.uber.org/zap"
)

const deliveryTimeout = 5 * time.Second

// Forwarder пересылает уведомление во внешний канал
type Forwarder interface {
	Forward(ctx context.Context, user *model.User, message, link string) error
}

// Sink сохраняет уведомления во входящие и пересылает их дальше.
// Ошибки только логируются: уведомление не должно ломать основную операцию
type Sink struct {
	db        base.DBTX
	cache     *UnreadCache
	forwarder Forwarder
	logger    *zap.Logger

	// незавершённые пересылки, Wait дожидается их при остановке
	inflight sync.WaitGroup
}

func NewSink(db base.DBTX, cache *UnreadCache, forwarder Forwarder, logger *zap.Logger) *Sink {
	return &Sink{db: db, cache: cache, forwarder: forwarder, logger: logger}
}

// Notify fire-and-forget. Запись во входящие синхронная и короткая,
// пересылка во внешний канал уходит в отдельную горутину и не задерживает ответ.
// Отмена контекста запроса не должна терять уведомление, поэтому работа идёт
// на отдельном контексте с таймаутом
func (s *Sink) Notify(ctx context.Context, userID int64, message, link string) {
	detached := context.WithoutCancel(ctx)

	storeCtx, cancel := context.WithTimeout(detached, deliveryTimeout)
	defer cancel()

	notification := &model.Notification{UserID: userID, Message: message, Link: link}
	if err := repository.NewNotificationRepository(s.db).Create(storeCtx, notification); err != nil {
		s.logger.Error("Failed to create notification",
			zap.Int64("user_id", userID),
			zap.Error(err))
		return
	}

	s.cache.Invalidate(storeCtx, userID)

	if s.forwarder == nil {
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		forwardCtx, cancel := context.WithTimeout(detached, deliveryTimeout)
		defer cancel()

		s.forward(forwardCtx, userID, message, link)
	}()
}

func (s *Sink) forward(ctx context.Context, userID int64, message, link string) {
	user, err := repository.NewUserRepository(s.db).GetByID(ctx, userID)
	if err != nil || user == nil {
		s.logger.Warn("Skip forwarding notification, user lookup failed",
			zap.Int64("user_id", userID),
			zap.Error(err))
		return
	}

	if err := s.forwarder.Forward(ctx, user, message, link); err != nil {
		s.logger.Warn("Failed to forward notification",
			zap.Int64("user_id", userID),
			zap.Error(err))
	}
}

// Wait дожидается пересылок, запущенных Notify
func (s *Sink) Wait() {
	s.inflight.Wait()
}
