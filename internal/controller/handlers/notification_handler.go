package handlers

import (
	"context"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type notificationService interface {
	List(ctx context.Context, caller model.Caller) ([]*model.Notification, error)
	UnreadCount(ctx context.Context, caller model.Caller) (int, error)
	MarkAllRead(ctx context.Context, caller model.Caller) error
}

type NotificationHandler struct {
	service notificationService
	logger  *zap.Logger
}

func NewNotificationHandler(service *service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{service: service, logger: logger}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return unauthorized(c)
	}

	notifications, err := h.service.List(c.UserContext(), caller)
	if err != nil {
		return mapError(c, h.logger, err)
	}
	unread, err := h.service.UnreadCount(c.UserContext(), caller)
	if err != nil {
		return mapError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"notifications": notifications,
		"unreadCount":   unread,
	})
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.service.MarkAllRead(c.UserContext(), caller); err != nil {
		return mapError(c, h.logger, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
