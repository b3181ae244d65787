package handlers

import (
	"context"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type dashboardService interface {
	Data(ctx context.Context, caller model.Caller) (any, error)
}

type DashboardHandler struct {
	service dashboardService
	logger  *zap.Logger
}

func NewDashboardHandler(service *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{service: service, logger: logger}
}

func (h *DashboardHandler) Data(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return unauthorized(c)
	}

	data, err := h.service.Data(c.UserContext(), caller)
	if err != nil {
		return mapError(c, h.logger, err)
	}

	return c.JSON(data)
}
