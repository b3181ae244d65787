package handlers

import (
	"context"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type availabilityService interface {
	GetAvailability(ctx context.Context, counselorID int64) (*model.Availability, error)
	SetDayAvailability(ctx context.Context, caller model.Caller, date string, slotTimes []string) error
	SaveSettings(ctx context.Context, caller model.Caller, key string, value []int) error
	RenderWeek(ctx context.Context, counselorID int64, weekStart string) ([]byte, error)
}

type AvailabilityHandler struct {
	service availabilityService
	logger  *zap.Logger
}

func NewAvailabilityHandler(service *service.AvailabilityService, logger *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{service: service, logger: logger}
}

type setDayAvailabilityRequest struct {
	AvailableDate string   `json:"availableDate"`
	Slots         []string `json:"slots"`
}

type saveSettingsRequest struct {
	Key   string `json:"key"`
	Value []int  `json:"value"`
}

func (h *AvailabilityHandler) GetAvailability(c *fiber.Ctx) error {
	counselorID, valid := int64Param(c, "id")
	if !valid {
		return badRequest(c, "Invalid counselor id")
	}

	availability, err := h.service.GetAvailability(c.UserContext(), counselorID)
	if err != nil {
		return mapError(c, h.logger, err)
	}

	return c.JSON(availability)
}

func (h *AvailabilityHandler) WeekImage(c *fiber.Ctx) error {
	counselorID, valid := int64Param(c, "id")
	if !valid {
		return badRequest(c, "Invalid counselor id")
	}

	image, err := h.service.RenderWeek(c.UserContext(), counselorID, c.Query("start"))
	if err != nil {
		return mapError(c, h.logger, err)
	}

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(image)
}

func (h *AvailabilityHandler) SetDayAvailability(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req setDayAvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.AvailableDate == "" || req.Slots == nil {
		return badRequest(c, "Date and slots array are required.")
	}

	if err := h.service.SetDayAvailability(c.UserContext(), caller, req.AvailableDate, req.Slots); err != nil {
		return mapError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Availability updated."})
}

func (h *AvailabilityHandler) SaveSettings(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req saveSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.service.SaveSettings(c.UserContext(), caller, req.Key, req.Value); err != nil {
		return mapError(c, h.logger, err)
	}

	return respondOK(c, "Settings updated and applied to the next 7 days.")
}
