package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/Freeeeeet/counseling_scheduler/internal/controller/middleware"
	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// callerFrom достаёт вызывающего, которого положил AuthRequired
func callerFrom(c *fiber.Ctx) (model.Caller, bool) {
	caller, ok := c.Locals(middleware.CallerKey).(model.Caller)
	return caller, ok
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": message})
}

func respondOK(c *fiber.Ctx, message string) error {
	return c.JSON(fiber.Map{"message": message})
}

func sessionIDParam(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

func int64Param(c *fiber.Ctx, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	return id, err == nil && id > 0
}

var errorStatuses = []struct {
	err    error
	status int
}{
	{service.ErrInvalidInput, fiber.StatusBadRequest},
	{service.ErrInvalidState, fiber.StatusBadRequest},
	{service.ErrForbidden, fiber.StatusForbidden},
	{service.ErrNotFound, fiber.StatusNotFound},
	{service.ErrConflict, fiber.StatusConflict},
}

// mapError переводит ошибку сервиса в статус и {"message"}.
// Неизвестные ошибки логируются и отдаются как 500 без подробностей
func mapError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	for _, entry := range errorStatuses {
		if errors.Is(err, entry.err) {
			return c.Status(entry.status).JSON(fiber.Map{"message": publicMessage(err, entry.err)})
		}
	}

	logger.Error("Request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
}

// publicMessage текст после sentinel-ошибки, без внутренних префиксов
func publicMessage(err, sentinel error) string {
	text := err.Error()
	marker := sentinel.Error() + ": "
	if idx := strings.LastIndex(text, marker); idx >= 0 {
		return text[idx+len(marker):]
	}
	return sentinel.Error()
}
