package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type sessionService interface {
	RequestSession(ctx context.Context, caller model.Caller, req service.SessionRequest) (uuid.UUID, error)
	SetStatus(ctx context.Context, caller model.Caller, sessionID uuid.UUID, status model.SessionStatus) error
	Reschedule(ctx context.Context, caller model.Caller, sessionID uuid.UUID, dateTime time.Time) error
	ListSessions(ctx context.Context, caller model.Caller) ([]*model.CounselingSession, error)
	GetSession(ctx context.Context, caller model.Caller, sessionID uuid.UUID) (*model.CounselingSession, error)
}

type cancellationService interface {
	RequestCancellation(ctx context.Context, caller model.Caller, sessionID uuid.UUID, reason string) error
	ApproveCancellation(ctx context.Context, caller model.Caller, sessionID uuid.UUID) error
}

type SessionHandler struct {
	sessions      sessionService
	cancellations cancellationService
	// часовой пояс школы для dateTime без смещения
	location      *time.Location
	logger        *zap.Logger
}

func NewSessionHandler(sessions *service.BookingService, cancellations *service.CancellationService, location *time.Location, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, cancellations: cancellations, location: location, logger: logger}
}

type requestSessionRequest struct {
	CounselorID int64  `json:"counselorId"`
	DateTime    string `json:"dateTime"`
	Topic       string `json:"topic"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

type rescheduleRequest struct {
	DateTime string `json:"dateTime"`
}

type cancellationRequest struct {
	Reason string `json:"reason"`
}

// localDateTimeLayout формат <input type="datetime-local">, без смещения
const localDateTimeLayout = "2006-01-02T15:04"

// parseDateTime принимает RFC3339 или локальное время школы.
// Пустая строка даёт нулевое время, сервис сам скажет, что поле обязательно
func parseDateTime(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, true
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, true
	}
	if loc == nil {
		loc = time.UTC
	}
	parsed, err := time.ParseInLocation(localDateTimeLayout, value, loc)
	return parsed, err == nil
}

func (h *SessionHandler) RequestSession(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req requestSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	dateTime, valid := parseDateTime(req.DateTime, h.location)
	if !valid {
		return badRequest(c, "dateTime must be RFC3339 or YYYY-MM-DDTHH:MM")
	}

	id, err := h.sessions.RequestSession(c.UserContext(), caller, service.SessionRequest{
		CounselorID: req.CounselorID,
		DateTime:    dateTime,
		Topic:       req.Topic,
	})
	if err != nil {
		return mapError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Session requested successfully.",
		"id":      id,
	})
}

func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return unauthorized(c)
	}

	sessions, err := h.sessions.ListSessions(c.UserContext(), caller)
	if err != nil {
		return mapError(c, h.logger, err)
	}

	return c.JSON(sessions)
}

func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, valid := sessionIDParam(c, "id")
	if !valid {
		return badRequest(c, "Invalid session id")
	}

	session, err := h.sessions.GetSession(c.UserContext(), caller, id)
	if err != nil {
		return mapError(c, h.logger, err)
	}

	return c.JSON(session)
}

func (h *SessionHandler) SetStatus(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, valid := sessionIDParam(c, "id")
	if !valid {
		return badRequest(c, "Invalid session id")
	}

	var req setStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	status, valid := model.ParseSessionStatus(strings.TrimSpace(req.Status))
	if !valid {
		return badRequest(c, "Invalid status provided.")
	}

	if err := h.sessions.SetStatus(c.UserContext(), caller, id, status); err != nil {
		return mapError(c, h.logger, err)
	}

	return respondOK(c, "Session status updated.")
}

func (h *SessionHandler) Reschedule(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, valid := sessionIDParam(c, "id")
	if !valid {
		return badRequest(c, "Invalid session id")
	}

	var req rescheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	dateTime, valid := parseDateTime(req.DateTime, h.location)
	if !valid {
		return badRequest(c, "dateTime must be RFC3339 or YYYY-MM-DDTHH:MM")
	}

	if err := h.sessions.Reschedule(c.UserContext(), caller, id, dateTime); err != nil {
		return mapError(c, h.logger, err)
	}

	return respondOK(c, "Session rescheduled successfully.")
}

func (h *SessionHandler) RequestCancellation(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, valid := sessionIDParam(c, "id")
	if !valid {
		return badRequest(c, "Invalid session id")
	}

	var req cancellationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.cancellations.RequestCancellation(c.UserContext(), caller, id, req.Reason); err != nil {
		return mapError(c, h.logger, err)
	}

	if caller.Role == model.RoleCounselor {
		return respondOK(c, "Session canceled.")
	}
	return respondOK(c, "Cancellation request sent to the counselor.")
}

func (h *SessionHandler) ApproveCancellation(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, valid := sessionIDParam(c, "id")
	if !valid {
		return badRequest(c, "Invalid session id")
	}

	if err := h.cancellations.ApproveCancellation(c.UserContext(), caller, id); err != nil {
		return mapError(c, h.logger, err)
	}

	return respondOK(c, "Cancellation approved.")
}
