package handlers

import (
	"context"
	"strings"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type chatService interface {
	SendMessage(ctx context.Context, caller model.Caller, sessionID uuid.UUID, text string) (*model.ChatMessage, error)
	SetChatStatus(ctx context.Context, caller model.Caller, sessionID uuid.UUID, status model.ChatStatus) error
	ListMessages(ctx context.Context, caller model.Caller, sessionID uuid.UUID) ([]*model.ChatMessage, error)
}

type ChatHandler struct {
	service chatService
	logger  *zap.Logger
}

func NewChatHandler(service *service.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{service: service, logger: logger}
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

type chatStatusRequest struct {
	ChatStatus string `json:"chatStatus"`
}

func (h *ChatHandler) ListMessages(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return unauthorized(c)
	}
	sessionID, valid := sessionIDParam(c, "sessionId")
	if !valid {
		return badRequest(c, "Invalid session id")
	}

	messages, err := h.service.ListMessages(c.UserContext(), caller, sessionID)
	if err != nil {
		return mapError(c, h.logger, err)
	}

	return c.JSON(messages)
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return unauthorized(c)
	}
	sessionID, valid := sessionIDParam(c, "sessionId")
	if !valid {
		return badRequest(c, "Invalid session id")
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	message, err := h.service.SendMessage(c.UserContext(), caller, sessionID, req.Message)
	if err != nil {
		return mapError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(message)
}

func (h *ChatHandler) SetChatStatus(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return unauthorized(c)
	}
	sessionID, valid := sessionIDParam(c, "sessionId")
	if !valid {
		return badRequest(c, "Invalid session id")
	}

	var req chatStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	status, valid := model.ParseChatStatus(strings.TrimSpace(req.ChatStatus))
	if !valid {
		return badRequest(c, "Invalid chat status.")
	}

	if err := h.service.SetChatStatus(c.UserContext(), caller, sessionID, status); err != nil {
		return mapError(c, h.logger, err)
	}

	return respondOK(c, "Chat status updated to "+string(status))
}
