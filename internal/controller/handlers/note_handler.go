package handlers

import (
	"context"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type noteService interface {
	List(ctx context.Context, caller model.Caller, owner model.Role) ([]*model.Note, error)
	Create(ctx context.Context, caller model.Caller, owner model.Role, title, content string) (*model.Note, error)
	Update(ctx context.Context, caller model.Caller, owner model.Role, id int64, title, content string) (*model.Note, error)
	Delete(ctx context.Context, caller model.Caller, owner model.Role, id int64) error
}

// NoteHandler обслуживает заметки одной роли: /notes для студентов, /counselor/notes для консультантов
type NoteHandler struct {
	service noteService
	owner   model.Role
	logger  *zap.Logger
}

func NewNoteHandler(service *service.NoteService, owner model.Role, logger *zap.Logger) *NoteHandler {
	return &NoteHandler{service: service, owner: owner, logger: logger}
}

type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *NoteHandler) List(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return unauthorized(c)
	}

	notes, err := h.service.List(c.UserContext(), caller, h.owner)
	if err != nil {
		return mapError(c, h.logger, err)
	}

	return c.JSON(notes)
}

func (h *NoteHandler) Create(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req noteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	note, err := h.service.Create(c.UserContext(), caller, h.owner, req.Title, req.Content)
	if err != nil {
		return mapError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(note)
}

func (h *NoteHandler) Update(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, valid := int64Param(c, "id")
	if !valid {
		return badRequest(c, "Invalid note id")
	}

	var req noteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	note, err := h.service.Update(c.UserContext(), caller, h.owner, id, req.Title, req.Content)
	if err != nil {
		return mapError(c, h.logger, err)
	}

	return c.JSON(note)
}

func (h *NoteHandler) Delete(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, valid := int64Param(c, "id")
	if !valid {
		return badRequest(c, "Invalid note id")
	}

	if err := h.service.Delete(c.UserContext(), caller, h.owner, id); err != nil {
		return mapError(c, h.logger, err)
	}

	return respondOK(c, "Note deleted.")
}
