package handlers

import (
	"context"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type userService interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	CreateUser(ctx context.Context, caller model.Caller, input service.UserInput) (*model.User, error)
	UpdateUser(ctx context.Context, caller model.Caller, id int64, input service.UserInput) (*model.User, error)
	DeleteUser(ctx context.Context, caller model.Caller, id int64) error
	ListUsers(ctx context.Context, caller model.Caller, role string) ([]*model.User, error)
	UpdateProfile(ctx context.Context, caller model.Caller, input service.ProfileInput) (*model.User, error)
}

type UserHandler struct {
	service userService
	logger  *zap.Logger
}

func NewUserHandler(service *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{service: service, logger: logger}
}

type userRequest struct {
	Name             string  `json:"name"`
	Email            string  `json:"email"`
	Password         string  `json:"password"`
	Role             string  `json:"role"`
	Class            *string `json:"class"`
	School           *string `json:"school"`
	CounselorCode    *string `json:"counselorId"`
	Specialization   *string `json:"specialization"`
	CounselingStatus *string `json:"counselingStatus"`
	TelegramChatID   *int64  `json:"telegramChatId"`
}

func (r userRequest) input() service.UserInput {
	return service.UserInput{
		Name:             r.Name,
		Email:            r.Email,
		Password:         r.Password,
		Role:             r.Role,
		Class:            r.Class,
		School:           r.School,
		CounselorCode:    r.CounselorCode,
		Specialization:   r.Specialization,
		CounselingStatus: r.CounselingStatus,
		TelegramChatID:   r.TelegramChatID,
	}
}

type profileRequest struct {
	Name             *string `json:"name"`
	Phone            *string `json:"phone"`
	Address          *string `json:"address"`
	BirthDate        *string `json:"birthDate"`
	Gender           *string `json:"gender"`
	Class            *string `json:"class"`
	School           *string `json:"school"`
	Specialization   *string `json:"specialization"`
	TeachingPlace    *string `json:"teachingPlace"`
	TeachingSubject  *string `json:"teachingSubject"`
	CounselingStatus *string `json:"counselingStatus"`
	TelegramChatID   *int64  `json:"telegramChatId"`
	Password         *string `json:"password"`
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return unauthorized(c)
	}

	user, err := h.service.GetByID(c.UserContext(), caller.ID)
	if err != nil {
		return mapError(c, h.logger, err)
	}

	return c.JSON(user)
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req profileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.service.UpdateProfile(c.UserContext(), caller, service.ProfileInput{
		Name:             req.Name,
		Phone:            req.Phone,
		Address:          req.Address,
		BirthDate:        req.BirthDate,
		Gender:           req.Gender,
		Class:            req.Class,
		School:           req.School,
		Specialization:   req.Specialization,
		TeachingPlace:    req.TeachingPlace,
		TeachingSubject:  req.TeachingSubject,
		CounselingStatus: req.CounselingStatus,
		TelegramChatID:   req.TelegramChatID,
		Password:         req.Password,
	})
	if err != nil {
		return mapError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"message": "Profile updated successfully!", "user": user})
}

func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return unauthorized(c)
	}

	users, err := h.service.ListUsers(c.UserContext(), caller, c.Query("role"))
	if err != nil {
		return mapError(c, h.logger, err)
	}

	return c.JSON(users)
}

func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req userRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.service.CreateUser(c.UserContext(), caller, req.input())
	if err != nil {
		return mapError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, valid := int64Param(c, "id")
	if !valid {
		return badRequest(c, "Invalid user id")
	}

	var req userRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.service.UpdateUser(c.UserContext(), caller, id, req.input())
	if err != nil {
		return mapError(c, h.logger, err)
	}

	return c.JSON(user)
}

func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, valid := int64Param(c, "id")
	if !valid {
		return badRequest(c, "Invalid user id")
	}

	if err := h.service.DeleteUser(c.UserContext(), caller, id); err != nil {
		return mapError(c, h.logger, err)
	}

	return respondOK(c, "User deleted successfully.")
}
