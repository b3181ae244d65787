package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"github.com/gofiber/fiber/v2"
)

type stubUserService struct {
	createErr   error
	deleteErr   error
	profileErr  error
	lastInput   service.UserInput
	lastProfile service.ProfileInput
	lastRole    string
	lastID      int64
}

func (s *stubUserService) GetByID(_ context.Context, id int64) (*model.User, error) {
	return &model.User{ID: id, Name: "Alice", Role: model.RoleStudent}, nil
}

func (s *stubUserService) CreateUser(_ context.Context, _ model.Caller, input service.UserInput) (*model.User, error) {
	s.lastInput = input
	if s.createErr != nil {
		return nil, s.createErr
	}
	role, _ := model.ParseRole(input.Role)
	return &model.User{ID: 100, Name: input.Name, Email: input.Email, Role: role, PasswordHash: "hash"}, nil
}

func (s *stubUserService) UpdateUser(_ context.Context, _ model.Caller, id int64, input service.UserInput) (*model.User, error) {
	s.lastID = id
	s.lastInput = input
	return &model.User{ID: id, Name: input.Name}, nil
}

func (s *stubUserService) DeleteUser(_ context.Context, _ model.Caller, id int64) error {
	s.lastID = id
	return s.deleteErr
}

func (s *stubUserService) ListUsers(_ context.Context, _ model.Caller, role string) ([]*model.User, error) {
	s.lastRole = role
	return []*model.User{}, nil
}

func (s *stubUserService) UpdateProfile(_ context.Context, caller model.Caller, input service.ProfileInput) (*model.User, error) {
	s.lastProfile = input
	if s.profileErr != nil {
		return nil, s.profileErr
	}
	return &model.User{ID: caller.ID, Name: "Alice"}, nil
}

func newUserTestApp(caller model.Caller, svc *stubUserService) *fiber.App {
	handler := &UserHandler{service: svc, logger: testLogger}

	app := newTestApp(caller)
	app.Get("/profile", handler.Me)
	app.Put("/profile", handler.UpdateProfile)
	app.Get("/users", handler.ListUsers)
	app.Post("/users", handler.CreateUser)
	app.Put("/users/:id", handler.UpdateUser)
	app.Delete("/users/:id", handler.DeleteUser)
	return app
}

func TestCreateUserHidesPasswordHash(t *testing.T) {
	svc := &stubUserService{}
	app := newUserTestApp(testAdmin, svc)

	resp, body := doRequest(t, app, http.MethodPost, "/users",
		`{"name": "Carol", "email": "carol@school.org", "password": "pw", "role": "counselor", "counselorId": "C-1"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if _, leaked := body["passwordHash"]; leaked {
		t.Fatalf("password hash must not be serialized")
	}
	if svc.lastInput.CounselorCode == nil || *svc.lastInput.CounselorCode != "C-1" {
		t.Fatalf("expected counselorId to be passed, got %v", svc.lastInput.CounselorCode)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc := &stubUserService{createErr: fmt.Errorf("create user: %w: email already registered", service.ErrConflict)}
	app := newUserTestApp(testAdmin, svc)

	resp, body := doRequest(t, app, http.MethodPost, "/users", `{"name": "Carol", "email": "carol@school.org", "password": "pw", "role": "student"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if body["message"] != "email already registered" {
		t.Fatalf("unexpected message %v", body["message"])
	}
}

func TestListUsersPassesRoleFilter(t *testing.T) {
	svc := &stubUserService{}
	app := newUserTestApp(testAdmin, svc)

	resp, _ := doRequest(t, app, http.MethodGet, "/users?role=counselor", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if svc.lastRole != "counselor" {
		t.Fatalf("expected counselor filter, got %q", svc.lastRole)
	}
}

func TestDeleteUser(t *testing.T) {
	svc := &stubUserService{}
	app := newUserTestApp(testAdmin, svc)

	resp, _ := doRequest(t, app, http.MethodDelete, "/users/5", "")
	if resp.StatusCode != http.StatusOK || svc.lastID != 5 {
		t.Fatalf("expected 200 for user 5, got %d for %d", resp.StatusCode, svc.lastID)
	}

	svc.deleteErr = fmt.Errorf("%w: user not found", service.ErrNotFound)
	resp, _ = doRequest(t, app, http.MethodDelete, "/users/6", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	resp, _ = doRequest(t, app, http.MethodDelete, "/users/0", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for id 0, got %d", resp.StatusCode)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc := &stubUserService{}
	app := newUserTestApp(testStudent, svc)

	resp, body := doRequest(t, app, http.MethodPut, "/profile", `{"phone": "+100", "telegramChatId": 555}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["message"] != "Profile updated successfully!" {
		t.Fatalf("unexpected message %v", body["message"])
	}
	if svc.lastProfile.Phone == nil || svc.lastProfile.TelegramChatID == nil || *svc.lastProfile.TelegramChatID != 555 {
		t.Fatalf("unexpected profile input %+v", svc.lastProfile)
	}
	if svc.lastProfile.Name != nil {
		t.Fatalf("absent fields must stay nil")
	}

	svc.profileErr = fmt.Errorf("update profile: %w: no valid fields to update", service.ErrInvalidInput)
	resp, _ = doRequest(t, app, http.MethodPut, "/profile", `{"teachingSubject": "math"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
