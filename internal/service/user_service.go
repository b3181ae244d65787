package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	db     base.Pool
	logger *zap.Logger
}

func NewUserService(db base.Pool, logger *zap.Logger) *UserService {
	return &UserService{db: db, logger: logger}
}

// UserInput данные пользователя от админа
type UserInput struct {
	Name             string
	Email            string
	Password         string
	Role             string
	Class            *string
	School           *string
	CounselorCode    *string
	Specialization   *string
	CounselingStatus *string
	TelegramChatID   *int64
}

// ProfileInput изменения своего профиля. nil значит "не менять"
type ProfileInput struct {
	Name             *string
	Phone            *string
	Address          *string
	BirthDate        *string
	Gender           *string
	Class            *string
	School           *string
	Specialization   *string
	TeachingPlace    *string
	TeachingSubject  *string
	CounselingStatus *string
	TelegramChatID   *int64
	Password         *string
}

// GetByID возвращает пользователя или ErrNotFound
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := repository.NewUserRepository(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user not found", ErrNotFound)
	}
	return user, nil
}

// CreateUser создаёт пользователя (только админ)
func (s *UserService) CreateUser(ctx context.Context, caller model.Caller, input UserInput) (*model.User, error) {
	if err := requireRole(caller, model.RoleAdmin); err != nil {
		return nil, err
	}
	if input.Password == "" {
		return nil, fmt.Errorf("%w: name, email, password and role are required", ErrInvalidInput)
	}

	user := &model.User{}
	if err := applyUserInput(user, input); err != nil {
		return nil, err
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	if err := repository.NewUserRepository(s.db).Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email already exists", ErrConflict)
		}
		return nil, err
	}

	s.logger.Info("User created",
		zap.Int64("user_id", user.ID),
		zap.String("role", user.Role.String()),
		zap.Int64("admin_id", caller.ID))

	return user, nil
}

// UpdateUser перезаписывает данные пользователя (только админ). Пустой пароль не меняется
func (s *UserService) UpdateUser(ctx context.Context, caller model.Caller, id int64, input UserInput) (*model.User, error) {
	if err := requireRole(caller, model.RoleAdmin); err != nil {
		return nil, err
	}

	var user *model.User
	err := base.InTx(ctx, s.db, func(tx pgx.Tx) error {
		users := repository.NewUserRepository(tx)

		var err error
		user, err = users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("%w: user not found", ErrNotFound)
		}

		if err := applyUserInput(user, input); err != nil {
			return err
		}
		if input.Password != "" {
			if user.PasswordHash, err = hashPassword(input.Password); err != nil {
				return err
			}
		}

		return users.Update(ctx, user)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email already exists", ErrConflict)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("User updated", zap.Int64("user_id", id), zap.Int64("admin_id", caller.ID))
	return user, nil
}

// DeleteUser удаляет пользователя со всеми связанными данными в одной транзакции
func (s *UserService) DeleteUser(ctx context.Context, caller model.Caller, id int64) error {
	if err := requireRole(caller, model.RoleAdmin); err != nil {
		return err
	}
	if id == caller.ID {
		return fmt.Errorf("%w: admins cannot delete themselves", ErrInvalidInput)
	}

	err := base.InTx(ctx, s.db, func(tx pgx.Tx) error {
		deleted, err := repository.NewUserRepository(tx).DeleteCascade(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("%w: user not found", ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.Info("User deleted", zap.Int64("user_id", id), zap.Int64("admin_id", caller.ID))
	return nil
}

// ListUsers пользователи роли с количеством сессий (только админ)
func (s *UserService) ListUsers(ctx context.Context, caller model.Caller, role string) ([]*model.User, error) {
	if err := requireRole(caller, model.RoleAdmin); err != nil {
		return nil, err
	}

	parsed, ok := model.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	return repository.NewUserRepository(s.db).ListByRole(ctx, parsed)
}

// UpdateProfile меняет разрешённые для роли поля своего профиля, остальные игнорирует
func (s *UserService) UpdateProfile(ctx context.Context, caller model.Caller, input ProfileInput) (*model.User, error) {
	var user *model.User
	err := base.InTx(ctx, s.db, func(tx pgx.Tx) error {
		users := repository.NewUserRepository(tx)

		var err error
		user, err = users.GetByID(ctx, caller.ID)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("%w: user not found", ErrNotFound)
		}

		changed, err := applyProfile(user, caller.Role, input)
		if err != nil {
			return err
		}
		if changed == 0 {
			return fmt.Errorf("%w: no valid fields to update", ErrInvalidInput)
		}

		return users.Update(ctx, user)
	})
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.logger.Info("Profile updated", zap.Int64("user_id", caller.ID))
	return user, nil
}

func applyUserInput(user *model.User, input UserInput) error {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	role, ok := model.ParseRole(input.Role)
	if name == "" || email == "" || !ok {
		return fmt.Errorf("%w: name, email and a valid role are required", ErrInvalidInput)
	}

	status, err := parseCounselingStatus(input.CounselingStatus)
	if err != nil {
		return err
	}
	if status == nil && role == model.RoleCounselor {
		active := model.CounselingStatusActive
		status = &active
	}

	user.Name = name
	user.Email = email
	user.Role = role
	user.Class = input.Class
	user.School = input.School
	user.CounselorCode = input.CounselorCode
	user.Specialization = input.Specialization
	user.CounselingStatus = status
	user.TelegramChatID = input.TelegramChatID
	return nil
}

// profileFields поля профиля, которые роль может менять сама
func profileFields(role model.Role) map[string]bool {
	switch role {
	case model.RoleStudent:
		return map[string]bool{
			"name": true, "phone": true, "address": true, "birthDate": true,
			"gender": true, "class": true, "school": true, "telegramChatId": true,
		}
	case model.RoleCounselor:
		return map[string]bool{
			"name": true, "phone": true, "address": true, "teachingPlace": true,
			"teachingSubject": true, "counselingStatus": true, "specialization": true,
			"birthDate": true, "gender": true, "telegramChatId": true,
		}
	case model.RoleAdmin:
		return map[string]bool{"name": true, "phone": true, "telegramChatId": true}
	default:
		return nil
	}
}

// applyProfile применяет разрешённые поля и возвращает их количество
func applyProfile(user *model.User, role model.Role, input ProfileInput) (int, error) {
	allowed := profileFields(role)
	changed := 0

	setString := func(field string, value *string, target **string) {
		if value == nil || !allowed[field] {
			return
		}
		v := strings.TrimSpace(*value)
		*target = &v
		changed++
	}

	if input.Name != nil && allowed["name"] {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return 0, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
		}
		user.Name = name
		changed++
	}

	if input.BirthDate != nil && allowed["birthDate"] {
		date, err := ParseDate(*input.BirthDate)
		if err != nil {
			return 0, err
		}
		formatted := date.Format(dateLayout)
		user.BirthDate = &formatted
		changed++
	}

	if input.CounselingStatus != nil && allowed["counselingStatus"] {
		status, err := parseCounselingStatus(input.CounselingStatus)
		if err != nil {
			return 0, err
		}
		user.CounselingStatus = status
		changed++
	}

	if input.TelegramChatID != nil && allowed["telegramChatId"] {
		chatID := *input.TelegramChatID
		user.TelegramChatID = &chatID
		changed++
	}

	setString("phone", input.Phone, &user.Phone)
	setString("address", input.Address, &user.Address)
	setString("gender", input.Gender, &user.Gender)
	setString("class", input.Class, &user.Class)
	setString("school", input.School, &user.School)
	setString("specialization", input.Specialization, &user.Specialization)
	setString("teachingPlace", input.TeachingPlace, &user.TeachingPlace)
	setString("teachingSubject", input.TeachingSubject, &user.TeachingSubject)

	// Пароль может сменить любая роль
	if input.Password != nil && *input.Password != "" {
		hash, err := hashPassword(*input.Password)
		if err != nil {
			return 0, err
		}
		user.PasswordHash = hash
		changed++
	}

	return changed, nil
}

func parseCounselingStatus(value *string) (*model.CounselingStatus, error) {
	if value == nil || *value == "" {
		return nil, nil
	}

	status := model.CounselingStatus(*value)
	switch status {
	case model.CounselingStatusActive, model.CounselingStatusInactive:
		return &status, nil
	default:
		return nil, fmt.Errorf("%w: counselingStatus must be active or inactive", ErrInvalidInput)
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password is too long", ErrInvalidInput)
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
