package model

import "time"

// Role закрытый набор ролей. Любое ветвление по роли перебирает все три значения,
// всё остальное считается запрещённым
type Role string

const (
	RoleStudent   Role = "student"
	RoleCounselor Role = "counselor"
	RoleAdmin     Role = "admin"
)

// ParseRole возвращает роль и признак того, что она известна
func ParseRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleStudent, RoleCounselor, RoleAdmin:
		return Role(value), true
	default:
		return "", false
	}
}

func (r Role) String() string {
	return string(r)
}

// Caller аутентифицированный пользователь, передаётся в каждый вызов сервиса явно
type Caller struct {
	ID   int64
	Role Role
	Name string
}

func (c Caller) IsStudent() bool   { return c.Role == RoleStudent }
func (c Caller) IsCounselor() bool { return c.Role == RoleCounselor }
func (c Caller) IsAdmin() bool     { return c.Role == RoleAdmin }

type CounselingStatus string

const (
	CounselingStatusActive   CounselingStatus = "active"
	CounselingStatusInactive CounselingStatus = "inactive"
)

type User struct {
	ID               int64             `json:"id"`
	Name             string            `json:"name"`
	Email            string            `json:"email"`
	PasswordHash     string            `json:"-"`
	Role             Role              `json:"role"`
	Class            *string           `json:"class,omitempty"`
	School           *string           `json:"school,omitempty"`
	CounselorCode    *string           `json:"counselorId,omitempty"` // NIP
	Specialization   *string           `json:"specialization,omitempty"`
	Phone            *string           `json:"phone,omitempty"`
	Address          *string           `json:"address,omitempty"`
	BirthDate        *string           `json:"birthDate,omitempty"` // YYYY-MM-DD
	Gender           *string           `json:"gender,omitempty"`
	TeachingPlace    *string           `json:"teachingPlace,omitempty"`
	TeachingSubject  *string           `json:"teachingSubject,omitempty"`
	CounselingStatus *CounselingStatus `json:"counselingStatus,omitempty"`
	ProfilePicture   *string           `json:"profilePicture,omitempty"`
	TelegramChatID   *int64            `json:"telegramChatId,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`

	// Заполняется только в списках для админа
	SessionCount *int `json:"sessionCount,omitempty"`
}

// IsBookable можно ли студентам записываться к этому пользователю
func (u *User) IsBookable() bool {
	if u.Role != RoleCounselor {
		return false
	}
	return u.CounselingStatus == nil || *u.CounselingStatus != CounselingStatusInactive
}
