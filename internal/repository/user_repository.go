package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const userColumns = `
	id, name, email, password_hash, role, class, school, counselor_code, specialization,
	phone, address, to_char(birth_date, 'YYYY-MM-DD'), gender, teaching_place, teaching_subject,
	counseling_status, profile_picture, telegram_chat_id, created_at
`

type UserRepository struct {
	*base.Repository
}

func NewUserRepository(db base.DBTX) *UserRepository {
	return &UserRepository{Repository: base.NewRepository(db)}
}

func scanUser(row pgx.Row, extra ...any) (*model.User, error) {
	var user model.User
	dest := []any{
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Class,
		&user.School,
		&user.CounselorCode,
		&user.Specialization,
		&user.Phone,
		&user.Address,
		&user.BirthDate,
		&user.Gender,
		&user.TeachingPlace,
		&user.TeachingSubject,
		&user.CounselingStatus,
		&user.ProfilePicture,
		&user.TelegramChatID,
		&user.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &user, nil
}

// Create создаёт нового пользователя
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (
			name, email, password_hash, role, class, school, counselor_code, specialization,
			phone, address, birth_date, gender, teaching_place, teaching_subject,
			counseling_status, profile_picture, telegram_chat_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::date, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Class,
		user.School,
		user.CounselorCode,
		user.Specialization,
		user.Phone,
		user.Address,
		user.BirthDate,
		user.Gender,
		user.TeachingPlace,
		user.TeachingSubject,
		user.CounselingStatus,
		user.ProfilePicture,
		user.TelegramChatID,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("create user: %w", ErrDuplicate)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetByID получает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return user, nil
}

// Update перезаписывает все изменяемые поля пользователя
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET name = $1, email = $2, password_hash = $3, role = $4, class = $5, school = $6,
			counselor_code = $7, specialization = $8, phone = $9, address = $10,
			birth_date = $11::date, gender = $12, teaching_place = $13, teaching_subject = $14,
			counseling_status = $15, profile_picture = $16, telegram_chat_id = $17
		WHERE id = $18
	`

	affected, err := r.ExecAffected(
		ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Class,
		user.School,
		user.CounselorCode,
		user.Specialization,
		user.Phone,
		user.Address,
		user.BirthDate,
		user.Gender,
		user.TeachingPlace,
		user.TeachingSubject,
		user.CounselingStatus,
		user.ProfilePicture,
		user.TelegramChatID,
		user.ID,
	)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("update user: %w", ErrDuplicate)
		}
		return fmt.Errorf("update user: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// ListByRole возвращает пользователей роли вместе с количеством их сессий
func (r *UserRepository) ListByRole(ctx context.Context, role model.Role) ([]*model.User, error) {
	countColumn := "student_id"
	if role == model.RoleCounselor {
		countColumn = "counselor_id"
	}

	query := `
		SELECT ` + userColumns + `,
			(SELECT COUNT(*) FROM counseling_sessions s WHERE s.` + countColumn + ` = users.id)
		FROM users
		WHERE role = $1
		ORDER BY name
	`

	rows, err := r.Query(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		var count int
		user, err := scanUser(rows, &count)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		user.SessionCount = &count
		users = append(users, user)
	}

	return users, rows.Err()
}

// ListActiveCounselors возвращает консультантов, к которым можно записаться
func (r *UserRepository) ListActiveCounselors(ctx context.Context) ([]*model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE role = 'counselor' AND (counseling_status IS NULL OR counseling_status <> 'inactive')
		ORDER BY name
	`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active counselors: %w", err)
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// DeleteCascade удаляет пользователя и все его зависимые записи.
// Вызывать внутри транзакции.
func (r *UserRepository) DeleteCascade(ctx context.Context, id int64) (bool, error) {
	steps := []struct {
		name  string
		query string
	}{
		{"notifications", `DELETE FROM notifications WHERE user_id = $1`},
		{"counselor notes", `DELETE FROM counselor_notes WHERE counselor_id = $1`},
		{"student notes", `DELETE FROM student_notes WHERE student_id = $1`},
		{"settings", `DELETE FROM counselor_settings WHERE counselor_id = $1`},
		{"availability", `DELETE FROM counselor_availability WHERE counselor_id = $1`},
		{"cleared days", `DELETE FROM counselor_cleared_days WHERE counselor_id = $1`},
		{"chat messages", `
			DELETE FROM chat_messages
			WHERE sender_id = $1
			   OR session_id IN (
				SELECT id FROM counseling_sessions WHERE student_id = $1 OR counselor_id = $1
			   )
		`},
		{"sessions", `DELETE FROM counseling_sessions WHERE student_id = $1 OR counselor_id = $1`},
	}

	for _, step := range steps {
		if _, err := r.DB().Exec(ctx, step.query, id); err != nil {
			return false, fmt.Errorf("delete user %s: %w", step.name, err)
		}
	}

	affected, err := r.ExecAffected(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}

	return affected > 0, nil
}
