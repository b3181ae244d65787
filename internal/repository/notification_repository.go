package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository/base"
)

type NotificationRepository struct {
	*base.Repository
}

func NewNotificationRepository(db base.DBTX) *NotificationRepository {
	return &NotificationRepository{Repository: base.NewRepository(db)}
}

// Create сохраняет уведомление во входящие пользователя
func (r *NotificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	query := `
		INSERT INTO notifications (user_id, message, link)
		VALUES ($1, $2, $3)
		RETURNING id, is_read, created_at
	`

	err := r.QueryRow(ctx, query, notification.UserID, notification.Message, notification.Link).
		Scan(&notification.ID, &notification.IsRead, &notification.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	return nil
}

// ListLatest возвращает последние limit уведомлений пользователя
func (r *NotificationRepository) ListLatest(ctx context.Context, userID int64, limit int) ([]*model.Notification, error) {
	query := `
		SELECT id, user_id, message, link, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []*model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}

// CountUnread количество непрочитанных уведомлений
func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}

	return count, nil
}

// MarkAllRead помечает все уведомления пользователя прочитанными
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) error {
	if _, err := r.DB().Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID); err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}

	return nil
}
