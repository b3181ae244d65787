package service

import "context"

// Notifier доставляет уведомления пользователям. Ошибки доставки не возвращаются:
// реализация логирует их сама, основная операция не должна падать
type Notifier interface {
	Notify(ctx context.Context, userID int64, message, link string)
}

const (
	linkRequests = "/dashboard/requests"
	linkHistory  = "/dashboard/history"
	linkChat     = "/dashboard/chat/"
)
