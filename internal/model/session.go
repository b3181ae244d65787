package model

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"   // Запрошена студентом
	SessionStatusConfirmed SessionStatus = "confirmed" // Принята консультантом
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCanceled  SessionStatus = "canceled" // Финальный статус
)

// ParseSessionStatus принимает только статусы, которые консультант ставит напрямую
func ParseSessionStatus(value string) (SessionStatus, bool) {
	switch SessionStatus(value) {
	case SessionStatusConfirmed, SessionStatusCanceled, SessionStatusCompleted:
		return SessionStatus(value), true
	default:
		return "", false
	}
}

type ChatStatus string

const (
	ChatStatusOpen   ChatStatus = "open"
	ChatStatusClosed ChatStatus = "closed"
)

func ParseChatStatus(value string) (ChatStatus, bool) {
	switch ChatStatus(value) {
	case ChatStatusOpen, ChatStatusClosed:
		return ChatStatus(value), true
	default:
		return "", false
	}
}

type CancellationStatus string

const (
	CancellationPendingStudent CancellationStatus = "pending_student"
	CancellationApproved       CancellationStatus = "approved"
)

type CounselingSession struct {
	ID                 uuid.UUID           `json:"id"`
	StudentID          int64               `json:"studentId"`
	CounselorID        int64               `json:"counselorId"`
	DateTime           time.Time           `json:"dateTime"`
	Status             SessionStatus       `json:"status"`
	ChatStatus         ChatStatus          `json:"chatStatus"`
	Topic              string              `json:"topic"`
	CancellationStatus *CancellationStatus `json:"cancellation_status"`
	CancellationReason *string             `json:"cancellation_reason"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`

	// Подтягиваются JOIN-ом для списков
	StudentName   string `json:"studentName,omitempty"`
	CounselorName string `json:"counselorName,omitempty"`
}

// HasParticipant является ли пользователь студентом или консультантом сессии
func (s *CounselingSession) HasParticipant(userID int64) bool {
	return s.StudentID == userID || s.CounselorID == userID
}

// Counterpart возвращает второго участника сессии
func (s *CounselingSession) Counterpart(userID int64) int64 {
	if userID == s.StudentID {
		return s.CounselorID
	}
	return s.StudentID
}

func (s *CounselingSession) IsCancellationPending() bool {
	return s.CancellationStatus != nil && *s.CancellationStatus == CancellationPendingStudent
}

// SessionSummary занятая запись в ответе о доступности
type SessionSummary struct {
	ID        uuid.UUID     `json:"id"`
	DateTime  time.Time     `json:"dateTime"`
	Status    SessionStatus `json:"status"`
	StudentID int64         `json:"studentId"`
}
