package service

import "errors"

// Ошибки бизнес-логики. Контроллер сопоставляет их со статусами HTTP через errors.Is
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidState = errors.New("invalid state")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)
