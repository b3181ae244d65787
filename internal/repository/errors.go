package repository

import "errors"

// ErrDuplicate нарушено уникальное ограничение
var ErrDuplicate = errors.New("duplicate record")
