package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository/base"
	"go.uber.org/zap"
)

// NoteService личные заметки. Студенты и консультанты хранят их в разных таблицах
type NoteService struct {
	db     base.DBTX
	logger *zap.Logger
}

func NewNoteService(db base.DBTX, logger *zap.Logger) *NoteService {
	return &NoteService{db: db, logger: logger}
}

// repo таблица заметок по роли владельца
func (s *NoteService) repo(caller model.Caller, owner model.Role) (*repository.NoteRepository, error) {
	if err := requireRole(caller, owner); err != nil {
		return nil, err
	}

	switch owner {
	case model.RoleStudent:
		return repository.NewNoteRepository(s.db, repository.StudentNotes), nil
	case model.RoleCounselor:
		return repository.NewNoteRepository(s.db, repository.CounselorNotes), nil
	case model.RoleAdmin:
		return nil, fmt.Errorf("%w: admins have no notes", ErrForbidden)
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrForbidden, owner)
	}
}

// List заметки владельца, свежие первыми
func (s *NoteService) List(ctx context.Context, caller model.Caller, owner model.Role) ([]*model.Note, error) {
	notes, err := s.repo(caller, owner)
	if err != nil {
		return nil, err
	}
	return notes.ListByOwner(ctx, caller.ID)
}

// Create новая заметка
func (s *NoteService) Create(ctx context.Context, caller model.Caller, owner model.Role, title, content string) (*model.Note, error) {
	notes, err := s.repo(caller, owner)
	if err != nil {
		return nil, err
	}

	note := &model.Note{OwnerID: caller.ID, Title: strings.TrimSpace(title), Content: content}
	if note.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	if err := notes.Create(ctx, note); err != nil {
		return nil, err
	}

	s.logger.Debug("Note created", zap.Int64("note_id", note.ID), zap.Int64("owner_id", caller.ID))
	return note, nil
}

// Update изменяет свою заметку
func (s *NoteService) Update(ctx context.Context, caller model.Caller, owner model.Role, id int64, title, content string) (*model.Note, error) {
	notes, err := s.repo(caller, owner)
	if err != nil {
		return nil, err
	}

	note := &model.Note{ID: id, OwnerID: caller.ID, Title: strings.TrimSpace(title), Content: content}
	if note.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	updated, err := notes.Update(ctx, note)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, fmt.Errorf("%w: note not found", ErrNotFound)
	}

	return note, nil
}

// Delete удаляет свою заметку
func (s *NoteService) Delete(ctx context.Context, caller model.Caller, owner model.Role, id int64) error {
	notes, err := s.repo(caller, owner)
	if err != nil {
		return err
	}

	deleted, err := notes.Delete(ctx, caller.ID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: note not found", ErrNotFound)
	}

	return nil
}
