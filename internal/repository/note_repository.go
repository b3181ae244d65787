package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository/base"
)

// NoteTable таблица заметок и колонка владельца
type NoteTable struct {
	name        string
	ownerColumn string
}

var (
	StudentNotes   = NoteTable{name: "student_notes", ownerColumn: "student_id"}
	CounselorNotes = NoteTable{name: "counselor_notes", ownerColumn: "counselor_id"}
)

type NoteRepository struct {
	*base.Repository
	table NoteTable
}

func NewNoteRepository(db base.DBTX, table NoteTable) *NoteRepository {
	return &NoteRepository{Repository: base.NewRepository(db), table: table}
}

// ListByOwner возвращает заметки владельца, свежие первыми
func (r *NoteRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*model.Note, error) {
	query := fmt.Sprintf(`
		SELECT id, %[2]s, title, content, updated_at
		FROM %[1]s
		WHERE %[2]s = $1
		ORDER BY updated_at DESC
	`, r.table.name, r.table.ownerColumn)

	rows, err := r.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := []*model.Note{}
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Content, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, &n)
	}

	return notes, rows.Err()
}

// Create создаёт заметку
func (r *NoteRepository) Create(ctx context.Context, note *model.Note) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, title, content)
		VALUES ($1, $2, $3)
		RETURNING id, updated_at
	`, r.table.name, r.table.ownerColumn)

	if err := r.QueryRow(ctx, query, note.OwnerID, note.Title, note.Content).Scan(&note.ID, &note.UpdatedAt); err != nil {
		return fmt.Errorf("create note: %w", err)
	}

	return nil
}

// Update обновляет заметку владельца. false, если заметка не найдена или чужая
func (r *NoteRepository) Update(ctx context.Context, note *model.Note) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, content = $2, updated_at = NOW()
		WHERE id = $3 AND %s = $4
		RETURNING updated_at
	`, r.table.name, r.table.ownerColumn)

	err := r.QueryRow(ctx, query, note.Title, note.Content, note.ID, note.OwnerID).Scan(&note.UpdatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("update note: %w", err)
	}

	return true, nil
}

// Delete удаляет заметку владельца. false, если заметка не найдена или чужая
func (r *NoteRepository) Delete(ctx context.Context, ownerID, noteID int64) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND %s = $2`, r.table.name, r.table.ownerColumn)

	affected, err := r.ExecAffected(ctx, query, noteID, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete note: %w", err)
	}

	return affected > 0, nil
}
