package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository/base"
)

// SettingsRepository хранит настройки консультантов (counselor_settings, JSONB)
type SettingsRepository struct {
	*base.Repository
}

func NewSettingsRepository(db base.DBTX) *SettingsRepository {
	return &SettingsRepository{Repository: base.NewRepository(db)}
}

// SaveTemplate сохраняет или обновляет шаблон слотов
func (r *SettingsRepository) SaveTemplate(ctx context.Context, counselorID int64, template model.DefaultSlotTemplate) error {
	value, err := json.Marshal(template)
	if err != nil {
		return fmt.Errorf("marshal template: %w", err)
	}

	query := `
		INSERT INTO counselor_settings (counselor_id, setting_key, setting_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (counselor_id, setting_key) DO UPDATE SET setting_value = EXCLUDED.setting_value
	`

	if _, err := r.DB().Exec(ctx, query, counselorID, model.SettingDefaultSlots, value); err != nil {
		return fmt.Errorf("save template: %w", err)
	}

	return nil
}

// GetByCounselor возвращает настройки консультанта
func (r *SettingsRepository) GetByCounselor(ctx context.Context, counselorID int64) (*model.CounselorSettings, error) {
	query := `
		SELECT setting_key, setting_value
		FROM counselor_settings
		WHERE counselor_id = $1
	`

	rows, err := r.Query(ctx, query, counselorID)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	defer rows.Close()

	settings := &model.CounselorSettings{}
	for rows.Next() {
		var key string
		var raw []byte
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}

		switch key {
		case model.SettingDefaultSlots:
			var template model.DefaultSlotTemplate
			if err := json.Unmarshal(raw, &template); err != nil {
				return nil, fmt.Errorf("decode %s: %w", key, err)
			}
			settings.DefaultSlots = &template
		}
	}

	return settings, rows.Err()
}

// ListTemplates возвращает сохранённые шаблоны всех консультантов
func (r *SettingsRepository) ListTemplates(ctx context.Context) (map[int64]model.DefaultSlotTemplate, error) {
	query := `
		SELECT counselor_id, setting_value
		FROM counselor_settings
		WHERE setting_key = $1
	`

	rows, err := r.Query(ctx, query, model.SettingDefaultSlots)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	templates := make(map[int64]model.DefaultSlotTemplate)
	for rows.Next() {
		var counselorID int64
		var raw []byte
		if err := rows.Scan(&counselorID, &raw); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}

		var template model.DefaultSlotTemplate
		if err := json.Unmarshal(raw, &template); err != nil {
			return nil, fmt.Errorf("decode template of counselor %d: %w", counselorID, err)
		}
		templates[counselorID] = template
	}

	return templates, rows.Err()
}
