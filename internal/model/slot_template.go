package model

import "time"

const (
	SettingDefaultSlots = "defaultSlots"

	// Слоты шаблона начинаются с этого часа и идут каждый час
	DefaultSlotStartHour = 9
	// Последний слот должен начаться до полуночи
	MaxDefaultSlotsPerDay = 24 - DefaultSlotStartHour
)

// DefaultSlotTemplate количество слотов по дням недели, начиная с воскресенья
type DefaultSlotTemplate [7]int

// ForWeekday возвращает количество слотов для дня недели
func (t DefaultSlotTemplate) ForWeekday(day time.Weekday) int {
	return t[int(day)]
}

// CounselorSettings настройки консультанта
type CounselorSettings struct {
	DefaultSlots *DefaultSlotTemplate `json:"defaultSlots,omitempty"`
}
