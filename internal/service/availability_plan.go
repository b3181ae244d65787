package service

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
)

const (
	dateLayout = "2006-01-02"
	slotLayout = "15:04"
)

// templateDay даты, которые заполнит шаблон, и время слотов
type templateDay struct {
	Date  string
	Times []string
}

// ParseDate разбирает дату формата YYYY-MM-DD
func ParseDate(value string) (time.Time, error) {
	date, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return date, nil
}

// normalizeSlotTimes приводит время слотов к HH:MM. Повтор времени считается конфликтом
func normalizeSlotTimes(times []string) ([]string, error) {
	normalized := make([]string, 0, len(times))
	seen := make(map[string]struct{}, len(times))

	for _, raw := range times {
		value := strings.TrimSpace(raw)
		parsed, err := time.Parse(slotLayout, value)
		if err != nil {
			parsed, err = time.Parse("15:04:05", value)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: slot time %q must be HH:MM", ErrInvalidInput, raw)
		}

		slot := parsed.Format(slotLayout)
		if _, ok := seen[slot]; ok {
			return nil, fmt.Errorf("%w: slot %s is listed twice", ErrConflict, slot)
		}
		seen[slot] = struct{}{}
		normalized = append(normalized, slot)
	}

	slices.Sort(normalized)
	return normalized, nil
}

// ValidateTemplate проверяет значение настройки defaultSlots
func ValidateTemplate(values []int) (model.DefaultSlotTemplate, error) {
	var template model.DefaultSlotTemplate

	if len(values) != len(template) {
		return template, fmt.Errorf("%w: defaultSlots must have %d values", ErrInvalidInput, len(template))
	}

	for i, n := range values {
		if n < 0 || n > model.MaxDefaultSlotsPerDay {
			return template, fmt.Errorf("%w: defaultSlots[%d] must be between 0 and %d",
				ErrInvalidInput, i, model.MaxDefaultSlotsPerDay)
		}
		template[i] = n
	}

	return template, nil
}

// TemplateSlotTimes n часовых слотов начиная с 09:00
func TemplateSlotTimes(n int) []string {
	times := make([]string, 0, n)
	for i := 0; i < n; i++ {
		times = append(times, fmt.Sprintf("%02d:00", model.DefaultSlotStartHour+i))
	}
	return times
}

// planTemplateDays раскладывает шаблон на сегодня и следующие шесть дней.
// Дни с нулём слотов в шаблоне пропускаются
func planTemplateDays(today time.Time, template model.DefaultSlotTemplate) []templateDay {
	var days []templateDay

	for i := 0; i < 7; i++ {
		date := today.AddDate(0, 0, i)
		n := template.ForWeekday(date.Weekday())
		if n == 0 {
			continue
		}
		days = append(days, templateDay{
			Date:  date.Format(dateLayout),
			Times: TemplateSlotTimes(n),
		})
	}

	return days
}

// removedBookedTimes возвращает время слотов, которые пропадают из дня,
// хотя на них стоит активная сессия консультанта
func removedBookedTimes(current, next []string, active []model.SessionSummary, loc *time.Location) []string {
	kept := make(map[string]struct{}, len(next))
	for _, t := range next {
		kept[t] = struct{}{}
	}

	booked := make(map[string]struct{}, len(active))
	for _, s := range active {
		booked[s.DateTime.In(loc).Format(slotLayout)] = struct{}{}
	}

	var removed []string
	for _, t := range current {
		if _, ok := kept[t]; ok {
			continue
		}
		if _, ok := booked[t]; ok {
			removed = append(removed, t)
		}
	}

	return removed
}

// dayBounds начало дня и начало следующего дня в часовом поясе школы
func dayBounds(date time.Time, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// slotOf дата и время слота, который занимает сессия
func slotOf(dateTime time.Time, loc *time.Location) (string, string) {
	local := dateTime.In(loc)
	return local.Format(dateLayout), local.Format(slotLayout)
}
