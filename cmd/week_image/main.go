package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/render"
	"github.com/google/uuid"
)

// Рисует неделю с тестовыми данными, чтобы проверить вёрстку картинки без базы
func main() {
	output := flag.String("o", "week.png", "output file")
	flag.Parse()

	now := time.Now()
	monday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for monday.Weekday() != time.Monday {
		monday = monday.AddDate(0, 0, -1)
	}

	day := func(offset int) string {
		return monday.AddDate(0, 0, offset).Format("2006-01-02")
	}
	at := func(offset, hour int) time.Time {
		return monday.AddDate(0, 0, offset).Add(time.Duration(hour) * time.Hour)
	}

	slots := []model.AvailabilitySlot{
		{CounselorID: 1, Date: day(0), StartTime: "09:00"},
		{CounselorID: 1, Date: day(0), StartTime: "10:00"},
		{CounselorID: 1, Date: day(0), StartTime: "14:00"},
		{CounselorID: 1, Date: day(1), StartTime: "10:00"},
		{CounselorID: 1, Date: day(2), StartTime: "09:00"},
		{CounselorID: 1, Date: day(2), StartTime: "15:00"},
		{CounselorID: 1, Date: day(4), StartTime: "11:00"},
		{CounselorID: 1, Date: day(4), StartTime: "13:00"},
	}
	booked := []model.SessionSummary{
		{ID: uuid.New(), DateTime: at(0, 14), Status: model.SessionStatusConfirmed, StudentID: 100},
		{ID: uuid.New(), DateTime: at(2, 9), Status: model.SessionStatusPending, StudentID: 200},
		{ID: uuid.New(), DateTime: at(3, 16), Status: model.SessionStatusCompleted, StudentID: 100},
	}

	image, err := render.WeekImage(render.Week{
		Start:        monday,
		Location:     now.Location(),
		Now:          now,
		Slots:        slots,
		Booked:       booked,
		StudentNames: map[int64]string{100: "Alice", 200: "Bob"},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "render week image: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*output, image, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *output, err)
		os.Exit(1)
	}

	fmt.Printf("Saved %s: week of %s, %d slots, %d sessions\n",
		*output, monday.Format("02.01.2006"), len(slots), len(booked))
}
