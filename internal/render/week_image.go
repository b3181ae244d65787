package render

import (
	"bytes"
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Размеры и отступы
const (
	imageWidth       = 1400
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	legendWidth      = 140
	dayPaddingX      = 8
	minSlotHeight    = 8.0
	slotBorderRadius = 6.0
	shadowOffset     = 3.0
	daysInWeek       = 7
	hourPadding      = 1
	defaultMinHour   = 8
	defaultMaxHour   = 17
)

const (
	titleFontSize      = 25.0
	dayFontSize        = 24.0
	hourLabelFontSize  = 18.0
	slotTimeFontSize   = 17.0
	legendItemFontSize = 13.0
)

// Цветовая схема
var (
	bgColor          = color.RGBA{245, 246, 248, 255}
	textColor        = color.RGBA{80, 85, 90, 220}
	hourLabelColor   = color.RGBA{110, 115, 120, 200}
	hourLineColor    = color.NRGBA{150, 150, 150, 255}
	todayBgColor     = color.NRGBA{255, 99, 71, 125}
	evenDayColor     = color.NRGBA{240, 240, 240, 255}
	oddDayColor      = color.NRGBA{220, 220, 220, 255}
	currentTimeColor = color.NRGBA{255, 80, 80, 200}

	cellAvailableColor = color.RGBA{133, 193, 85, 220}
	cellPendingColor   = color.RGBA{255, 214, 102, 230}
	cellConfirmedColor = color.RGBA{255, 182, 193, 255}
	cellCompletedColor = color.RGBA{158, 158, 158, 200}
	cellTextColor      = color.RGBA{20, 24, 28, 230}
	cellBookedText     = color.RGBA{120, 40, 50, 255}
	cellShadowColor    = color.RGBA{0, 0, 0, 20}

	legendItemColor = color.RGBA{70, 74, 78, 220}
)

type fontWeight int

const (
	weightRegular fontWeight = iota
	weightBold
)

var (
	fontsMu sync.Mutex
	fonts   = make(map[fontWeight]*opentype.Font)
)

// Week данные для отрисовки недели консультанта
type Week struct {
	Start        time.Time // любой день недели, неделя начинается с понедельника
	Location     *time.Location
	Now          time.Time
	Slots        []model.AvailabilitySlot
	Booked       []model.SessionSummary
	StudentNames map[int64]string
}

// cell один прямоугольник на сетке: объявленный слот или сессия
type cell struct {
	hour      int
	minute    int
	status    model.SessionStatus // пусто для свободного слота
	studentID int64
}

type hourRange struct {
	start int
	end   int
	total int
}

// WeekImage рисует PNG недели: свободные слоты и занятые сессии
func WeekImage(week Week) ([]byte, error) {
	loc := week.Location
	if loc == nil {
		loc = time.UTC
	}
	now := week.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.In(loc)

	start := mondayOf(week.Start.In(loc))
	cells := collectCells(week.Slots, week.Booked, loc)
	hours := calculateHourRange(cells)

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()

	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / daysInWeek
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	drawHeader(dc, start)
	drawHourLabels(dc, hours, cellHeight)

	today := now.Format("2006-01-02")
	highlightToday := false
	for i := 0; i < daysInWeek; i++ {
		date := start.AddDate(0, 0, i)
		key := date.Format("2006-01-02")
		x := float64(leftLabelsWidth + i*dayWidth)
		isToday := key == today
		highlightToday = highlightToday || isToday

		drawDayBackground(dc, x, dayWidth, dayHeight, i, isToday)
		drawDayHeader(dc, date, x, dayWidth)
		drawHourLines(dc, x, dayWidth, hours, cellHeight)
		for _, c := range cells[key] {
			drawCell(dc, c, x, dayWidth, hours, cellHeight, week.StudentNames)
		}
	}

	if highlightToday {
		drawCurrentTimeLine(dc, now, hours, cellHeight, dayWidth)
	}
	drawLegend(dc, dayWidth)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// mondayOf начало недели (понедельник 00:00) для даты
func mondayOf(date time.Time) time.Time {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// collectCells группирует слоты и сессии по дате. Сессия закрывает слот на то же время
func collectCells(slots []model.AvailabilitySlot, booked []model.SessionSummary, loc *time.Location) map[string][]cell {
	byDay := make(map[string][]cell)
	index := make(map[string]int)

	for _, slot := range slots {
		t, err := time.Parse("15:04", slot.StartTime)
		if err != nil {
			continue
		}
		index[slot.Date+" "+slot.StartTime] = len(byDay[slot.Date])
		byDay[slot.Date] = append(byDay[slot.Date], cell{hour: t.Hour(), minute: t.Minute()})
	}

	for _, session := range booked {
		local := session.DateTime.In(loc)
		date := local.Format("2006-01-02")
		c := cell{hour: local.Hour(), minute: local.Minute(), status: session.Status, studentID: session.StudentID}

		if i, ok := index[date+" "+local.Format("15:04")]; ok {
			byDay[date][i] = c
			continue
		}
		byDay[date] = append(byDay[date], c)
	}

	return byDay
}

func calculateHourRange(cells map[string][]cell) hourRange {
	minHour, maxHour := 24, -1
	for _, day := range cells {
		for _, c := range day {
			minHour = min(minHour, c.hour)
			maxHour = max(maxHour, c.hour+1)
		}
	}

	if maxHour < 0 {
		minHour, maxHour = defaultMinHour, defaultMaxHour
	}

	start := max(minHour-hourPadding, 0)
	end := min(maxHour+hourPadding, 24)
	return hourRange{start: start, end: end, total: end - start}
}

// setFont ставит Go-шрифт нужного размера, basicfont если разбор не удался
func setFont(dc *gg.Context, size float64, weight fontWeight) {
	fontsMu.Lock()
	parsed, ok := fonts[weight]
	if !ok {
		data := goregular.TTF
		if weight == weightBold {
			data = gobold.TTF
		}
		var err error
		parsed, err = opentype.Parse(data)
		if err != nil {
			parsed = nil
		}
		fonts[weight] = parsed
	}
	fontsMu.Unlock()

	if parsed != nil {
		face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			dc.SetFontFace(face)
			return
		}
	}
	dc.SetFontFace(basicfont.Face7x13)
}

func drawHeader(dc *gg.Context, start time.Time) {
	end := start.AddDate(0, 0, daysInWeek-1)
	title := start.Format("January 2006")
	if start.Month() != end.Month() {
		title = start.Format("January") + " - " + end.Format("January 2006")
	}

	setFont(dc, titleFontSize, weightBold)
	dc.SetColor(textColor)
	w, h := dc.MeasureString(title)
	dc.DrawStringAnchored(title, w/2+10, float64(headerHeight)/8+h/2, 0, 0)
}

func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	setFont(dc, hourLabelFontSize, weightRegular)
	dc.SetColor(hourLabelColor)

	for i := 0; i < hours.total; i++ {
		y := float64(headerHeight) + float64(i)*cellHeight
		dc.DrawStringAnchored(fmt.Sprintf("%02d:00", hours.start+i), float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

func drawDayBackground(dc *gg.Context, x float64, dayWidth, dayHeight, dayIndex int, isToday bool) {
	switch {
	case isToday:
		dc.SetColor(todayBgColor)
	case dayIndex%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, headerHeight, float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

func drawDayHeader(dc *gg.Context, date time.Time, x float64, dayWidth int) {
	setFont(dc, dayFontSize, weightBold)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(date.Format("02.01"), x+float64(dayWidth)/2, headerHeight, 0.5, -1)
	dc.DrawStringAnchored(date.Format("Mon"), x+float64(dayWidth)/2, headerHeight, 0.5, -0.2)
}

func drawHourLines(dc *gg.Context, x float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)

	for i := 0; i <= hours.total; i++ {
		y := headerHeight + float64(i)*cellHeight
		dc.DrawLine(x, y, x+float64(dayWidth), y)
		dc.Stroke()
	}
}

func drawCell(dc *gg.Context, c cell, x float64, dayWidth int, hours hourRange, cellHeight float64, studentNames map[int64]string) {
	startHour := float64(c.hour) + float64(c.minute)/60.0
	y := headerHeight + (startHour-float64(hours.start))*cellHeight
	height := max(cellHeight, minSlotHeight)
	width := float64(dayWidth) - dayPaddingX*2
	fill := cellColor(c.status)

	dc.SetColor(cellShadowColor)
	dc.DrawRoundedRectangle(x+dayPaddingX+shadowOffset, y+2+shadowOffset, width, height-4, slotBorderRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x+dayPaddingX, y+2, width, height-4, slotBorderRadius)
	dc.Fill()

	dc.SetColor(darken(fill, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+dayPaddingX, y+2, width, height-4, slotBorderRadius)
	dc.Stroke()

	text := cellTextColor
	if c.status != "" {
		text = cellBookedText
	}

	setFont(dc, slotTimeFontSize, weightRegular)
	dc.SetColor(text)
	textX := x + dayPaddingX + 8
	textY := y + 18
	dc.DrawStringAnchored(fmt.Sprintf("%02d:%02d", c.hour, c.minute), textX, textY, 0, 0)

	if c.status == "" || height <= 25 {
		return
	}
	name := studentNames[c.studentID]
	if name == "" {
		return
	}
	if runes := []rune(name); len(runes) > 18 {
		name = string(runes[:15]) + "..."
	}
	setFont(dc, slotTimeFontSize-2, weightRegular)
	dc.DrawStringAnchored(name, textX, textY+16, 0, 0)
}

func cellColor(status model.SessionStatus) color.RGBA {
	switch status {
	case model.SessionStatusPending:
		return cellPendingColor
	case model.SessionStatusConfirmed:
		return cellConfirmedColor
	case model.SessionStatusCompleted:
		return cellCompletedColor
	default:
		return cellAvailableColor
	}
}

func darken(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

func drawCurrentTimeLine(dc *gg.Context, now time.Time, hours hourRange, cellHeight float64, dayWidth int) {
	current := float64(now.Hour()) + float64(now.Minute())/60.0
	if current < float64(hours.start) || current > float64(hours.end) {
		return
	}

	y := headerHeight + (current-float64(hours.start))*cellHeight
	dc.SetColor(currentTimeColor)
	dc.SetLineWidth(2.0)
	dc.DrawLine(leftLabelsWidth, y, float64(leftLabelsWidth+daysInWeek*dayWidth), y)
	dc.Stroke()
}

func drawLegend(dc *gg.Context, dayWidth int) {
	items := []struct {
		label string
		clr   color.Color
	}{
		{"Available", cellAvailableColor},
		{"Requested", cellPendingColor},
		{"Confirmed", cellConfirmedColor},
		{"Completed", cellCompletedColor},
	}

	const boxW, boxH = 20.0, 14.0
	x := float64(leftLabelsWidth + daysInWeek*dayWidth + 10)
	y := float64(imageHeight) - 130.0

	setFont(dc, legendItemFontSize, weightRegular)
	for _, item := range items {
		dc.SetColor(item.clr)
		dc.DrawRoundedRectangle(x, y, boxW, boxH, 3)
		dc.Fill()

		dc.SetColor(legendItemColor)
		dc.DrawStringAnchored(item.label, x+boxW+8, y+boxH/2+1, 0, 0.2)
		y += boxH + 14
	}
}
