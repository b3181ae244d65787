package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
)

func TestBookingAndCancellationFlow(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	svc := newIntegrationServices(pool, false)

	student := createTestUser(t, ctx, pool, model.RoleStudent)
	counselor := createTestUser(t, ctx, pool, model.RoleCounselor)

	sessionID, err := svc.bookings.RequestSession(ctx, student, SessionRequest{
		CounselorID: counselor.ID,
		DateTime:    futureDate(3).Add(10 * time.Hour),
		Topic:       "Exams",
	})
	if err != nil {
		t.Fatalf("RequestSession: %v", err)
	}
	if n, ok := svc.notifier.last(); !ok || n.UserID != counselor.ID || n.Link != linkRequests {
		t.Fatalf("expected counselor to be notified, got %+v", n)
	}

	session, err := svc.bookings.GetSession(ctx, student, sessionID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if session.Status != model.SessionStatusPending || session.ChatStatus != model.ChatStatusClosed {
		t.Fatalf("expected pending/closed, got %s/%s", session.Status, session.ChatStatus)
	}
	if session.CounselorName != counselor.Name {
		t.Fatalf("expected counselor name %q, got %q", counselor.Name, session.CounselorName)
	}

	// до подтверждения отменять нельзя
	if err := svc.cancellations.RequestCancellation(ctx, student, sessionID, "sick"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid state for pending session, got %v", err)
	}

	if err := svc.bookings.SetStatus(ctx, counselor, sessionID, model.SessionStatusConfirmed); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	if err := svc.cancellations.RequestCancellation(ctx, student, sessionID, "sick"); err != nil {
		t.Fatalf("RequestCancellation: %v", err)
	}
	session, _ = svc.bookings.GetSession(ctx, counselor, sessionID)
	if session.Status != model.SessionStatusConfirmed || !session.IsCancellationPending() {
		t.Fatalf("expected confirmed with pending cancellation, got %s %v", session.Status, session.CancellationStatus)
	}

	if err := svc.cancellations.ApproveCancellation(ctx, counselor, sessionID); err != nil {
		t.Fatalf("ApproveCancellation: %v", err)
	}
	session, _ = svc.bookings.GetSession(ctx, student, sessionID)
	if session.Status != model.SessionStatusCanceled {
		t.Fatalf("expected canceled, got %s", session.Status)
	}
	if session.CancellationReason == nil || *session.CancellationReason != "sick" {
		t.Fatalf("expected reason to be kept, got %v", session.CancellationReason)
	}

	if err := svc.bookings.SetStatus(ctx, counselor, sessionID, model.SessionStatusConfirmed); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected canceled to be terminal, got %v", err)
	}
}

func TestRequestSessionRejectsNonCounselor(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	svc := newIntegrationServices(pool, false)

	student := createTestUser(t, ctx, pool, model.RoleStudent)
	other := createTestUser(t, ctx, pool, model.RoleStudent)

	_, err := svc.bookings.RequestSession(ctx, student, SessionRequest{
		CounselorID: other.ID,
		DateTime:    futureDate(1).Add(9 * time.Hour),
		Topic:       "Help",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCounselorCancelsImmediately(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	svc := newIntegrationServices(pool, false)

	student := createTestUser(t, ctx, pool, model.RoleStudent)
	counselor := createTestUser(t, ctx, pool, model.RoleCounselor)
	outsider := createTestUser(t, ctx, pool, model.RoleStudent)

	sessionID, err := svc.bookings.RequestSession(ctx, student, SessionRequest{
		CounselorID: counselor.ID,
		DateTime:    futureDate(2).Add(11 * time.Hour),
		Topic:       "Stress",
	})
	if err != nil {
		t.Fatalf("RequestSession: %v", err)
	}
	if err := svc.bookings.SetStatus(ctx, counselor, sessionID, model.SessionStatusConfirmed); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	if err := svc.cancellations.RequestCancellation(ctx, outsider, sessionID, "x"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden for outsider, got %v", err)
	}

	if err := svc.cancellations.RequestCancellation(ctx, counselor, sessionID, "conference"); err != nil {
		t.Fatalf("RequestCancellation: %v", err)
	}
	session, _ := svc.bookings.GetSession(ctx, counselor, sessionID)
	if session.Status != model.SessionStatusCanceled {
		t.Fatalf("expected canceled, got %s", session.Status)
	}
	if n, _ := svc.notifier.last(); n.UserID != student.ID || n.Link != linkHistory {
		t.Fatalf("expected student notification, got %+v", n)
	}
}

func TestConcurrentApprovalSucceedsOnce(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	svc := newIntegrationServices(pool, false)

	student := createTestUser(t, ctx, pool, model.RoleStudent)
	counselor := createTestUser(t, ctx, pool, model.RoleCounselor)

	sessionID, err := svc.bookings.RequestSession(ctx, student, SessionRequest{
		CounselorID: counselor.ID,
		DateTime:    futureDate(4).Add(15 * time.Hour),
		Topic:       "Career",
	})
	if err != nil {
		t.Fatalf("RequestSession: %v", err)
	}
	if err := svc.bookings.SetStatus(ctx, counselor, sessionID, model.SessionStatusConfirmed); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if err := svc.cancellations.RequestCancellation(ctx, student, sessionID, "exam moved"); err != nil {
		t.Fatalf("RequestCancellation: %v", err)
	}

	const attempts = 5
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.cancellations.ApproveCancellation(ctx, counselor, sessionID)
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrInvalidState):
		default:
			t.Errorf("unexpected error %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one approval, got %d", succeeded)
	}
}

func TestSetDayAvailabilityReplacesDay(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	svc := newIntegrationServices(pool, false)

	counselor := createTestUser(t, ctx, pool, model.RoleCounselor)
	day := futureDate(5).Format(dateLayout)

	if err := svc.availability.SetDayAvailability(ctx, counselor, day, []string{"09:00", "10:00", "11:00"}); err != nil {
		t.Fatalf("SetDayAvailability: %v", err)
	}
	if err := svc.availability.SetDayAvailability(ctx, counselor, day, []string{"14:00"}); err != nil {
		t.Fatalf("SetDayAvailability: %v", err)
	}

	availability, err := svc.availability.GetAvailability(ctx, counselor.ID)
	if err != nil {
		t.Fatalf("GetAvailability: %v", err)
	}
	var times []string
	for _, slot := range availability.Available {
		if slot.Date == day {
			times = append(times, slot.StartTime)
		}
	}
	if !slices.Equal(times, []string{"14:00"}) {
		t.Fatalf("expected only 14:00 to remain, got %v", times)
	}

	if err := svc.availability.SetDayAvailability(ctx, counselor, day, []string{}); err != nil {
		t.Fatalf("clear day: %v", err)
	}
	count, err := repository.NewAvailabilityRepository(pool).CountForDate(ctx, counselor.ID, day)
	if err != nil {
		t.Fatalf("CountForDate: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty day, got %d slots", count)
	}
}

func TestSetDayAvailabilityKeepsBookedSlot(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	svc := newIntegrationServices(pool, true)

	student := createTestUser(t, ctx, pool, model.RoleStudent)
	counselor := createTestUser(t, ctx, pool, model.RoleCounselor)
	date := futureDate(6)
	day := date.Format(dateLayout)

	if err := svc.availability.SetDayAvailability(ctx, counselor, day, []string{"09:00", "10:00"}); err != nil {
		t.Fatalf("SetDayAvailability: %v", err)
	}

	if _, err := svc.bookings.RequestSession(ctx, student, SessionRequest{
		CounselorID: counselor.ID,
		DateTime:    date.Add(12 * time.Hour),
		Topic:       "Off slot",
	}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict for an undeclared slot, got %v", err)
	}

	if _, err := svc.bookings.RequestSession(ctx, student, SessionRequest{
		CounselorID: counselor.ID,
		DateTime:    date.Add(10 * time.Hour),
		Topic:       "Declared slot",
	}); err != nil {
		t.Fatalf("RequestSession: %v", err)
	}

	if _, err := svc.bookings.RequestSession(ctx, student, SessionRequest{
		CounselorID: counselor.ID,
		DateTime:    date.Add(10 * time.Hour),
		Topic:       "Same slot",
	}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict for a taken slot, got %v", err)
	}

	err := svc.availability.SetDayAvailability(ctx, counselor, day, []string{"09:00"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict when removing a booked slot, got %v", err)
	}
}

func TestSaveSettingsDoesNotOverwriteManualDays(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	svc := newIntegrationServices(pool, false)

	counselor := createTestUser(t, ctx, pool, model.RoleCounselor)
	today := futureDate(0)
	svc.availability.now = func() time.Time { return today.Add(8 * time.Hour) }

	manualDay := today.AddDate(0, 0, 1).Format(dateLayout)
	if err := svc.availability.SetDayAvailability(ctx, counselor, manualDay, []string{"16:00"}); err != nil {
		t.Fatalf("SetDayAvailability: %v", err)
	}

	if err := svc.availability.SaveSettings(ctx, counselor, model.SettingDefaultSlots, []int{2, 2, 2, 2, 2, 2, 2}); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	slotRepo := repository.NewAvailabilityRepository(pool)
	for i := 0; i < 7; i++ {
		day := today.AddDate(0, 0, i).Format(dateLayout)
		count, err := slotRepo.CountForDate(ctx, counselor.ID, day)
		if err != nil {
			t.Fatalf("CountForDate: %v", err)
		}

		want := 2
		if day == manualDay {
			want = 1
		}
		if count != want {
			t.Errorf("%s: expected %d slots, got %d", day, want, count)
		}
	}

	settings, err := svc.availability.GetSettings(ctx, counselor.ID)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if settings == nil || settings.DefaultSlots == nil || settings.DefaultSlots[0] != 2 {
		t.Fatalf("expected saved template, got %+v", settings)
	}

	// повторное применение ничего не добавляет
	filled, err := svc.availability.ApplyDefaultTemplate(ctx, counselor.ID, *settings.DefaultSlots)
	if err != nil {
		t.Fatalf("ApplyDefaultTemplate: %v", err)
	}
	if filled != 0 {
		t.Fatalf("expected no new days, got %d", filled)
	}
}

func TestTemplateRefreshKeepsClearedDays(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	svc := newIntegrationServices(pool, false)

	counselor := createTestUser(t, ctx, pool, model.RoleCounselor)
	today := futureDate(0)
	svc.availability.now = func() time.Time { return today.Add(8 * time.Hour) }

	if err := svc.availability.SaveSettings(ctx, counselor, model.SettingDefaultSlots, []int{2, 2, 2, 2, 2, 2, 2}); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	clearedDay := today.AddDate(0, 0, 2).Format(dateLayout)
	if err := svc.availability.SetDayAvailability(ctx, counselor, clearedDay, []string{}); err != nil {
		t.Fatalf("SetDayAvailability: %v", err)
	}

	if err := svc.availability.RefreshAllTemplates(ctx); err != nil {
		t.Fatalf("RefreshAllTemplates: %v", err)
	}

	slotRepo := repository.NewAvailabilityRepository(pool)
	count, err := slotRepo.CountForDate(ctx, counselor.ID, clearedDay)
	if err != nil {
		t.Fatalf("CountForDate: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected cleared day to stay empty after refresh, got %d slots", count)
	}

	// явное сохранение настроек заполняет любой пустой день
	if err := svc.availability.SaveSettings(ctx, counselor, model.SettingDefaultSlots, []int{2, 2, 2, 2, 2, 2, 2}); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	count, err = slotRepo.CountForDate(ctx, counselor.ID, clearedDay)
	if err != nil {
		t.Fatalf("CountForDate: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected saved template to fill the day, got %d slots", count)
	}
	cleared, err := slotRepo.IsCleared(ctx, counselor.ID, clearedDay)
	if err != nil {
		t.Fatalf("IsCleared: %v", err)
	}
	if cleared {
		t.Fatalf("expected cleared mark to be removed once the day is filled")
	}
}

func TestChatMessageOpensChat(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	svc := newIntegrationServices(pool, false)

	student := createTestUser(t, ctx, pool, model.RoleStudent)
	counselor := createTestUser(t, ctx, pool, model.RoleCounselor)
	outsider := createTestUser(t, ctx, pool, model.RoleCounselor)

	sessionID, err := svc.bookings.RequestSession(ctx, student, SessionRequest{
		CounselorID: counselor.ID,
		DateTime:    futureDate(2).Add(13 * time.Hour),
		Topic:       "Friends",
	})
	if err != nil {
		t.Fatalf("RequestSession: %v", err)
	}

	if _, err := svc.chats.SendMessage(ctx, student, sessionID, "hello"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	session, _ := svc.bookings.GetSession(ctx, student, sessionID)
	if session.ChatStatus != model.ChatStatusOpen {
		t.Fatalf("expected chat to be opened by a message, got %s", session.ChatStatus)
	}
	if n, _ := svc.notifier.last(); n.UserID != counselor.ID || n.Link != linkChat+sessionID.String() {
		t.Fatalf("expected counselor chat notification, got %+v", n)
	}

	if err := svc.chats.SetChatStatus(ctx, counselor, sessionID, model.ChatStatusClosed); err != nil {
		t.Fatalf("SetChatStatus: %v", err)
	}
	if _, err := svc.chats.SendMessage(ctx, counselor, sessionID, "reopening"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	session, _ = svc.bookings.GetSession(ctx, counselor, sessionID)
	if session.ChatStatus != model.ChatStatusOpen {
		t.Fatalf("expected chat to reopen, got %s", session.ChatStatus)
	}

	messages, err := svc.chats.ListMessages(ctx, student, sessionID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(messages) != 2 || messages[0].Message != "hello" || messages[1].SenderName != counselor.Name {
		t.Fatalf("unexpected messages %+v", messages)
	}

	if _, err := svc.chats.SendMessage(ctx, outsider, sessionID, "hi"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden for outsider, got %v", err)
	}
	if _, err := svc.chats.ListMessages(ctx, outsider, sessionID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden read for outsider, got %v", err)
	}
}

type mapCounter struct {
	mu     sync.Mutex
	counts map[int64]int
}

func (c *mapCounter) Get(_ context.Context, userID int64) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	count, ok := c.counts[userID]
	return count, ok
}

func (c *mapCounter) Set(_ context.Context, userID int64, count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[userID] = count
}

func (c *mapCounter) Invalidate(_ context.Context, userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counts, userID)
}

func TestDashboardAggregatesByRole(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	svc := newIntegrationServices(pool, false)
	logger := svc.availability.logger

	student := createTestUser(t, ctx, pool, model.RoleStudent)
	counselor := createTestUser(t, ctx, pool, model.RoleCounselor)

	notifications := NewNotificationService(pool, &mapCounter{counts: map[int64]int{}}, logger)
	notes := NewNoteService(pool, logger)
	users := NewUserService(pool, logger)
	dashboard := NewDashboardService(pool, svc.bookings, svc.availability, notifications, notes, users)

	sessionID, err := svc.bookings.RequestSession(ctx, student, SessionRequest{
		CounselorID: counselor.ID,
		DateTime:    futureDate(1).Add(9 * time.Hour),
		Topic:       "Plans",
	})
	if err != nil {
		t.Fatalf("RequestSession: %v", err)
	}
	if _, err := svc.chats.SendMessage(ctx, student, sessionID, "hi"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if _, err := notes.Create(ctx, student, model.RoleStudent, "Questions", "what to ask"); err != nil {
		t.Fatalf("Create note: %v", err)
	}
	if err := repository.NewNotificationRepository(pool).Create(ctx, &model.Notification{
		UserID: student.ID, Message: "Welcome", Link: linkHistory,
	}); err != nil {
		t.Fatalf("Create notification: %v", err)
	}

	data, err := dashboard.Data(ctx, student)
	if err != nil {
		t.Fatalf("student dashboard: %v", err)
	}
	studentData, ok := data.(*StudentDashboard)
	if !ok {
		t.Fatalf("expected *StudentDashboard, got %T", data)
	}
	if len(studentData.Sessions) != 1 || studentData.OpenChats != 1 || len(studentData.Notes) != 1 {
		t.Fatalf("unexpected student dashboard %+v", studentData)
	}
	if studentData.UnreadCount != 1 || len(studentData.Notifications) != 1 {
		t.Fatalf("expected one unread notification, got %d/%d", studentData.UnreadCount, len(studentData.Notifications))
	}

	if err := notifications.MarkAllRead(ctx, student); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if unread, _ := notifications.UnreadCount(ctx, student); unread != 0 {
		t.Fatalf("expected cache to be invalidated, got %d unread", unread)
	}

	data, err = dashboard.Data(ctx, counselor)
	if err != nil {
		t.Fatalf("counselor dashboard: %v", err)
	}
	counselorData := data.(*CounselorDashboard)
	if len(counselorData.Sessions) != 1 || counselorData.Availability == nil || counselorData.Settings == nil {
		t.Fatalf("unexpected counselor dashboard %+v", counselorData)
	}

	if _, err := notes.List(ctx, counselor, model.RoleStudent); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected counselor to be denied student notes, got %v", err)
	}
}
