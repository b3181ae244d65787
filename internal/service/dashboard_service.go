package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository/base"
	"golang.org/x/sync/errgroup"
)

type StudentDashboard struct {
	Sessions      []*model.CounselingSession `json:"sessions"`
	Counselors    []*model.User              `json:"counselors"`
	Notes         []*model.Note              `json:"notes"`
	OpenChats     int                        `json:"openChatCount"`
	Notifications []*model.Notification      `json:"notifications"`
	UnreadCount   int                        `json:"unreadCount"`
}

type CounselorDashboard struct {
	Sessions      []*model.CounselingSession `json:"sessions"`
	Availability  *model.Availability        `json:"availability"`
	Settings      *model.CounselorSettings   `json:"settings"`
	OpenChats     int                        `json:"openChatCount"`
	Notifications []*model.Notification      `json:"notifications"`
	UnreadCount   int                        `json:"unreadCount"`
	Notes         []*model.Note              `json:"notes"`
}

type AdminDashboard struct {
	Students   []*model.User              `json:"students"`
	Counselors []*model.User              `json:"counselors"`
	Sessions   []*model.CounselingSession `json:"sessions"`
}

// DashboardService собирает данные главной страницы по роли
type DashboardService struct {
	db            base.Pool
	bookings      *BookingService
	availability  *AvailabilityService
	notifications *NotificationService
	notes         *NoteService
	users         *UserService
}

func NewDashboardService(
	db base.Pool,
	bookings *BookingService,
	availability *AvailabilityService,
	notifications *NotificationService,
	notes *NoteService,
	users *UserService,
) *DashboardService {
	return &DashboardService{
		db:            db,
		bookings:      bookings,
		availability:  availability,
		notifications: notifications,
		notes:         notes,
		users:         users,
	}
}

// Data запросы выполняются параллельно на пуле
func (s *DashboardService) Data(ctx context.Context, caller model.Caller) (any, error) {
	switch caller.Role {
	case model.RoleStudent:
		return s.student(ctx, caller)
	case model.RoleCounselor:
		return s.counselor(ctx, caller)
	case model.RoleAdmin:
		return s.admin(ctx, caller)
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrForbidden, caller.Role)
	}
}

func (s *DashboardService) student(ctx context.Context, caller model.Caller) (*StudentDashboard, error) {
	var data StudentDashboard
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		data.Sessions, err = s.bookings.ListSessions(ctx, caller)
		return err
	})
	g.Go(func() (err error) {
		data.Counselors, err = repository.NewUserRepository(s.db).ListActiveCounselors(ctx)
		return err
	})
	g.Go(func() (err error) {
		data.Notes, err = s.notes.List(ctx, caller, model.RoleStudent)
		return err
	})
	s.common(ctx, g, caller, &data.OpenChats, &data.Notifications, &data.UnreadCount)

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("student dashboard: %w", err)
	}
	return &data, nil
}

func (s *DashboardService) counselor(ctx context.Context, caller model.Caller) (*CounselorDashboard, error) {
	var data CounselorDashboard
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		data.Sessions, err = s.bookings.ListSessions(ctx, caller)
		return err
	})
	g.Go(func() (err error) {
		data.Availability, err = s.availability.GetAvailability(ctx, caller.ID)
		return err
	})
	g.Go(func() (err error) {
		data.Settings, err = s.availability.GetSettings(ctx, caller.ID)
		return err
	})
	g.Go(func() (err error) {
		data.Notes, err = s.notes.List(ctx, caller, model.RoleCounselor)
		return err
	})
	s.common(ctx, g, caller, &data.OpenChats, &data.Notifications, &data.UnreadCount)

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("counselor dashboard: %w", err)
	}
	return &data, nil
}

func (s *DashboardService) admin(ctx context.Context, caller model.Caller) (*AdminDashboard, error) {
	var data AdminDashboard
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		data.Students, err = s.users.ListUsers(ctx, caller, string(model.RoleStudent))
		return err
	})
	g.Go(func() (err error) {
		data.Counselors, err = s.users.ListUsers(ctx, caller, string(model.RoleCounselor))
		return err
	})
	g.Go(func() (err error) {
		data.Sessions, err = s.bookings.ListSessions(ctx, caller)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("admin dashboard: %w", err)
	}
	return &data, nil
}

// common счётчик открытых чатов и уведомления, общие для студента и консультанта
func (s *DashboardService) common(ctx context.Context, g *errgroup.Group, caller model.Caller, openChats *int, notifications *[]*model.Notification, unread *int) {
	g.Go(func() (err error) {
		*openChats, err = repository.NewSessionRepository(s.db).CountOpenChats(ctx, caller.ID)
		return err
	})
	g.Go(func() (err error) {
		*notifications, err = s.notifications.List(ctx, caller)
		return err
	})
	g.Go(func() (err error) {
		*unread, err = s.notifications.UnreadCount(ctx, caller)
		return err
	})
}
