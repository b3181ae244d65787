package service

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

var (
	migrateOnce sync.Once
	// ошибка первой миграции видна всем следующим тестам
	migrateErr error
)

// integrationTestPool пул к тестовой базе из DB_DSN. Без DB_DSN тест пропускается
func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		t.Skip("DB_DSN is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	t.Cleanup(pool.Close)

	migrateOnce.Do(func() {
		db := stdlib.OpenDBFromPool(pool)
		defer db.Close()
		if migrateErr = goose.SetDialect("postgres"); migrateErr != nil {
			return
		}
		migrateErr = goose.UpContext(ctx, db, "../../migrations")
	})
	if migrateErr != nil {
		t.Fatalf("migrate: %v", migrateErr)
	}

	return pool
}

// recordingNotifier запоминает уведомления вместо отправки
type recordingNotifier struct {
	mu   sync.Mutex
	sent []recordedNotification
}

type recordedNotification struct {
	UserID  int64
	Message string
	Link    string
}

func (n *recordingNotifier) Notify(_ context.Context, userID int64, message, link string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, recordedNotification{UserID: userID, Message: message, Link: link})
}

func (n *recordingNotifier) last() (recordedNotification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return recordedNotification{}, false
	}
	return n.sent[len(n.sent)-1], true
}

func createTestUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool, role model.Role) model.Caller {
	t.Helper()

	user := &model.User{
		Name:         string(role) + " " + uuid.NewString()[:8],
		Email:        uuid.NewString() + "@test.local",
		PasswordHash: "x",
		Role:         role,
	}
	if role == model.RoleCounselor {
		active := model.CounselingStatusActive
		user.CounselingStatus = &active
	}

	if err := repository.NewUserRepository(pool).Create(ctx, user); err != nil {
		t.Fatalf("create %s: %v", role, err)
	}

	t.Cleanup(func() {
		err := base.InTx(context.Background(), pool, func(tx pgx.Tx) error {
			_, err := repository.NewUserRepository(tx).DeleteCascade(context.Background(), user.ID)
			return err
		})
		if err != nil {
			t.Errorf("cleanup user %d: %v", user.ID, err)
		}
	})

	return model.Caller{ID: user.ID, Role: role, Name: user.Name}
}

type integrationServices struct {
	notifier      *recordingNotifier
	availability  *AvailabilityService
	bookings      *BookingService
	cancellations *CancellationService
	chats         *ChatService
}

func newIntegrationServices(pool *pgxpool.Pool, requireDeclaredSlot bool) integrationServices {
	logger := zap.NewNop()
	notifier := &recordingNotifier{}

	return integrationServices{
		notifier:     notifier,
		availability: NewAvailabilityService(pool, time.UTC, logger),
		bookings: NewBookingService(pool, notifier, BookingOptions{
			Location:            time.UTC,
			RequireDeclaredSlot: requireDeclaredSlot,
		}, logger),
		cancellations: NewCancellationService(pool, notifier, logger),
		chats:         NewChatService(pool, notifier, logger),
	}
}

// futureDate дата через days дней от сегодня в UTC
func futureDate(days int) time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
}
