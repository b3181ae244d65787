package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/auth"
	"github.com/Freeeeeet/counseling_scheduler/internal/config"
	"github.com/Freeeeeet/counseling_scheduler/internal/controller"
	"github.com/Freeeeeet/counseling_scheduler/internal/controller/handlers"
	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/notify"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Run поднимает пул, миграции, сервисы и HTTP-сервер и блокируется до отмены ctx
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	logger.Info("Connected to database")

	migrator, err := NewMigrator(pool, cfg.MigrationsDir, logger)
	if err != nil {
		return err
	}
	err = migrator.Up(ctx)
	if closeErr := migrator.Close(); closeErr != nil {
		logger.Warn("Failed to close migrator", zap.Error(closeErr))
	}
	if err != nil {
		return err
	}

	redisClient, err := newRedisClient(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	unreadCache := notify.NewUnreadCache(redisClient, cfg.UnreadCacheTTL, logger)

	var forwarder notify.Forwarder
	var botController *controller.BotController
	if cfg.TelegramEnabled() {
		telegramBot, err := notify.NewTelegramBot(cfg.TelegramToken)
		if err != nil {
			return err
		}
		forwarder = notify.NewTelegramForwarder(telegramBot, cfg.PublicURL)
		botController = controller.NewBotController(telegramBot, logger)
	}
	sink := notify.NewSink(pool, unreadCache, forwarder, logger)

	loc := cfg.Location()
	availabilityService := service.NewAvailabilityService(pool, loc, logger)
	bookingService := service.NewBookingService(pool, sink, service.BookingOptions{
		Location:            loc,
		RequireDeclaredSlot: cfg.RequireDeclaredSlot,
	}, logger)
	cancellationService := service.NewCancellationService(pool, sink, logger)
	chatService := service.NewChatService(pool, sink, logger)
	notificationService := service.NewNotificationService(pool, unreadCache, logger)
	noteService := service.NewNoteService(pool, logger)
	userService := service.NewUserService(pool, logger)
	dashboardService := service.NewDashboardService(pool, bookingService, availabilityService,
		notificationService, noteService, userService)

	server := controller.NewHTTPServer(controller.Handlers{
		Sessions:       handlers.NewSessionHandler(bookingService, cancellationService, loc, logger),
		Availability:   handlers.NewAvailabilityHandler(availabilityService, logger),
		Chats:          handlers.NewChatHandler(chatService, logger),
		Notifications:  handlers.NewNotificationHandler(notificationService, logger),
		Dashboard:      handlers.NewDashboardHandler(dashboardService, logger),
		Users:          handlers.NewUserHandler(userService, logger),
		StudentNotes:   handlers.NewNoteHandler(noteService, model.RoleStudent, logger),
		CounselorNotes: handlers.NewNoteHandler(noteService, model.RoleCounselor, logger),
	}, auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer), logger)

	scheduler := NewScheduler(availabilityService, cfg.TemplateRefreshInterval, logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Listen(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return scheduler.Run(ctx)
	})

	if botController != nil {
		g.Go(func() error {
			if err := botController.RegisterHandlers(ctx); err != nil {
				// без меню бот всё равно отвечает на команды
				logger.Warn("Telegram commands menu not set", zap.Error(err))
			}
			return botController.Start(ctx)
		})
	}

	err = g.Wait()
	// пул закрывается после того, как допишутся уведомления
	sink.Wait()

	return err
}

// newRedisClient nil, если REDIS_ADDR не задан
func newRedisClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	if !cfg.RedisEnabled() {
		logger.Info("Redis disabled, unread counters are read from the database")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("Connected to redis", zap.String("addr", cfg.RedisAddr))
	return client, nil
}
