package controller

import (
	"context"
	"errors"

	"github.com/Freeeeeet/counseling_scheduler/internal/controller/handlers"
	"github.com/Freeeeeet/counseling_scheduler/internal/controller/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// Handlers все HTTP-обработчики API
type Handlers struct {
	Sessions       *handlers.SessionHandler
	Availability   *handlers.AvailabilityHandler
	Chats          *handlers.ChatHandler
	Notifications  *handlers.NotificationHandler
	Dashboard      *handlers.DashboardHandler
	Users          *handlers.UserHandler
	StudentNotes   *handlers.NoteHandler
	CounselorNotes *handlers.NoteHandler
}

// HTTPServer fiber-приложение с маршрутами /api
type HTTPServer struct {
	app    *fiber.App
	logger *zap.Logger
}

func NewHTTPServer(h Handlers, tokens middleware.TokenParser, logger *zap.Logger) *HTTPServer {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"message": fiberMessage(code, err)})
		},
	})

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(middleware.RequestLogger(logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	registerRoutes(app, h, tokens)

	return &HTTPServer{app: app, logger: logger}
}

func fiberMessage(code int, err error) string {
	if code >= fiber.StatusInternalServerError {
		return "Internal server error"
	}
	return err.Error()
}

func registerRoutes(app *fiber.App, h Handlers, tokens middleware.TokenParser) {
	api := app.Group("/api", middleware.AuthRequired(tokens))

	sessions := api.Group("/sessions")
	sessions.Post("/", h.Sessions.RequestSession)
	sessions.Get("/", h.Sessions.ListSessions)
	sessions.Get("/:id", h.Sessions.GetSession)
	sessions.Put("/:id/status", h.Sessions.SetStatus)
	sessions.Put("/:id/reschedule", h.Sessions.Reschedule)
	sessions.Post("/:id/request-cancellation", h.Sessions.RequestCancellation)
	sessions.Post("/:id/approve-cancellation", h.Sessions.ApproveCancellation)

	api.Get("/counselors/:id/availability", h.Availability.GetAvailability)
	api.Get("/counselors/:id/availability/week.png", h.Availability.WeekImage)
	api.Post("/counselor/availability", h.Availability.SetDayAvailability)
	api.Put("/counselor/settings", h.Availability.SaveSettings)

	chats := api.Group("/chats/:sessionId")
	chats.Get("/messages", h.Chats.ListMessages)
	chats.Post("/messages", h.Chats.SendMessage)
	chats.Put("/status", h.Chats.SetChatStatus)

	api.Get("/notifications", h.Notifications.List)
	api.Post("/notifications/mark-all-read", h.Notifications.MarkAllRead)

	api.Get("/dashboard/data", h.Dashboard.Data)

	api.Get("/profile", h.Users.Me)
	api.Put("/profile", h.Users.UpdateProfile)

	users := api.Group("/users")
	users.Get("/", h.Users.ListUsers)
	users.Post("/", h.Users.CreateUser)
	users.Put("/:id", h.Users.UpdateUser)
	users.Delete("/:id", h.Users.DeleteUser)

	registerNotes(api.Group("/notes"), h.StudentNotes)
	registerNotes(api.Group("/counselor/notes"), h.CounselorNotes)
}

func registerNotes(group fiber.Router, h *handlers.NoteHandler) {
	group.Get("/", h.List)
	group.Post("/", h.Create)
	group.Put("/:id", h.Update)
	group.Delete("/:id", h.Delete)
}

// App для тестов маршрутов
func (s *HTTPServer) App() *fiber.App {
	return s.app
}

// Listen блокируется до Shutdown
func (s *HTTPServer) Listen(addr string) error {
	s.logger.Info("HTTP server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
