package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Freeeeeet/counseling_scheduler/internal/controller/middleware"
	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func newTestApp(caller model.Caller) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.CallerKey, caller)
		return c.Next()
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	payload := map[string]any{}
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		_ = json.Unmarshal(data, &payload)
	}

	return resp, payload
}

var (
	testStudent   = model.Caller{ID: 42, Role: model.RoleStudent, Name: "Alice"}
	testCounselor = model.Caller{ID: 7, Role: model.RoleCounselor, Name: "Bob"}
	testAdmin     = model.Caller{ID: 1, Role: model.RoleAdmin, Name: "Root"}
)

var testLogger = zap.NewNop()
