package handlers_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"kiraska/internal/http/handlers"
)

// friendly error surface, no internal leakage
func TestErrorHandlerHidesInternals(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Get("/err", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusInternalServerError, "db timeout: secret trace")
	})
	app.Get("/bad", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadRequest, "bad input")
	})

	var body string
	entries := captureLogs(t, func() {
		resp, err := app.Test(httptest.NewRequest("GET", "/err", nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != fiber.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", resp.StatusCode)
		}
		b, _ := io.ReadAll(resp.Body)
		body = string(b)
	})
	if !strings.Contains(body, "Internal server error") {
		t.Fatalf("generic message missing; body=%s", body)
	}
	if strings.Contains(body, "db timeout") || strings.Contains(body, "secret") {
		t.Fatalf("internal details leaked to user; body=%s", body)
	}
	if _, ok := findLog(entries, "server.error"); !ok {
		t.Fatal("expected server.error log")
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/bad", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 passthrough, got %d", resp.StatusCode)
	}
}

func TestStoreFailureIs500(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.db.Exec(`DROP TABLE order_items; DROP TABLE orders`); err != nil {
		t.Fatal(err)
	}
	resp, body := env.do(t, adminReq("GET", "/admin/api/orders", nil))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if strings.Contains(string(body), "no such table") {
		t.Fatalf("sql error leaked: %s", body)
	}
}

func TestUnknownRouteJSON404(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, httptest.NewRequest("GET", "/nope", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"error":"Not found"`) {
		t.Fatalf("unexpected body: %s", body)
	}
}
