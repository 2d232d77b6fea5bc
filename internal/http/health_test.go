package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"kiraska/internal/cache"
	"kiraska/internal/http/handlers"
)

type fixedStats cache.StatsSnapshot

func (f fixedStats) Stats() cache.StatsSnapshot { return cache.StatsSnapshot(f) }

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, httptest.NewRequest("GET", "/healthz", nil))
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"ok":true`) {
		t.Fatalf("healthz: %d %s", resp.StatusCode, body)
	}
	if strings.Contains(string(body), "sitemap_cache") {
		t.Fatalf("no cache configured, got %s", body)
	}
}

func TestHealthzReportsCacheStats(t *testing.T) {
	app := fiber.New()
	h := &handlers.HealthHandler{Cache: fixedStats{Hits: 3, Misses: 1, Sets: 1, HitRate: 0.75}}
	app.Get("/healthz", h.Check)

	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil))
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		OK    bool                `json:"ok"`
		Cache cache.StatsSnapshot `json:"sitemap_cache"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if !out.OK || out.Cache.Hits != 3 || out.Cache.HitRate != 0.75 {
		t.Fatalf("unexpected body: %+v", out)
	}
}
