package handlers

import (
	"github.com/gofiber/fiber/v2"

	"kiraska/internal/cache"
)

type cacheStats interface {
	Stats() cache.StatsSnapshot
}

type HealthHandler struct {
	Cache cacheStats // optional
}

// GET /healthz
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	out := fiber.Map{"ok": true}
	if h.Cache != nil {
		out["sitemap_cache"] = h.Cache.Stats()
	}
	return c.JSON(out)
}
