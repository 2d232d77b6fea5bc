package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "kiraska/internal/log"
	"kiraska/internal/sitemap"
)

type SitemapHandler struct {
	Gen *sitemap.Generator
}

// GET|HEAD /sitemap.xml
func (h *SitemapHandler) Serve(c *fiber.Ctx) error {
	b, err := h.Gen.XML(c.UserContext())
	if err != nil {
		applog.Error(c, "sitemap.build.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not build sitemap"})
	}
	c.Set(fiber.HeaderContentType, "application/xml; charset=utf-8")
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	return c.Send(b)
}

// MethodNotAllowed answers any other verb on the route.
func (h *SitemapHandler) MethodNotAllowed(c *fiber.Ctx) error {
	c.Set(fiber.HeaderAllow, "GET, HEAD, OPTIONS")
	return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{"error": "Method not allowed"})
}
