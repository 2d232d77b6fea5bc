package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"kiraska/internal/config"
	applog "kiraska/internal/log"
)

const bodyLimit = 1 << 20 // 1 MiB

// ErrorHandler answers JSON and never leaks internal error text.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	applog.Error(c, "server.error", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

// NewApp builds the fiber app with middleware and every route.
func NewApp(deps *Deps, cfg config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "kiraska",
		BodyLimit:    bodyLimit,
		ErrorHandler: ErrorHandler,
		Views:        Views(),
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(func(c *fiber.Ctx) error {
		if rid, ok := c.Locals("requestid").(string); ok {
			c.SetUserContext(applog.WithRequestID(c.UserContext(), rid))
		}
		return c.Next()
	})
	app.Use(logger.New(logger.Config{Output: log.Writer()}))
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(CORS())

	// ---------- Public API ----------
	api := app.Group("/api/v1")
	ordersRoute := []fiber.Handler{}
	if cfg.CheckoutRateMax > 0 {
		ordersRoute = append(ordersRoute, limiter.New(limiter.Config{
			Max:        cfg.CheckoutRateMax,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP() + "|checkout"
			},
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.checkout.hit", nil)
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many orders, please retry in a minute"})
			},
		}))
	}
	api.Post("/orders", append(ordersRoute, deps.OrderHandler.Place)...)
	api.Get("/availability", limiter.New(limiter.Config{
		Max:        15,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.availability.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}), deps.InventoryHandler.Check)

	app.Get("/sitemap.xml", deps.SitemapHandler.Serve)
	app.All("/sitemap.xml", deps.SitemapHandler.MethodNotAllowed)

	// ---------- Admin ----------
	admin := app.Group("/admin", RequireAdmin(cfg.AdminTokenHash))
	admin.Get("/inventory", deps.AdminHandler.InventoryPage)
	admin.Get("/api/orders", deps.AdminHandler.ListOrders)
	admin.Get("/api/orders/:id", deps.AdminHandler.GetOrder)
	admin.Post("/api/orders/:id/status", deps.AdminHandler.UpdateOrderStatus)
	admin.Post("/api/inventory/:id/adjust", deps.AdminHandler.AdjustStock)
	admin.Get("/api/inventory/:id/history", deps.AdminHandler.StockHistory)
	admin.Put("/api/settings/telegram", deps.AdminHandler.SetTelegram)

	// Health & 404
	app.Get("/healthz", deps.HealthHandler.Check)
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	})
	return app
}
