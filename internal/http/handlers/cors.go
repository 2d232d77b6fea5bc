package handlers

import "github.com/gofiber/fiber/v2"

const corsAllowHeaders = "authorization, x-client-info, apikey, content-type"

// CORS opens every route to any origin and answers preflight with an empty 200.
func CORS() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
		c.Set(fiber.HeaderAccessControlAllowHeaders, corsAllowHeaders)
		if c.Method() == fiber.MethodOptions {
			c.Set(fiber.HeaderAccessControlAllowMethods, "GET, HEAD, POST, OPTIONS")
			return c.Status(fiber.StatusOK).Send(nil)
		}
		return c.Next()
	}
}
