package handlers

import (
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	applog "kiraska/internal/log"
)

// RequireAdmin accepts the operator token as "Bearer <token>" or as the
// password of HTTP Basic auth, and checks it against a bcrypt hash. An empty
// hash locks the back-office entirely.
func RequireAdmin(tokenHash string) fiber.Handler {
	hash := []byte(tokenHash)
	return func(c *fiber.Ctx) error {
		tok := adminToken(c)
		if tok == "" || len(hash) == 0 || bcrypt.CompareHashAndPassword(hash, []byte(tok)) != nil {
			applog.Security(c, "access.denied.admin", map[string]any{"has_token": tok != ""})
			c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="kiraska admin"`)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}
		c.Locals("admin", true)
		return c.Next()
	}
}

func adminToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(tok)
	}
	if enc, ok := strings.CutPrefix(h, "Basic "); ok {
		raw, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return ""
		}
		_, pass, _ := strings.Cut(string(raw), ":")
		return pass
	}
	return ""
}
