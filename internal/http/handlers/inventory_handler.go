package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"kiraska/internal/repos"
	"kiraska/internal/services"
	"kiraska/internal/validate"
)

type InventoryHandler struct {
	Stock *services.StockService
}

// GET /api/v1/availability?productId=
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.Query("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing productId"})
	}
	avail, err := h.Stock.Availability(c.UserContext(), productID)
	if errors.Is(err, repos.ErrProductNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}
	if err != nil {
		return err
	}
	return c.JSON(avail)
}
