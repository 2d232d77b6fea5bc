package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "kiraska/internal/log"
	"kiraska/internal/services"
	"kiraska/internal/validate"
)

type OrderHandler struct {
	Checkout *services.CheckoutService
}

type orderLine struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Quantity json.Number `json:"quantity"`
	ImageURL string      `json:"image_url"`
}

type orderRequest struct {
	CustomerName string      `json:"customerName"`
	Phone        string      `json:"phone"`
	Address      string      `json:"address"`
	Notes        string      `json:"notes"`
	Products     []orderLine `json:"products"`
	TotalAmount  json.Number `json:"totalAmount"`
}

// POST /api/v1/orders
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	var req orderRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "body"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON body"})
	}

	name, okName := validate.Name(req.CustomerName)
	phone, okPhone := validate.Phone(req.Phone)
	addr, okAddr := validate.Address(req.Address)
	if req.CustomerName == "" || req.Phone == "" || req.Address == "" {
		applog.Security(c, "validation.fail", map[string]any{"field": "required"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing required fields"})
	}
	if !okName || !okPhone || !okAddr {
		applog.Security(c, "validation.fail", map[string]any{"name": okName, "phone": okPhone, "address": okAddr})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid customer details"})
	}
	notes, ok := validate.Notes(req.Notes)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "notes"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Notes are too long"})
	}
	if len(req.Products) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Products array is required"})
	}

	lines := make([]services.CartLine, 0, len(req.Products))
	for _, p := range req.Products {
		lines = append(lines, services.CartLine{
			ProductID:   p.ID,
			Quantity:    p.Quantity,
			ClientPrice: p.Price,
			ClientName:  p.Name,
		})
	}

	rc, err := h.Checkout.Place(c.UserContext(), services.PlaceRequest{
		CustomerName: name,
		Phone:        phone,
		Address:      addr,
		Notes:        notes,
		Lines:        lines,
		ClientTotal:  req.TotalAmount,
	})
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		applog.Security(c, "order.place.rejected", map[string]any{"details": verr.Details})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Order validation failed", "details": verr.Details})
	case errors.Is(err, services.ErrEmptyCart):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Products array is required"})
	case errors.Is(err, services.ErrOrderPersist):
		applog.Error(c, "order.place.persist", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create order"})
	case err != nil:
		return err
	}

	applog.Audit(c, "order.place", map[string]any{
		"order_id":     rc.OrderID,
		"server_total": rc.Total.String(),
		"client_total": rc.ClientTotal,
	})
	return c.JSON(fiber.Map{
		"success":     true,
		"orderId":     rc.OrderID,
		"totalAmount": json.Number(rc.Total.String()),
	})
}
