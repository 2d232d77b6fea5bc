package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"kiraska/internal/domain"
	applog "kiraska/internal/log"
	"kiraska/internal/notify"
	"kiraska/internal/repos"
	"kiraska/internal/services"
	"kiraska/internal/validate"
)

type AdminHandler struct {
	OrderRepo *repos.OrderRepo
	Stock     *services.StockService
	Settings  *repos.SettingsRepo
}

// GET /admin/api/orders?status=&limit=
func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	var status domain.OrderStatus
	if s := c.Query("status"); s != "" {
		st, err := domain.ParseOrderStatus(s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown status"})
		}
		status = st
	}
	ords, err := h.OrderRepo.List(c.UserContext(), status, c.QueryInt("limit", 100))
	if err != nil {
		applog.Error(c, "admin.orders.list.fail", err, nil)
		return err
	}
	return c.JSON(fiber.Map{"orders": ords})
}

// GET /admin/api/orders/:id
func (h *AdminHandler) GetOrder(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}
	o, err := h.OrderRepo.Get(c.UserContext(), id)
	if errors.Is(err, repos.ErrOrderNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	if err != nil {
		return err
	}
	return c.JSON(o)
}

// POST /admin/api/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	var body struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	status, err := domain.ParseOrderStatus(body.Status)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown status"})
	}
	switch err := h.OrderRepo.UpdateStatus(c.UserContext(), id, status); {
	case errors.Is(err, repos.ErrOrderNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	case err != nil:
		applog.Error(c, "admin.orders.update.fail", err, map[string]any{"order_id": id})
		return err
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": string(status)})
	return c.JSON(fiber.Map{"success": true, "status": status})
}

// POST /admin/api/inventory/:id/adjust
func (h *AdminHandler) AdjustStock(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}
	var body struct {
		Type     string `json:"type" form:"type"`
		Quantity int    `json:"quantity" form:"quantity"`
		Notes    string `json:"notes" form:"notes"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	typ, err := domain.ParseStockChangeType(body.Type)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown change type"})
	}
	notes, ok := validate.Notes(body.Notes)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "notes too long"})
	}

	change, err := h.Stock.Adjust(c.UserContext(), pid, typ, body.Quantity, notes)
	switch {
	case errors.Is(err, services.ErrInvalidAdjustment), errors.Is(err, repos.ErrStockOverflow):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, repos.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	case err != nil:
		applog.Error(c, "admin.inventory.adjust.fail", err, map[string]any{"product": pid})
		return err
	}
	applog.Audit(c, "admin.inventory.adjust", map[string]any{
		"product": pid, "type": string(typ), "applied": change.Applied(), "after": change.After,
	})
	return c.JSON(fiber.Map{"success": true, "before": change.Before, "after": change.After, "applied": change.Applied()})
}

// GET /admin/api/inventory/:id/history?limit=
func (h *AdminHandler) StockHistory(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}
	hist, err := h.Stock.History(c.UserContext(), pid, c.QueryInt("limit", 50))
	if errors.Is(err, repos.ErrProductNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"history": hist})
}

// PUT /admin/api/settings/telegram
func (h *AdminHandler) SetTelegram(c *fiber.Ctx) error {
	var body struct {
		BotToken string `json:"bot_token"`
		ChatID   string `json:"chat_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	ctx := c.UserContext()
	if err := h.Settings.Set(ctx, notify.SettingBotToken, body.BotToken); err != nil {
		return err
	}
	if err := h.Settings.Set(ctx, notify.SettingChatID, body.ChatID); err != nil {
		return err
	}
	// never log the token itself
	applog.Audit(c, "admin.settings.telegram", map[string]any{"configured": body.BotToken != "" && body.ChatID != ""})
	return c.JSON(fiber.Map{"success": true})
}

// GET /admin/inventory
func (h *AdminHandler) InventoryPage(c *fiber.Ctx) error {
	rows, sum, err := h.Stock.Overview(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.inventory.list.fail", err, nil)
		return err
	}
	ords, err := h.OrderRepo.List(c.UserContext(), "", 25)
	if err != nil {
		applog.Error(c, "admin.orders.list.fail", err, nil)
		return err
	}
	return render(c, "admin_inventory", fiber.Map{"Rows": rows, "Summary": sum, "Orders": ords})
}
