package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"

	"kiraska/internal/domain"
	applog "kiraska/internal/log"
)

// Telegram posts an order summary to a chat through the Bot API.
type Telegram struct {
	Creds   CredentialSource
	APIBase string
	Loc     *time.Location
	Timeout time.Duration
}

func NewTelegram(creds CredentialSource, apiBase string, loc *time.Location) *Telegram {
	if apiBase == "" {
		apiBase = "https://api.telegram.org"
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Telegram{Creds: creds, APIBase: strings.TrimRight(apiBase, "/"), Loc: loc, Timeout: 5 * time.Second}
}

type sendMessage struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiReply struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *Telegram) Notify(ctx context.Context, o domain.Order) error {
	creds, ok := t.Creds(ctx)
	if !ok {
		applog.InfoCtx(ctx, "notify.telegram.skip", map[string]any{"order_id": o.ID})
		return nil
	}

	timeout := t.Timeout
	if dl, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(dl))
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}

	a := fiber.Post(t.APIBase + "/bot" + creds.BotToken + "/sendMessage")
	a.Timeout(timeout)
	a.JSON(sendMessage{ChatID: creds.ChatID, Text: t.Format(o), ParseMode: "HTML", DisableWebPagePreview: true})
	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		// the token is part of the URL; keep it out of the error
		return fmt.Errorf("telegram send: %s", strings.ReplaceAll(errs[0].Error(), creds.BotToken, "***"))
	}

	var reply apiReply
	_ = json.Unmarshal(body, &reply)
	if code != fiber.StatusOK || !reply.OK {
		return fmt.Errorf("telegram send: status %d: %s", code, reply.Description)
	}
	applog.InfoCtx(ctx, "notify.telegram.sent", map[string]any{"order_id": o.ID})
	return nil
}

// Format renders the order as Telegram HTML. Customer text is escaped.
func (t *Telegram) Format(o domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>New order #%s</b>\n\n", shortID(o.ID))
	fmt.Fprintf(&b, "<b>Customer:</b> %s\n", html.EscapeString(o.CustomerName))
	fmt.Fprintf(&b, "<b>Phone:</b> %s\n", html.EscapeString(o.Phone))
	fmt.Fprintf(&b, "<b>Address:</b> %s\n", html.EscapeString(o.Address))
	if o.Notes != "" {
		fmt.Fprintf(&b, "<b>Notes:</b> %s\n", html.EscapeString(o.Notes))
	}
	b.WriteString("\n<b>Items:</b>\n")
	for i, it := range o.Items {
		fmt.Fprintf(&b, "%d. %s × %d = %s so'm\n", i+1, html.EscapeString(it.Name), it.Quantity, FormatMoney(it.Subtotal()))
	}
	fmt.Fprintf(&b, "\n<b>Total:</b> %s so'm\n", FormatMoney(o.TotalAmount))
	fmt.Fprintf(&b, "<b>Time:</b> %s", o.CreatedAt.In(t.Loc).Format("02.01.2006 15:04"))
	return b.String()
}

// FormatMoney groups thousands and keeps at most two decimals: 1,234,567.5 -> "1,234,567.50".
func FormatMoney(m domain.Money) string {
	m = m.Round(2)
	whole := m.Truncate(0)
	s := humanize.Comma(whole.IntPart())
	if frac := m.Sub(whole).Abs(); !frac.IsZero() {
		s += strings.TrimPrefix(frac.StringFixed(2), "0")
	}
	if m.IsNegative() && whole.IsZero() {
		s = "-" + s
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
