// Package notify tells operators and other systems about new orders.
// Every notifier here is best-effort: callers log the error and move on.
package notify

import (
	"context"
	"errors"
	"fmt"

	"kiraska/internal/domain"
	applog "kiraska/internal/log"
)

type Notifier interface {
	Notify(ctx context.Context, o domain.Order) error
}

// Multi fans an order out to every notifier, even after one fails.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, o domain.Order) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, o); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", n, err))
		}
	}
	return errors.Join(errs...)
}

// Credentials address one Telegram chat through one bot.
type Credentials struct {
	BotToken string
	ChatID   string
}

func (c Credentials) complete() bool { return c.BotToken != "" && c.ChatID != "" }

// CredentialSource resolves where to deliver. ok is false when nothing is configured.
type CredentialSource func(ctx context.Context) (c Credentials, ok bool)

type SettingsReader interface {
	Get(ctx context.Context, name string) (string, bool, error)
}

const (
	SettingBotToken = "telegram_bot_token"
	SettingChatID   = "telegram_chat_id"
)

// SettingsThenEnv prefers a complete pair from site settings and falls back
// to the pair read from the environment at startup. Half a pair is ignored.
func SettingsThenEnv(settings SettingsReader, env Credentials) CredentialSource {
	return func(ctx context.Context) (Credentials, bool) {
		if settings != nil {
			var c Credentials
			var err error
			if c.BotToken, _, err = settings.Get(ctx, SettingBotToken); err == nil {
				c.ChatID, _, err = settings.Get(ctx, SettingChatID)
			}
			if err != nil {
				applog.WarnCtx(ctx, "notify.settings.read.fail", map[string]any{"err": err.Error()})
			} else if c.complete() {
				return c, true
			}
		}
		return env, env.complete()
	}
}

// Static always answers with the same pair.
func Static(c Credentials) CredentialSource {
	return func(context.Context) (Credentials, bool) { return c, c.complete() }
}
