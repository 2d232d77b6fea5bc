package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port     string
	DBDSN    string
	LogFile  string
	SeedDemo bool

	SiteBaseURL   string
	SiteLanguages []string
	SitemapTTL    time.Duration
	RedisAddr     string

	TelegramBotToken string
	TelegramChatID   string
	TelegramAPIBase  string
	NotifyTimeout    time.Duration
	NotifyTimezone   string

	NATSURL     string
	NATSSubject string

	AdminTokenHash  string
	CheckoutRateMax int
	ShutdownTimeout time.Duration
}

func Load() Config {
	cfg := Config{
		Port:     getEnv("PORT", "8080"),
		DBDSN:    getEnv("DB_DSN", "kiraska.db"),
		LogFile:  getEnv("LOG_FILE", "./kiraska.log"),
		SeedDemo: getEnvBool("SEED_DEMO", true),

		SiteBaseURL:   strings.TrimRight(getEnv("SITE_BASE_URL", "https://kiraska.uz"), "/"),
		SiteLanguages: splitList(getEnv("SITE_LANGUAGES", "uz,ru,ky,tj,zh")),
		SitemapTTL:    getEnvDuration("SITEMAP_TTL", time.Hour),
		RedisAddr:     os.Getenv("REDIS_ADDR"),

		// Fallback destination; the site_settings table wins when it has a pair.
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
		TelegramAPIBase:  strings.TrimRight(getEnv("TELEGRAM_API_BASE", "https://api.telegram.org"), "/"),
		NotifyTimeout:    getEnvDuration("NOTIFY_TIMEOUT", 5*time.Second),
		NotifyTimezone:   getEnv("NOTIFY_TIMEZONE", "Asia/Tashkent"),

		NATSURL:     os.Getenv("NATS_URL"),
		NATSSubject: getEnv("NATS_SUBJECT", "orders.created"),

		AdminTokenHash:  os.Getenv("ADMIN_TOKEN_HASH"),
		CheckoutRateMax: getEnvInt("CHECKOUT_RATE_MAX", 20),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}

	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s SITE_BASE_URL=%s LANGS=%s REDIS=%t NATS=%t TELEGRAM_ENV=%t ADMIN=%t",
		cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.SiteBaseURL, strings.Join(cfg.SiteLanguages, ","),
		cfg.RedisAddr != "", cfg.NATSURL != "", cfg.TelegramBotToken != "" && cfg.TelegramChatID != "", cfg.AdminTokenHash != "")
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("[config] invalid int for %s: %q, using %d", key, v, def)
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("[config] invalid bool for %s: %q, using %t", key, v, def)
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("[config] invalid duration for %s: %q, using %s", key, v, def)
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
