package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"time"
	_ "time/tzdata"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"kiraska/internal/cache"
	"kiraska/internal/config"
	"kiraska/internal/http/handlers"
	"kiraska/internal/notify"
	"kiraska/internal/repos"
	"kiraska/internal/services"
	"kiraska/internal/sitemap"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.SeedDemo {
		if err := repos.SeedDemo(context.Background(), db); err != nil {
			log.Fatalf("seed: %v", err)
		}
	}

	// ---------- Notifications ----------
	loc, err := time.LoadLocation(cfg.NotifyTimezone)
	if err != nil {
		log.Printf("[warn] unknown NOTIFY_TIMEZONE %q, using UTC", cfg.NotifyTimezone)
		loc = time.UTC
	}
	creds := notify.SettingsThenEnv(repos.NewSettingsRepo(db), notify.Credentials{
		BotToken: cfg.TelegramBotToken,
		ChatID:   cfg.TelegramChatID,
	})
	notifiers := notify.Multi{notify.NewTelegram(creds, cfg.TelegramAPIBase, loc)}

	var nc *nats.Conn
	if cfg.NATSURL != "" {
		nc, err = nats.Connect(cfg.NATSURL,
			nats.Name("kiraska"),
			nats.RetryOnFailedConnect(true),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(time.Second),
		)
		if err != nil {
			log.Printf("[warn] nats connect %s: %v (order events disabled)", cfg.NATSURL, err)
		} else {
			notifiers = append(notifiers, notify.NewEvents(nc, cfg.NATSSubject))
			log.Printf("[nats] publishing order events on %s", cfg.NATSSubject)
		}
	}

	// ---------- Sitemap cache ----------
	var rdb *redis.Client
	var sitemapCache sitemap.Cache
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		rdb, err = cache.Dial(ctx, cfg.RedisAddr)
		cancel()
		if err != nil {
			log.Printf("[warn] %v (sitemap cache disabled)", err)
		} else {
			sitemapCache = cache.NewRedis(rdb, "kiraska:", cfg.SitemapTTL)
		}
	}

	var notifier services.Notifier = notifiers
	deps := handlers.NewDeps(db, cfg, notifier, sitemapCache)
	app := handlers.NewApp(deps, cfg)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("[http] listener stopped: %v", err)
		}
	}()
	log.Printf("[http] listening on :%s", cfg.Port)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			// in-flight checkouts finish before their dependencies go away
			"kiraska": func(ctx context.Context) error {
				log.Println("[shutdown] draining http")
				errs := []error{app.ShutdownWithContext(ctx)}
				if nc != nil {
					errs = append(errs, nc.Drain())
				}
				if rdb != nil {
					errs = append(errs, rdb.Close())
				}
				errs = append(errs, db.Close())
				return errors.Join(errs...)
			},
		},
	)
	exitCode := <-wait
	log.Printf("[shutdown] exited with code %d", exitCode)
	os.Exit(exitCode)
}
