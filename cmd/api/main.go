package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"portfolio-site/internal/auth"
	"portfolio-site/internal/config"
	"portfolio-site/internal/httpapi"
	"portfolio-site/internal/notify"
	"portfolio-site/internal/ratelimit"
	"portfolio-site/internal/store"
	"portfolio-site/internal/store/memory"
	"portfolio-site/internal/store/postgres"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	var st store.Store
	var closer func()

	if cfg.DatabaseURL != "" {
		pg, err := postgres.NewStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to init postgres store: %v", err)
		}
		st = pg
		closer = pg.Close
		log.Printf("using postgres store")
	} else {
		st = memory.NewStore()
		log.Printf("using memory store")
	}

	if closer != nil {
		defer closer()
	}

	var limiter auth.RateLimiter
	if cfg.RedisURL != "" {
		rl, err := ratelimit.NewLimiter(cfg.RedisURL, cfg.MaxRequestsPerHour)
		if err != nil {
			log.Fatalf("failed to init redis limiter: %v", err)
		}
		defer rl.Close()
		limiter = rl
		log.Printf("using redis rate limiter")
	}

	var alerts auth.Alerter
	if mailer := notify.NewMailer(cfg.SendgridAPIKey, cfg.AlertFromEmail, cfg.AlertToEmail); mailer != nil {
		alerts = mailer
	}

	sender := auth.NewWebhookSender(cfg.KakaoWebhookURL, cfg.PassWebhookURL)
	authsvc := auth.NewService(st, sender, auth.Options{
		SessionHours:       cfg.SessionHours,
		CodeTTLMinutes:     cfg.CodeTTLMinutes,
		CodeMaxAttempts:    cfg.CodeMaxAttempts,
		MaxRequestsPerHour: cfg.MaxRequestsPerHour,
		Limiter:            limiter,
		Alerts:             alerts,
	})

	go runAuthPurgeLoop(rootCtx, st)

	srv := httpapi.NewServer(cfg, st, authsvc)

	httpServer := &http.Server{
		Addr:              cfg.APIListenAddr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("api listening on %s", cfg.APIListenAddr())
		errCh <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Printf("shutdown requested")
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	cancelRoot()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(ctxShutdown)
}

// runAuthPurgeLoop drops expired access codes and sessions once a day. Codes
// older than a week are of no forensic interest; sessions go as soon as they
// are a day past expiry.
func runAuthPurgeLoop(ctx context.Context, st store.Store) {
	runOnce := func() {
		ctxPurge, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		now := time.Now().UTC()

		if n, err := st.PurgeCodesBefore(ctxPurge, now.Add(-7*24*time.Hour)); err != nil {
			log.Printf("code purge failed: %v", err)
		} else if n > 0 {
			log.Printf("purged %d expired access codes", n)
		}

		if n, err := st.PurgeSessionsBefore(ctxPurge, now.Add(-24*time.Hour)); err != nil {
			log.Printf("session purge failed: %v", err)
		} else if n > 0 {
			log.Printf("purged %d expired sessions", n)
		}
	}

	runOnce()

	t := time.NewTicker(24 * time.Hour)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			runOnce()
		}
	}
}
