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

	"portfolio-site/internal/config"
	"portfolio-site/internal/gateway"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "http://localhost" + cfg.APIListenAddr()
	}

	srv, err := gateway.NewServer(cfg)
	if err != nil {
		log.Fatalf("failed to init gateway: %v", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.GatewayListenAddr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("gateway listening on %s (auth enabled: %v)", cfg.GatewayListenAddr(), cfg.AuthEnabled)
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

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(ctxShutdown)
}
