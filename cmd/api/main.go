package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"order-scrapper/internal/app"
	"order-scrapper/internal/core/config"
	"order-scrapper/internal/core/logger"
	"order-scrapper/internal/core/metrics"
	"order-scrapper/internal/core/server"
	browserhandler "order-scrapper/internal/features/browser/handler"
	orderhandler "order-scrapper/internal/features/orders/handler"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
		zap.String("listing_url", cfg.Listing.URL),
		zap.Int("max_items", cfg.Scrape.MaxItems),
	)

	m := metrics.New()
	a, err := app.New(cfg, m)
	if err != nil {
		l.Fatal("Failed to wire application", zap.Error(err))
	}
	defer a.Close()
	l.Info("Run history", zap.Bool("enabled", a.HistoryEnabled()))

	sessionHdl := browserhandler.NewSessionHandler(a.Sessions)
	scrapeHdl := orderhandler.NewScrapeHandler(a.Scrapes)

	srv := server.New(cfg, m)

	// Register Routes
	srv.App.Post("/session", sessionHdl.Connect)
	srv.App.Get("/session", sessionHdl.Status)
	srv.App.Delete("/session", sessionHdl.Disconnect)
	srv.App.Post("/scrape", scrapeHdl.Scrape)
	srv.App.Get("/scrape/last", scrapeHdl.LastRun)

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop

		l.Info("Shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.App.ShutdownWithContext(ctx); err != nil {
			l.Warn("Server shutdown failed", zap.Error(err))
		}
	}()

	if err := srv.Run(); err != nil {
		l.Error("Server stopped", zap.Error(err))
	}
}
