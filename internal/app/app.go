// Package app assembles the browser session and scrape services from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"order-scrapper/internal/core/cache"
	"order-scrapper/internal/core/config"
	"order-scrapper/internal/core/logger"
	"order-scrapper/internal/core/metrics"
	browseradapters "order-scrapper/internal/features/browser/adapters"
	browserports "order-scrapper/internal/features/browser/ports"
	browserservice "order-scrapper/internal/features/browser/service"
	orderadapters "order-scrapper/internal/features/orders/adapters"
	"order-scrapper/internal/features/orders/domain"
	orderports "order-scrapper/internal/features/orders/ports"
	orderservice "order-scrapper/internal/features/orders/service"

	"go.uber.org/zap"
)

// App holds the wired services shared by the HTTP API and the CLI.
type App struct {
	Sessions *browserservice.SessionManager
	Scrapes  *orderservice.ScrapeService
	Metrics  *metrics.Metrics

	cache cache.Cache
}

// New wires the application against the real browser.
func New(cfg *config.AppConfig, m *metrics.Metrics) (*App, error) {
	return NewWithBrowser(cfg, m,
		browseradapters.NewEndpointResolver(cfg.Browser),
		browseradapters.NewRodConnector(cfg.Browser, cfg.Listing.URL),
	)
}

// NewWithBrowser wires the application with the given browser attach strategy.
func NewWithBrowser(cfg *config.AppConfig, m *metrics.Metrics, resolver browserports.EndpointResolver, connector browserports.Connector) (*App, error) {
	listing := ListingSelectors(cfg.Listing)
	if err := listing.Validate(); err != nil {
		return nil, fmt.Errorf("invalid listing configuration: %w", err)
	}
	detail := DetailSelectors(cfg.Detail)
	if err := detail.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detail configuration: %w", err)
	}

	sessions := browserservice.NewSessionManager(resolver, connector, browserservice.Options{
		ListingURL:      cfg.Listing.URL,
		ConnectTimeout:  cfg.Browser.ConnectTimeout,
		ReleaseAfterUse: cfg.Browser.ReleaseAfterScrape,
	}, m)

	a := &App{Sessions: sessions, Metrics: m}

	var history orderports.RunRepository
	if cfg.Redis.URL != "" {
		c, err := connectCache(cfg.Redis.URL)
		if err != nil {
			logger.Get().Warn("Run history disabled", zap.Error(err))
		} else {
			a.cache = c
			history = orderadapters.NewRedisRunRepository(c, cfg.Redis.RunHistoryTTL)
		}
	}

	runner := orderservice.NewScrapeRunner(
		orderservice.NewLinkCollector(),
		orderservice.NewOrderExtractor(detail),
		orderadapters.NewCSVRecordStore(),
		listing,
		cfg.Scrape.PersistAttempts,
		m,
	)
	a.Scrapes = orderservice.NewScrapeService(sessions, runner, history, domain.RunParams{
		MaxItems:   cfg.Scrape.MaxItems,
		OutputPath: cfg.Scrape.OutputPath,
	}, m)

	return a, nil
}

// HistoryEnabled reports whether run summaries are stored.
func (a *App) HistoryEnabled() bool {
	return a.cache != nil
}

// Close releases the browser session and the cache connection.
func (a *App) Close() {
	if err := a.Sessions.Shutdown(); err != nil {
		logger.Get().Warn("Failed to release browser session", zap.Error(err))
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logger.Get().Warn("Failed to close cache", zap.Error(err))
		}
	}
}

// ListingSelectors maps the listing configuration to the collector's selectors.
func ListingSelectors(cfg config.ListingConfig) domain.ListingSelectors {
	return domain.ListingSelectors{
		Ready:        cfg.ReadySelector,
		Link:         cfg.LinkSelector,
		ReadyTimeout: cfg.ReadyTimeout,
	}
}

// DetailSelectors maps the detail configuration to the extractor's selectors.
func DetailSelectors(cfg config.DetailConfig) domain.DetailSelectors {
	return domain.DetailSelectors{
		Ready:        cfg.ReadySelector,
		ReadyTimeout: cfg.ReadyTimeout,
		Fields: map[domain.Field]string{
			domain.FieldOrderNumber:  cfg.OrderNumberSelector,
			domain.FieldCustomerName: cfg.CustomerNameSelector,
			domain.FieldPhoneNumber:  cfg.PhoneSelector,
			domain.FieldEmailAddress: cfg.EmailSelector,
		},
		OrderNumberPrefix: cfg.OrderNumberPrefix,
	}
}

func connectCache(url string) (cache.Cache, error) {
	c, err := cache.NewRedisAdapter(url)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis unreachable: %w", err)
	}
	return c, nil
}
