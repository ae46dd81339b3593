package adapters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"order-scrapper/internal/core/config"
	"order-scrapper/internal/core/logger"
	"order-scrapper/internal/features/browser/domain"
	"order-scrapper/internal/features/browser/ports"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// RodConnector attaches to a running Chrome through the DevTools protocol using go-rod.
type RodConnector struct {
	navigationTimeout time.Duration
	closeBrowser      bool
	preferURL         string
	logger            *zap.Logger
}

// NewRodConnector creates a connector. Tabs whose URL starts with preferURL are
// picked over other open tabs.
func NewRodConnector(cfg config.BrowserConfig, preferURL string) *RodConnector {
	return &RodConnector{
		navigationTimeout: cfg.NavigationTimeout,
		closeBrowser:      cfg.CloseOnRelease,
		preferURL:         preferURL,
		logger:            logger.Named("browser"),
	}
}

// Connect attaches to controlURL and takes control of one tab.
// The browser process is never launched here. The attach is bounded by ctx;
// the returned session is not.
func (c *RodConnector) Connect(ctx context.Context, controlURL string) (ports.Session, error) {
	if controlURL == "" {
		return nil, &domain.ConnectionError{Endpoint: controlURL, Err: errors.New("empty control URL")}
	}
	if err := ctx.Err(); err != nil {
		return nil, &domain.ConnectionError{Endpoint: controlURL, Err: err}
	}

	// The session outlives the request that opened it.
	sessCtx, cancel := context.WithCancel(context.Background())

	done := make(chan attachResult, 1)
	go func() {
		browser, page, err := c.attach(sessCtx, controlURL)
		done <- attachResult{browser: browser, page: page, err: err}
	}()

	var res attachResult
	select {
	case res = <-done:
	case <-ctx.Done():
		// Cancelling sessCtx aborts the dial and any pending CDP call.
		cancel()
		return nil, &domain.ConnectionError{Endpoint: controlURL, Err: fmt.Errorf("attach did not complete: %w", ctx.Err())}
	}
	if res.err != nil {
		cancel()
		return nil, &domain.ConnectionError{Endpoint: controlURL, Err: res.err}
	}

	c.logger.Info("Attached to browser", zap.String("control_url", controlURL))

	return &rodSession{
		browser:           res.browser,
		page:              res.page,
		navigationTimeout: c.navigationTimeout,
		closeBrowser:      c.closeBrowser,
		cancel:            cancel,
		logger:            c.logger,
	}, nil
}

type attachResult struct {
	browser *rod.Browser
	page    *rod.Page
	err     error
}

// attach dials the DevTools endpoint and picks the controlled tab.
func (c *RodConnector) attach(ctx context.Context, controlURL string) (*rod.Browser, *rod.Page, error) {
	browser := rod.New().Context(ctx).ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, nil, err
	}

	page, err := c.pickPage(browser)
	if err != nil {
		return nil, nil, err
	}
	return browser, page, nil
}

// pickPage returns the tab showing preferURL, else the first open tab, else a new one.
func (c *RodConnector) pickPage(browser *rod.Browser) (*rod.Page, error) {
	pages, err := browser.Pages()
	if err != nil {
		return nil, fmt.Errorf("failed to list tabs: %w", err)
	}

	if c.preferURL != "" {
		for _, p := range pages {
			info, err := p.Info()
			if err != nil {
				continue
			}
			if strings.HasPrefix(info.URL, c.preferURL) {
				return p, nil
			}
		}
	}

	if len(pages) > 0 {
		return pages[0], nil
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open a tab: %w", err)
	}
	return page, nil
}
