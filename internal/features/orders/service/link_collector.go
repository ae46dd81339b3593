package service

import (
	"context"
	"fmt"
	"strings"

	"order-scrapper/internal/core/logger"
	browserports "order-scrapper/internal/features/browser/ports"
	"order-scrapper/internal/features/orders/domain"

	"go.uber.org/zap"
)

// LinkCollector reads the order references shown on the listing page.
type LinkCollector struct {
	logger *zap.Logger
}

// NewLinkCollector creates a new LinkCollector.
func NewLinkCollector() *LinkCollector {
	return &LinkCollector{logger: logger.Named("link_collector")}
}

// Collect waits for the listing to render and returns the href of every link
// in document order. Links without an href are dropped.
func (c *LinkCollector) Collect(ctx context.Context, session browserports.Session, sel domain.ListingSelectors) ([]domain.OrderReference, error) {
	if _, err := session.WaitForElement(ctx, sel.Ready, sel.ReadyTimeout); err != nil {
		return nil, &domain.ListingError{Selector: sel.Ready, Err: err}
	}

	links, err := session.FindAll(ctx, sel.Link)
	if err != nil {
		return nil, fmt.Errorf("failed to find order links: %w", err)
	}

	refs := make([]domain.OrderReference, 0, len(links))
	for i, link := range links {
		href, err := link.Attribute("href")
		if err != nil {
			c.logger.Warn("Failed to read link href", zap.Int("position", i+1), zap.Error(err))
			continue
		}
		if href == nil || strings.TrimSpace(*href) == "" {
			c.logger.Debug("Skipping link without href", zap.Int("position", i+1))
			continue
		}
		refs = append(refs, domain.OrderReference(strings.TrimSpace(*href)))
	}

	c.logger.Info("Collected order links", zap.Int("links", len(links)), zap.Int("references", len(refs)))
	return refs, nil
}
