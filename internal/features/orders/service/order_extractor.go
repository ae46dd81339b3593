package service

import (
	"context"

	"order-scrapper/internal/core/logger"
	browserports "order-scrapper/internal/features/browser/ports"
	"order-scrapper/internal/features/orders/domain"

	"go.uber.org/zap"
)

// OrderExtractor turns one order detail page into an OrderRecord.
type OrderExtractor struct {
	selectors domain.DetailSelectors
	logger    *zap.Logger
}

// NewOrderExtractor creates an extractor for the given detail page layout.
func NewOrderExtractor(selectors domain.DetailSelectors) *OrderExtractor {
	return &OrderExtractor{
		selectors: selectors,
		logger:    logger.Named("order_extractor"),
	}
}

// Extract navigates to ref, waits for the detail page and reads every field.
// It never returns a partial record.
func (e *OrderExtractor) Extract(ctx context.Context, session browserports.Session, ref domain.OrderReference) (domain.OrderRecord, error) {
	if err := session.Navigate(ctx, string(ref)); err != nil {
		return domain.OrderRecord{}, &domain.ExtractionError{Reference: ref, Field: "navigate", Err: err}
	}

	if _, err := session.WaitForElement(ctx, e.selectors.Ready, e.selectors.ReadyTimeout); err != nil {
		return domain.OrderRecord{}, &domain.ExtractionError{Reference: ref, Field: "ready", Err: err}
	}

	values := make(map[domain.Field]string, len(domain.ExtractionOrder))
	for _, field := range domain.ExtractionOrder {
		el, err := session.FindOne(ctx, e.selectors.Fields[field])
		if err != nil {
			return domain.OrderRecord{}, &domain.ExtractionError{Reference: ref, Field: string(field), Err: err}
		}
		text, err := el.Text()
		if err != nil {
			return domain.OrderRecord{}, &domain.ExtractionError{Reference: ref, Field: string(field), Err: err}
		}
		values[field] = text
	}

	e.logger.Debug("Extracted order fields", zap.String("reference", string(ref)))

	return domain.NewOrderRecord(
		ref,
		domain.NormalizeOrderNumber(values[domain.FieldOrderNumber], e.selectors.OrderNumberPrefix),
		values[domain.FieldCustomerName],
		values[domain.FieldPhoneNumber],
		values[domain.FieldEmailAddress],
	), nil
}
