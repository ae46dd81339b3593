package service

import (
	"context"
	"errors"
	"time"

	"order-scrapper/internal/core/logger"
	"order-scrapper/internal/core/metrics"
	browserdomain "order-scrapper/internal/features/browser/domain"
	browserports "order-scrapper/internal/features/browser/ports"
	"order-scrapper/internal/features/orders/domain"
	"order-scrapper/internal/features/orders/ports"

	"go.uber.org/zap"
)

// ScrapeRunner drives one scrape: collect the listing once, extract each
// reference in order, then persist every record in a single batch.
type ScrapeRunner struct {
	collector       *LinkCollector
	extractor       *OrderExtractor
	store           ports.RecordStore
	listing         domain.ListingSelectors
	persistAttempts int
	metrics         *metrics.Metrics
	logger          *zap.Logger
}

// NewScrapeRunner creates a runner. persistAttempts below 1 is treated as 1.
func NewScrapeRunner(
	collector *LinkCollector,
	extractor *OrderExtractor,
	store ports.RecordStore,
	listing domain.ListingSelectors,
	persistAttempts int,
	m *metrics.Metrics,
) *ScrapeRunner {
	if persistAttempts < 1 {
		persistAttempts = 1
	}
	return &ScrapeRunner{
		collector:       collector,
		extractor:       extractor,
		store:           store,
		listing:         listing,
		persistAttempts: persistAttempts,
		metrics:         m,
		logger:          logger.Named("scrape_runner"),
	}
}

// Run scrapes up to params.MaxItems references from the listing currently
// shown by session. Item failures are logged and skipped. The outcome is
// returned even when persisting fails or ctx is cancelled mid-run.
func (r *ScrapeRunner) Run(ctx context.Context, session browserports.Session, params domain.RunParams) (*domain.ScrapeOutcome, error) {
	outcome := &domain.ScrapeOutcome{
		Records:    []domain.OrderRecord{},
		Failures:   []domain.ItemFailure{},
		OutputPath: params.OutputPath,
	}

	refs, err := r.collector.Collect(ctx, session, r.listing)
	if err != nil {
		r.logger.Error("Failed to collect order links", zap.Error(err))
		return outcome, err
	}

	outcome.TotalFound = len(refs)
	r.metrics.AddFound(len(refs))

	limit := params.Limit(len(refs))
	r.logger.Info("Starting scrape",
		zap.Int("found", len(refs)),
		zap.Int("limit", limit),
		zap.String("output", params.OutputPath),
	)

	var runErr error
	for idx, ref := range refs[:limit] {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("Scrape cancelled", zap.Int("processed", idx), zap.Error(err))
			outcome.Cancelled = true
			runErr = err
			break
		}

		result := r.scrapeOne(ctx, session, idx, ref)
		if !result.OK() {
			outcome.Failures = append(outcome.Failures, domain.ItemFailure{
				Index:     result.Index,
				Reference: result.Reference,
				Reason:    browserdomain.FailureReason(result.Err),
				Message:   result.Err.Error(),
			})
			continue
		}
		outcome.Records = append(outcome.Records, *result.Record)
	}
	outcome.TotalExtracted = len(outcome.Records)

	// Records already scraped are written even when the run was cancelled.
	if err := r.persist(context.WithoutCancel(ctx), params.OutputPath, outcome.Records); err != nil {
		return outcome, err
	}

	r.logger.Info("Scrape finished",
		zap.Int("found", outcome.TotalFound),
		zap.Int("extracted", outcome.TotalExtracted),
		zap.Int("failed", len(outcome.Failures)),
		zap.String("output", params.OutputPath),
	)
	return outcome, runErr
}

func (r *ScrapeRunner) scrapeOne(ctx context.Context, session browserports.Session, idx int, ref domain.OrderReference) domain.ItemResult {
	result := domain.ItemResult{Index: idx + 1, Reference: ref}
	start := time.Now()

	record, err := r.extractor.Extract(ctx, session, ref)
	r.metrics.ObserveExtract(time.Since(start))
	if err != nil {
		reason := browserdomain.FailureReason(err)
		r.metrics.IncItemError(reason)
		r.logger.Error("Error scraping order",
			zap.Int("index", result.Index),
			zap.String("reference", string(ref)),
			zap.String("reason", reason),
			zap.Error(err),
		)
		result.Err = err
		return result
	}

	r.metrics.IncExtracted()
	r.logger.Info("Scraped order",
		zap.Int("index", result.Index),
		zap.String("order_number", record.OrderNumber),
	)
	result.Record = &record
	return result
}

func (r *ScrapeRunner) persist(ctx context.Context, path string, records []domain.OrderRecord) error {
	var err error
	for attempt := 1; attempt <= r.persistAttempts; attempt++ {
		err = r.store.Append(ctx, path, records)
		if err == nil {
			return nil
		}
		r.logger.Warn("Failed to persist records",
			zap.Int("attempt", attempt),
			zap.Int("records", len(records)),
			zap.String("path", path),
			zap.Error(err),
		)
	}

	var pErr *domain.PersistenceError
	if errors.As(err, &pErr) {
		return err
	}
	return &domain.PersistenceError{Path: path, Err: err}
}
