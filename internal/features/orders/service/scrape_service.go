package service

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"order-scrapper/internal/core/logger"
	"order-scrapper/internal/core/metrics"
	browserdomain "order-scrapper/internal/features/browser/domain"
	browserports "order-scrapper/internal/features/browser/ports"
	"order-scrapper/internal/features/orders/domain"
	"order-scrapper/internal/features/orders/ports"

	"go.uber.org/zap"
)

// ScrapeService runs scrapes against the shared browser session and keeps the
// last run summary when a RunRepository is configured.
type ScrapeService struct {
	sessions ports.SessionProvider
	runner   *ScrapeRunner
	history  ports.RunRepository
	defaults domain.RunParams
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewScrapeService creates a new ScrapeService. history may be nil.
func NewScrapeService(sessions ports.SessionProvider, runner *ScrapeRunner, history ports.RunRepository, defaults domain.RunParams, m *metrics.Metrics) *ScrapeService {
	return &ScrapeService{
		sessions: sessions,
		runner:   runner,
		history:  history,
		defaults: defaults,
		metrics:  m,
		logger:   logger.Named("scrape_service"),
	}
}

// Params resolves req against the configured defaults.
func (s *ScrapeService) Params(req domain.RunRequest) domain.RunParams {
	params := s.defaults
	if req.MaxItems != nil {
		params.MaxItems = *req.MaxItems
	}
	if req.OutputPath != "" {
		params.OutputPath = req.OutputPath
	}
	if abs, err := filepath.Abs(params.OutputPath); err == nil {
		params.OutputPath = abs
	}
	return params
}

// Scrape runs one scrape with exclusive use of the session. It fails with
// browserdomain.ErrNoSession or ErrSessionBusy before anything is scraped.
func (s *ScrapeService) Scrape(ctx context.Context, req domain.RunRequest) (*domain.ScrapeOutcome, error) {
	if req.MaxItems != nil && *req.MaxItems < 0 {
		return nil, ErrInvalidMaxItems
	}
	params := s.Params(req)
	started := time.Now()

	var outcome *domain.ScrapeOutcome
	err := s.sessions.Use(ctx, func(ctx context.Context, session browserports.Session) error {
		var runErr error
		outcome, runErr = s.runner.Run(ctx, session, params)
		return runErr
	})
	s.metrics.IncRun(runResult(err))

	if outcome == nil {
		return nil, err
	}

	s.saveSummary(ctx, domain.NewRunSummary(outcome, started, time.Now(), err))
	return outcome, err
}

// LastRun returns the stored summary of the most recent run.
func (s *ScrapeService) LastRun(ctx context.Context) (*domain.RunSummary, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.Latest(ctx)
}

func (s *ScrapeService) saveSummary(ctx context.Context, summary *domain.RunSummary) {
	if s.history == nil {
		return
	}
	if err := s.history.Save(context.WithoutCancel(ctx), summary); err != nil {
		s.logger.Warn("Failed to store run summary", zap.Error(err))
	}
}

// ErrInvalidMaxItems is returned for a negative item cap.
var ErrInvalidMaxItems = errors.New("max_items must not be negative")

// ErrHistoryDisabled is returned by LastRun when no RunRepository is configured.
var ErrHistoryDisabled = errors.New("run history is not configured")

func runResult(err error) string {
	var listingErr *domain.ListingError
	var persistErr *domain.PersistenceError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, browserdomain.ErrNoSession), errors.Is(err, browserdomain.ErrSessionBusy):
		return "rejected"
	case errors.As(err, &listingErr):
		return "listing_error"
	case errors.As(err, &persistErr):
		return "persist_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}
