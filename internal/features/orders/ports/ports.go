package ports

import (
	"context"

	browserports "order-scrapper/internal/features/browser/ports"
	"order-scrapper/internal/features/orders/domain"
)

// RecordStore persists extracted records.
type RecordStore interface {
	// Append writes records to path, adding the header when the file is new or empty.
	// Fails with *domain.PersistenceError.
	Append(ctx context.Context, path string, records []domain.OrderRecord) error
}

// RunRepository keeps the summary of the most recent run.
type RunRepository interface {
	Save(ctx context.Context, summary *domain.RunSummary) error
	// Latest returns nil, nil when no run has been recorded.
	Latest(ctx context.Context) (*domain.RunSummary, error)
}

// SessionProvider grants exclusive use of the attached browser session.
type SessionProvider interface {
	Use(ctx context.Context, fn func(ctx context.Context, session browserports.Session) error) error
}
