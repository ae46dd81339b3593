package adapters

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"order-scrapper/internal/core/logger"
	"order-scrapper/internal/features/orders/domain"

	"go.uber.org/zap"
)

// CSVRecordStore appends order records to CSV files. Appends are serialised
// so a file never receives interleaved rows or a second header.
type CSVRecordStore struct {
	mu     sync.Mutex
	logger *zap.Logger

	// wrap intercepts the file writer; nil writes straight to the file.
	wrap func(io.Writer) io.Writer
}

// NewCSVRecordStore creates a new CSVRecordStore.
func NewCSVRecordStore() *CSVRecordStore {
	return &CSVRecordStore{logger: logger.Named("csv_store")}
}

// Append writes records to path. The header is written only when the file is
// new or empty, so an empty batch against a fresh path leaves a header-only file.
// A failed batch is rolled back so a retry never duplicates rows.
func (s *CSVRecordStore) Append(ctx context.Context, path string, records []domain.OrderRecord) error {
	if err := ctx.Err(); err != nil {
		return &domain.PersistenceError{Path: path, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ensureDir(path); err != nil {
		return &domain.PersistenceError{Path: path, Err: err}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return &domain.PersistenceError{Path: path, Err: err}
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return &domain.PersistenceError{Path: path, Err: fmt.Errorf("stat: %w", err)}
	}

	var w io.Writer = f
	if s.wrap != nil {
		w = s.wrap(f)
	}

	if err := writeRecords(w, info.Size() == 0, records); err != nil {
		if tErr := f.Truncate(info.Size()); tErr != nil {
			err = errors.Join(err, fmt.Errorf("roll back to %d bytes: %w", info.Size(), tErr))
		}
		_ = f.Close()
		return &domain.PersistenceError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &domain.PersistenceError{Path: path, Err: err}
	}

	s.logger.Info("Saved order records", zap.String("path", path), zap.Int("records", len(records)))
	return nil
}

func writeRecords(out io.Writer, header bool, records []domain.OrderRecord) error {
	w := csv.NewWriter(out)
	if header {
		if err := w.Write(domain.Header()); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for _, r := range records {
		if err := w.Write(r.Row()); err != nil {
			return fmt.Errorf("write row %s: %w", r.OrderURL, err)
		}
	}
	w.Flush()
	return w.Error()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
