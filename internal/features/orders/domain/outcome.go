package domain

import "time"

// RunRequest carries the per-run overrides of a scrape.
type RunRequest struct {
	// MaxItems caps processed references. nil keeps the configured default, 0 means all.
	MaxItems *int `json:"max_items,omitempty"`
	// OutputPath overrides the configured output file.
	OutputPath string `json:"output_path,omitempty"`
}

// RunParams are the resolved parameters of one run.
type RunParams struct {
	// MaxItems caps processed references. 0 means all.
	MaxItems int
	// OutputPath is the CSV file records are appended to.
	OutputPath string
}

// Limit returns how many of found references the run processes.
func (p RunParams) Limit(found int) int {
	if p.MaxItems > 0 && p.MaxItems < found {
		return p.MaxItems
	}
	return found
}

// ItemResult is the result of scraping one reference: a record or an error.
type ItemResult struct {
	Index     int
	Reference OrderReference
	Record    *OrderRecord
	Err       error
}

// OK reports whether a record was extracted.
func (r ItemResult) OK() bool {
	return r.Err == nil && r.Record != nil
}

// ItemFailure reports a skipped reference. Failures are logged and
// returned, never persisted.
type ItemFailure struct {
	// Index is the 1-based position of the reference in the listing.
	Index int `json:"index"`
	// Reference is the skipped order URL.
	Reference OrderReference `json:"reference"`
	// Reason is a short failure label such as timeout or not_found.
	Reason string `json:"reason"`
	// Message is the error text.
	Message string `json:"message"`
}

// ScrapeOutcome aggregates one run.
type ScrapeOutcome struct {
	// TotalFound is the number of references collected from the listing.
	TotalFound int `json:"total_found"`
	// TotalExtracted is the number of records built.
	TotalExtracted int `json:"total_extracted"`
	// Records are the extracted records in listing order.
	Records []OrderRecord `json:"records"`
	// Failures are the skipped references in listing order.
	Failures []ItemFailure `json:"failures"`
	// OutputPath is where the records were appended.
	OutputPath string `json:"output_path"`
	// Cancelled is set when the run stopped before the last reference.
	Cancelled bool `json:"cancelled,omitempty"`
}

// RunSummary is the stored digest of a finished run.
type RunSummary struct {
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	DurationMS     int64     `json:"duration_ms"`
	TotalFound     int       `json:"total_found"`
	TotalExtracted int       `json:"total_extracted"`
	TotalFailed    int       `json:"total_failed"`
	OutputPath     string    `json:"output_path"`
	Cancelled      bool      `json:"cancelled,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// NewRunSummary digests outcome. Both outcome and runErr may be nil.
func NewRunSummary(outcome *ScrapeOutcome, startedAt, finishedAt time.Time, runErr error) *RunSummary {
	summary := &RunSummary{
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		DurationMS: finishedAt.Sub(startedAt).Milliseconds(),
	}
	if outcome != nil {
		summary.TotalFound = outcome.TotalFound
		summary.TotalExtracted = outcome.TotalExtracted
		summary.TotalFailed = len(outcome.Failures)
		summary.OutputPath = outcome.OutputPath
		summary.Cancelled = outcome.Cancelled
	}
	if runErr != nil {
		summary.Error = runErr.Error()
	}
	return summary
}
