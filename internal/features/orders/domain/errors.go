package domain

import "fmt"

// ListingError indicates the listing never rendered, so no reference could be collected.
type ListingError struct {
	Selector string
	Err      error
}

func (e *ListingError) Error() string {
	return fmt.Sprintf("listing not ready (%s): %v", e.Selector, e.Err)
}

func (e *ListingError) Unwrap() error {
	return e.Err
}

// ExtractionError indicates one reference could not be turned into a record.
// Field is "navigate", "ready" or the name of the field that failed.
type ExtractionError struct {
	Reference OrderReference
	Field     string
	Err       error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s at %s: %v", e.Reference, e.Field, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// PersistenceError indicates the output file could not be opened or written.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist records to %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
