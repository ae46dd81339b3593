package domain

import (
	"fmt"
	"time"
)

// Field names one extractable value of a detail page.
type Field string

const (
	FieldOrderNumber  Field = "order_number"
	FieldCustomerName Field = "customer_name"
	FieldPhoneNumber  Field = "phone_number"
	FieldEmailAddress Field = "email_address"
)

// ExtractionOrder is the sequence fields are looked up in.
var ExtractionOrder = []Field{FieldOrderNumber, FieldCustomerName, FieldPhoneNumber, FieldEmailAddress}

// ListingSelectors locate the order links on the listing page.
type ListingSelectors struct {
	// Ready matches a rendered listing row.
	Ready string
	// Link matches anchors to detail pages.
	Link string
	// ReadyTimeout bounds the wait for Ready.
	ReadyTimeout time.Duration
}

// Validate checks that both selectors are set.
func (s ListingSelectors) Validate() error {
	if s.Ready == "" {
		return fmt.Errorf("listing ready selector is empty")
	}
	if s.Link == "" {
		return fmt.Errorf("listing link selector is empty")
	}
	return nil
}

// DetailSelectors map each field to the locator rule used on the detail page.
type DetailSelectors struct {
	// Ready marks the detail page as rendered.
	Ready string
	// ReadyTimeout bounds the wait for Ready.
	ReadyTimeout time.Duration
	// Fields holds one selector per field.
	Fields map[Field]string
	// OrderNumberPrefix is stripped from the order number.
	OrderNumberPrefix string
}

// Validate checks that the readiness marker and every field have a selector.
func (s DetailSelectors) Validate() error {
	if s.Ready == "" {
		return fmt.Errorf("detail ready selector is empty")
	}
	for _, field := range ExtractionOrder {
		if s.Fields[field] == "" {
			return fmt.Errorf("detail selector for %s is empty", field)
		}
	}
	return nil
}
