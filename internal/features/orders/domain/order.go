package domain

import "strings"

// OrderReference locates a single order detail page. It is the link href
// captured from the listing.
type OrderReference string

// Columns is the fixed header of the output file.
var Columns = []string{"Order URL", "Order Number", "Customer Name", "Phone Number", "Email Address"}

// Header returns a copy of Columns.
func Header() []string {
	header := make([]string, len(Columns))
	copy(header, Columns)
	return header
}

// OrderRecord holds the customer fields scraped from one order detail page.
type OrderRecord struct {
	// OrderURL is the reference the record was scraped from.
	OrderURL string `json:"order_url"`
	// OrderNumber is the order identifier without its label prefix.
	OrderNumber string `json:"order_number"`
	// CustomerName is the recipient name.
	CustomerName string `json:"customer_name"`
	// PhoneNumber is the contact phone.
	PhoneNumber string `json:"phone_number"`
	// EmailAddress is the contact email.
	EmailAddress string `json:"email_address"`
}

// NewOrderRecord builds a record with every field trimmed.
func NewOrderRecord(ref OrderReference, orderNumber, customerName, phoneNumber, emailAddress string) OrderRecord {
	return OrderRecord{
		OrderURL:     strings.TrimSpace(string(ref)),
		OrderNumber:  strings.TrimSpace(orderNumber),
		CustomerName: strings.TrimSpace(customerName),
		PhoneNumber:  strings.TrimSpace(phoneNumber),
		EmailAddress: strings.TrimSpace(emailAddress),
	}
}

// Row returns the record fields in Columns order.
func (r OrderRecord) Row() []string {
	return []string{r.OrderURL, r.OrderNumber, r.CustomerName, r.PhoneNumber, r.EmailAddress}
}

// NormalizeOrderNumber trims raw, strips a leading label such as "Order #"
// and trims again. A label with nothing after it yields "".
func NormalizeOrderNumber(raw, prefix string) string {
	s := strings.TrimSpace(raw)
	if prefix != "" {
		s = strings.TrimPrefix(s, prefix)
	}
	return strings.TrimSpace(s)
}
