package service

import (
	"context"
	"time"

	"order-scrapper/internal/features/browser/browsertest"
	browserdomain "order-scrapper/internal/features/browser/domain"
	browserports "order-scrapper/internal/features/browser/ports"
	"order-scrapper/internal/features/orders/domain"

	"github.com/stretchr/testify/mock"
)

const (
	listingURL = "https://admin.weedmaps.com/orders"

	selListingRow = ".table__TableRow"
	selOrderLink  = "//a[contains(@class, 'IDLink')]"
	selDetailName = "//h4[contains(@class, 'DetailRecipientName')]"
	selReady      = "h4.recipient"
	selNumber     = "//span[contains(@class, 'OrderId')]"
	selPhone      = "//p[contains(text(), 'Phone number')]/following-sibling::div"
	selEmail      = "//p[contains(text(), 'Email address')]/following-sibling::p"
)

var testListing = domain.ListingSelectors{
	Ready:        selListingRow,
	Link:         selOrderLink,
	ReadyTimeout: time.Second,
}

var testDetail = domain.DetailSelectors{
	Ready:        selReady,
	ReadyTimeout: time.Second,
	Fields: map[domain.Field]string{
		domain.FieldOrderNumber:  selNumber,
		domain.FieldCustomerName: selDetailName,
		domain.FieldPhoneNumber:  selPhone,
		domain.FieldEmailAddress: selEmail,
	},
	OrderNumberPrefix: "Order #",
}

func listingPage(hrefs ...string) browsertest.Page {
	links := make([]browsertest.Element, 0, len(hrefs))
	for _, h := range hrefs {
		links = append(links, browsertest.Link(h))
	}
	return browsertest.Page{
		selListingRow: {browsertest.Text("row")},
		selOrderLink:  links,
	}
}

func detailPage(number, name, phone, email string) browsertest.Page {
	return browsertest.Page{
		selReady:      {browsertest.Text(name)},
		selNumber:     {browsertest.Text("Order #" + number)},
		selDetailName: {browsertest.Text(name)},
		selPhone:      {browsertest.Text(phone)},
		selEmail:      {browsertest.Text(email)},
	}
}

// MockRecordStore is a mock implementation of ports.RecordStore
type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) Append(ctx context.Context, path string, records []domain.OrderRecord) error {
	args := m.Called(ctx, path, records)
	return args.Error(0)
}

// MockRunRepository is a mock implementation of ports.RunRepository
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) Save(ctx context.Context, summary *domain.RunSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *MockRunRepository) Latest(ctx context.Context) (*domain.RunSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunSummary), args.Error(1)
}

// stubSessions hands the same session to every Use call.
type stubSessions struct {
	session browserports.Session
	err     error
	uses    int
}

func (s *stubSessions) Use(ctx context.Context, fn func(ctx context.Context, session browserports.Session) error) error {
	if s.err != nil {
		return s.err
	}
	if s.session == nil {
		return browserdomain.ErrNoSession
	}
	s.uses++
	return fn(ctx, s.session)
}
