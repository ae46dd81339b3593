package ports

import (
	"context"
	"time"
)

// Element is a DOM node resolved on the current page of a Session.
type Element interface {
	// Text returns the rendered text of the node, trimmed of surrounding whitespace.
	Text() (string, error)
	// Attribute returns the named attribute, or nil when the node does not carry it.
	Attribute(name string) (*string, error)
}

// Session is a handle to one navigational context of an attached browser.
// Implementations are not safe for concurrent navigation.
type Session interface {
	// Navigate loads url in the controlled tab. Fails with *domain.NavigationError.
	Navigate(ctx context.Context, url string) error
	// WaitForElement waits up to timeout for selector to match. Fails with *domain.TimeoutError.
	WaitForElement(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	// FindAll returns every node matching selector right now, possibly none.
	FindAll(ctx context.Context, selector string) ([]Element, error)
	// FindOne returns the first node matching selector right now. Fails with *domain.NotFoundError.
	FindOne(ctx context.Context, selector string) (Element, error)
	// CurrentURL returns the address of the controlled tab.
	CurrentURL(ctx context.Context) (string, error)
	// Close detaches from the browser.
	Close() error
}

// Connector attaches to an already running browser.
type Connector interface {
	// Connect attaches to the DevTools endpoint at controlURL. Fails with *domain.ConnectionError.
	Connect(ctx context.Context, controlURL string) (Session, error)
}

// EndpointResolver finds the DevTools endpoint of the operator's browser.
type EndpointResolver interface {
	// Resolve returns a control URL usable by a Connector.
	Resolve(ctx context.Context) (string, error)
}
