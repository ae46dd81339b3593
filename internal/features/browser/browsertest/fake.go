// Package browsertest provides an in-memory ports.Session for tests.
package browsertest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"order-scrapper/internal/features/browser/domain"
	"order-scrapper/internal/features/browser/ports"
)

// Element is a static DOM node.
type Element struct {
	TextValue  string
	Attributes map[string]string
}

// Text returns the trimmed text like the real adapter does.
func (e Element) Text() (string, error) {
	return strings.TrimSpace(e.TextValue), nil
}

// Attribute returns the attribute or nil when absent.
func (e Element) Attribute(name string) (*string, error) {
	v, ok := e.Attributes[name]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

// Link builds an anchor element.
func Link(href string) Element {
	return Element{Attributes: map[string]string{"href": href}}
}

// Text builds an element holding text.
func Text(text string) Element {
	return Element{TextValue: text}
}

// Page maps selectors to the nodes they match.
type Page map[string][]Element

// Session is a scripted ports.Session. Pages are keyed by URL.
type Session struct {
	mu sync.Mutex

	Pages       map[string]Page
	NavigateErr map[string]error
	Current     string
	Visits      []string
	Closed      bool
	CloseErr    error

	// OnNavigate runs after each successful navigation.
	OnNavigate func(url string)
}

// NewSession creates a session already showing startURL.
func NewSession(startURL string, pages map[string]Page) *Session {
	return &Session{
		Pages:       pages,
		NavigateErr: map[string]error{},
		Current:     startURL,
	}
}

var _ ports.Session = (*Session)(nil)

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return &domain.NavigationError{URL: url, Err: err}
	}
	s.mu.Lock()
	if s.Closed {
		s.mu.Unlock()
		return &domain.NavigationError{URL: url, Err: domain.ErrSessionClosed}
	}
	s.Visits = append(s.Visits, url)
	if err, ok := s.NavigateErr[url]; ok {
		s.mu.Unlock()
		return &domain.NavigationError{URL: url, Err: err}
	}
	s.Current = url
	hook := s.OnNavigate
	s.mu.Unlock()

	if hook != nil {
		hook(url)
	}
	return nil
}

func (s *Session) WaitForElement(ctx context.Context, selector string, timeout time.Duration) (ports.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	found := s.lookup(selector)
	if len(found) == 0 {
		return nil, &domain.TimeoutError{Selector: selector, Timeout: timeout, Err: context.DeadlineExceeded}
	}
	return found[0], nil
}

func (s *Session) FindAll(ctx context.Context, selector string) ([]ports.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	found := s.lookup(selector)
	elements := make([]ports.Element, 0, len(found))
	for _, el := range found {
		elements = append(elements, el)
	}
	return elements, nil
}

func (s *Session) FindOne(ctx context.Context, selector string) (ports.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	found := s.lookup(selector)
	if len(found) == 0 {
		return nil, &domain.NotFoundError{Selector: selector}
	}
	return found[0], nil
}

func (s *Session) CurrentURL(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Current, nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return s.CloseErr
}

// VisitCount returns how many navigations were issued.
func (s *Session) VisitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Visits)
}

func (s *Session) lookup(selector string) []Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, ok := s.Pages[s.Current]
	if !ok {
		return nil
	}
	return page[selector]
}

// Connector hands out a prepared Session.
type Connector struct {
	Session *Session
	Err     error
	Calls   []string
}

func (c *Connector) Connect(_ context.Context, controlURL string) (ports.Session, error) {
	c.Calls = append(c.Calls, controlURL)
	if c.Err != nil {
		return nil, c.Err
	}
	if c.Session == nil {
		return nil, &domain.ConnectionError{Endpoint: controlURL, Err: errors.New("no session scripted")}
	}
	return c.Session, nil
}

// Resolver returns a fixed control URL or error.
type Resolver struct {
	URL string
	Err error
}

func (r Resolver) Resolve(_ context.Context) (string, error) {
	return r.URL, r.Err
}
