package adapters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"order-scrapper/internal/features/browser/domain"
	"order-scrapper/internal/features/browser/ports"

	"github.com/go-rod/rod"
	"github.com/ysmood/gson"
	"go.uber.org/zap"
)

// rodSession implements ports.Session on top of one rod page.
type rodSession struct {
	browser           *rod.Browser
	page              *rod.Page
	navigationTimeout time.Duration
	closeBrowser      bool
	cancel            context.CancelFunc
	logger            *zap.Logger

	mu     sync.Mutex
	closed bool
}

// pageFor binds the controlled tab to ctx.
func (s *rodSession) pageFor(ctx context.Context) (*rod.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, domain.ErrSessionClosed
	}
	return s.page.Context(ctx), nil
}

// Navigate loads url and waits for the load event.
func (s *rodSession) Navigate(ctx context.Context, url string) error {
	if s.navigationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.navigationTimeout)
		defer cancel()
	}

	page, err := s.pageFor(ctx)
	if err != nil {
		return &domain.NavigationError{URL: url, Err: err}
	}

	if err := page.Navigate(url); err != nil {
		return &domain.NavigationError{URL: url, Err: err}
	}
	if err := page.WaitLoad(); err != nil {
		return &domain.NavigationError{URL: url, Err: err}
	}

	s.logger.Debug("Navigated", zap.String("url", url))
	return nil
}

// WaitForElement polls for selector until it matches or timeout elapses.
func (s *rodSession) WaitForElement(ctx context.Context, selector string, timeout time.Duration) (ports.Element, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page, err := s.pageFor(waitCtx)
	if err != nil {
		return nil, err
	}

	var el *rod.Element
	if isXPath(selector) {
		el, err = page.ElementX(selector)
	} else {
		el, err = page.Element(selector)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &domain.TimeoutError{Selector: selector, Timeout: timeout, Err: err}
		}
		return nil, fmt.Errorf("wait for %q: %w", selector, err)
	}

	return &rodElement{el: el.Context(ctx)}, nil
}

// FindAll returns every current match without waiting.
func (s *rodSession) FindAll(ctx context.Context, selector string) ([]ports.Element, error) {
	page, err := s.pageFor(ctx)
	if err != nil {
		return nil, err
	}

	var found rod.Elements
	if isXPath(selector) {
		found, err = page.ElementsX(selector)
	} else {
		found, err = page.Elements(selector)
	}
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}

	elements := make([]ports.Element, 0, len(found))
	for _, el := range found {
		elements = append(elements, &rodElement{el: el})
	}
	return elements, nil
}

// FindOne returns the first current match without waiting.
func (s *rodSession) FindOne(ctx context.Context, selector string) (ports.Element, error) {
	page, err := s.pageFor(ctx)
	if err != nil {
		return nil, err
	}
	page = page.Sleeper(rod.NotFoundSleeper)

	var el *rod.Element
	if isXPath(selector) {
		el, err = page.ElementX(selector)
	} else {
		el, err = page.Element(selector)
	}
	if err != nil {
		var notFound *rod.ElementNotFoundError
		if errors.As(err, &notFound) {
			return nil, &domain.NotFoundError{Selector: selector}
		}
		return nil, &domain.NotFoundError{Selector: selector, Err: err}
	}

	return &rodElement{el: el.Context(ctx)}, nil
}

// CurrentURL returns the address of the controlled tab.
func (s *rodSession) CurrentURL(ctx context.Context) (string, error) {
	page, err := s.pageFor(ctx)
	if err != nil {
		return "", err
	}
	info, err := page.Info()
	if err != nil {
		return "", fmt.Errorf("failed to read tab info: %w", err)
	}
	return info.URL, nil
}

// Close detaches from the browser, shutting it down only when configured to.
func (s *rodSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.closeBrowser {
		err = s.browser.Close()
	}
	s.cancel()

	s.logger.Info("Detached from browser", zap.Bool("browser_closed", s.closeBrowser))
	return err
}

// rodElement implements ports.Element.
type rodElement struct {
	el *rod.Element
}

// Text returns the trimmed visible text.
func (e *rodElement) Text() (string, error) {
	text, err := e.el.Text()
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Attribute prefers the live DOM property, so links come back absolute, and
// falls back to the raw attribute.
func (e *rodElement) Attribute(name string) (*string, error) {
	if prop, err := e.el.Property(name); err == nil {
		if value, ok := propertyString(prop); ok {
			return &value, nil
		}
	}

	value, err := e.el.Attribute(name)
	if err != nil {
		return nil, fmt.Errorf("read attribute %s: %w", name, err)
	}
	return value, nil
}

// propertyString returns v when it holds a non-empty string.
func propertyString(v gson.JSON) (string, bool) {
	if v.Nil() {
		return "", false
	}
	s, ok := v.Val().(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
