package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"order-scrapper/internal/core/logger"
	"order-scrapper/internal/core/metrics"
	"order-scrapper/internal/features/browser/domain"
	"order-scrapper/internal/features/browser/ports"

	"go.uber.org/zap"
)

// Options configures a SessionManager.
type Options struct {
	// ListingURL is opened in the controlled tab on connect unless it is already showing.
	ListingURL string
	// ConnectTimeout bounds endpoint resolution and attach.
	ConnectTimeout time.Duration
	// ReleaseAfterUse drops the session once Use returns.
	ReleaseAfterUse bool
}

// SessionManager owns the single process-wide browser session.
// At most one session exists and at most one caller holds it at a time.
type SessionManager struct {
	resolver  ports.EndpointResolver
	connector ports.Connector
	opts      Options
	metrics   *metrics.Metrics
	logger    *zap.Logger

	mu         sync.Mutex
	session    ports.Session
	info       domain.SessionInfo
	connecting bool
	busy       bool
}

// NewSessionManager creates a SessionManager. m may be nil.
func NewSessionManager(resolver ports.EndpointResolver, connector ports.Connector, opts Options, m *metrics.Metrics) *SessionManager {
	return &SessionManager{
		resolver:  resolver,
		connector: connector,
		opts:      opts,
		metrics:   m,
		logger:    logger.Named("session"),
	}
}

// Connect resolves the browser endpoint, attaches to it and opens the listing page.
func (m *SessionManager) Connect(ctx context.Context) (domain.SessionInfo, error) {
	m.mu.Lock()
	if m.session != nil || m.connecting {
		m.mu.Unlock()
		return domain.SessionInfo{}, domain.ErrAlreadyConnected
	}
	m.connecting = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.connecting = false
		m.mu.Unlock()
	}()

	resolveCtx := ctx
	if m.opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		resolveCtx, cancel = context.WithTimeout(ctx, m.opts.ConnectTimeout)
		defer cancel()
	}

	controlURL, err := m.resolver.Resolve(resolveCtx)
	if err != nil {
		m.logger.Error("Failed to resolve browser endpoint", zap.Error(err))
		return domain.SessionInfo{}, err
	}

	session, err := m.connector.Connect(resolveCtx, controlURL)
	if err != nil {
		m.logger.Error("Failed to attach to browser", zap.String("control_url", controlURL), zap.Error(err))
		return domain.SessionInfo{}, err
	}

	pageURL, err := m.openListing(ctx, session)
	if err != nil {
		_ = session.Close()
		return domain.SessionInfo{}, err
	}

	m.mu.Lock()
	m.session = session
	m.info = domain.SessionInfo{
		Connected:   true,
		ControlURL:  controlURL,
		PageURL:     pageURL,
		ConnectedAt: time.Now(),
	}
	info := m.info
	m.mu.Unlock()

	m.metrics.SetConnected(true)
	m.logger.Info("Browser session connected",
		zap.String("control_url", controlURL),
		zap.String("page_url", pageURL),
	)

	return info, nil
}

// openListing navigates to the listing page unless the tab already shows it,
// so filters the operator set on an open listing are kept.
func (m *SessionManager) openListing(ctx context.Context, session ports.Session) (string, error) {
	current, err := session.CurrentURL(ctx)
	if err != nil {
		m.logger.Warn("Could not read current tab URL", zap.Error(err))
	}

	if m.opts.ListingURL == "" || strings.HasPrefix(current, m.opts.ListingURL) {
		return current, nil
	}

	if err := session.Navigate(ctx, m.opts.ListingURL); err != nil {
		m.logger.Error("Failed to open listing page", zap.String("url", m.opts.ListingURL), zap.Error(err))
		return "", fmt.Errorf("failed to open listing page: %w", err)
	}
	return m.opts.ListingURL, nil
}

// Disconnect closes the active session.
func (m *SessionManager) Disconnect() error {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return domain.ErrNoSession
	}
	if m.busy {
		m.mu.Unlock()
		return domain.ErrSessionBusy
	}
	session := m.session
	m.session = nil
	m.info = domain.SessionInfo{}
	m.mu.Unlock()

	return m.release(session)
}

// Shutdown closes the session regardless of whether it is in use.
func (m *SessionManager) Shutdown() error {
	m.mu.Lock()
	session := m.session
	m.session = nil
	m.info = domain.SessionInfo{}
	m.mu.Unlock()

	if session == nil {
		return nil
	}
	return m.release(session)
}

// Status reports the current session state.
func (m *SessionManager) Status() domain.SessionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	info := m.info
	info.Busy = m.busy
	return info
}

// Use runs fn with exclusive access to the session. When ReleaseAfterUse is
// set the session is closed after fn returns, whatever the outcome.
func (m *SessionManager) Use(ctx context.Context, fn func(ctx context.Context, session ports.Session) error) error {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return domain.ErrNoSession
	}
	if m.busy {
		m.mu.Unlock()
		return domain.ErrSessionBusy
	}
	m.busy = true
	session := m.session
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.busy = false
		release := m.opts.ReleaseAfterUse && m.session == session
		if release {
			m.session = nil
			m.info = domain.SessionInfo{}
		}
		m.mu.Unlock()

		if release {
			if err := m.release(session); err != nil {
				m.logger.Warn("Failed to release browser session", zap.Error(err))
			}
		}
	}()

	return fn(ctx, session)
}

func (m *SessionManager) release(session ports.Session) error {
	m.metrics.SetConnected(false)
	if err := session.Close(); err != nil {
		return fmt.Errorf("failed to close browser session: %w", err)
	}
	m.logger.Info("Browser session released")
	return nil
}
