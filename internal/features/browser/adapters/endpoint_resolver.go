package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"order-scrapper/internal/core/config"
	"order-scrapper/internal/core/httpclient"
	"order-scrapper/internal/features/browser/domain"
	"order-scrapper/internal/features/browser/ports"
)

// NewEndpointResolver picks the resolver matching the browser configuration.
func NewEndpointResolver(cfg config.BrowserConfig) ports.EndpointResolver {
	if cfg.ControlURL != "" {
		return StaticResolver{ControlURL: cfg.ControlURL}
	}
	return NewDebugPortResolver(cfg.DebugHost, cfg.DebugPort, cfg.ConnectTimeout)
}

// StaticResolver returns a control URL known in advance.
type StaticResolver struct {
	ControlURL string
}

// Resolve returns the configured control URL.
func (r StaticResolver) Resolve(_ context.Context) (string, error) {
	if r.ControlURL == "" {
		return "", &domain.ConnectionError{Endpoint: "static", Err: errors.New("empty control URL")}
	}
	return r.ControlURL, nil
}

// DebugPortResolver asks a browser started with --remote-debugging-port for its websocket URL.
type DebugPortResolver struct {
	host   string
	port   int
	client *http.Client
}

// NewDebugPortResolver creates a resolver for host:port.
func NewDebugPortResolver(host string, port int, timeout time.Duration) *DebugPortResolver {
	return &DebugPortResolver{
		host:   host,
		port:   port,
		client: httpclient.NewClient(timeout),
	}
}

// versionResponse is the subset of /json/version the resolver reads.
type versionResponse struct {
	Browser              string `json:"Browser"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// Address returns the host:port this resolver queries.
func (r *DebugPortResolver) Address() string {
	return net.JoinHostPort(r.host, strconv.Itoa(r.port))
}

// Resolve fetches /json/version and returns its webSocketDebuggerUrl.
func (r *DebugPortResolver) Resolve(ctx context.Context) (string, error) {
	addr := r.Address()
	url := fmt.Sprintf("http://%s/json/version", addr)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &domain.ConnectionError{Endpoint: addr, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", &domain.ConnectionError{Endpoint: addr, Err: fmt.Errorf("debugging endpoint unreachable: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &domain.ConnectionError{Endpoint: addr, Err: fmt.Errorf("debugging endpoint returned status: %d", resp.StatusCode)}
	}

	var version versionResponse
	if err := json.NewDecoder(resp.Body).Decode(&version); err != nil {
		return "", &domain.ConnectionError{Endpoint: addr, Err: fmt.Errorf("failed to decode version response: %w", err)}
	}

	if version.WebSocketDebuggerURL == "" {
		return "", &domain.ConnectionError{Endpoint: addr, Err: errors.New("version response has no webSocketDebuggerUrl")}
	}

	return version.WebSocketDebuggerURL, nil
}
