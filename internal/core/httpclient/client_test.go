package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// TestLoggingRoundTripper verifies that completed requests are logged.
func TestLoggingRoundTripper(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	core, logs := observer.New(zap.DebugLevel)
	client := &http.Client{
		Transport: &LoggingRoundTripper{Proxied: http.DefaultTransport, Logger: zap.New(core)},
		Timeout:   time.Second,
	}

	resp, err := client.Get(ts.URL + "/json/version")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	completed := logs.FilterMessage("HTTP Request Completed").All()
	require.Len(t, completed, 1)
	assert.Equal(t, int64(http.StatusOK), completed[0].ContextMap()["status_code"])
}

// TestLoggingRoundTripper_Error verifies that failed requests are logged and returned.
func TestLoggingRoundTripper_Error(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	client := &http.Client{
		Transport: &LoggingRoundTripper{Proxied: http.DefaultTransport, Logger: zap.New(core)},
		Timeout:   time.Second,
	}

	_, err := client.Get("http://127.0.0.1:1/json/version")
	require.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("HTTP Request Failed").Len())
}

// TestNewClient verifies the client wiring.
func TestNewClient(t *testing.T) {
	client := NewClient(2 * time.Second)
	assert.Equal(t, 2*time.Second, client.Timeout)
	assert.IsType(t, &LoggingRoundTripper{}, client.Transport)
}
