package handler

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"order-scrapper/internal/features/browser/browsertest"
	"order-scrapper/internal/features/browser/domain"
	"order-scrapper/internal/features/browser/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApp(resolver browsertest.Resolver, session *browsertest.Session) *fiber.App {
	sessions := service.NewSessionManager(resolver, &browsertest.Connector{Session: session}, service.Options{}, nil)
	handler := NewSessionHandler(sessions)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "test-ray-id")
		return c.Next()
	})
	app.Post("/session", handler.Connect)
	app.Get("/session", handler.Status)
	app.Delete("/session", handler.Disconnect)
	return app
}

// TestSessionHandler_Lifecycle verifies connect, status and disconnect.
func TestSessionHandler_Lifecycle(t *testing.T) {
	app := setupApp(browsertest.Resolver{URL: "ws://127.0.0.1:9222/devtools/browser/1"}, browsertest.NewSession("https://admin.weedmaps.com/orders", nil))

	resp, err := app.Test(httptest.NewRequest("POST", "/session", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var info domain.SessionInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.True(t, info.Connected)
	assert.Equal(t, "ws://127.0.0.1:9222/devtools/browser/1", info.ControlURL)

	resp, err = app.Test(httptest.NewRequest("POST", "/session", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/session", nil))
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.True(t, info.Connected)

	resp, err = app.Test(httptest.NewRequest("DELETE", "/session", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("DELETE", "/session", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

// TestSessionHandler_Connect_BadGateway verifies that an unreachable browser maps to 502.
func TestSessionHandler_Connect_BadGateway(t *testing.T) {
	resolver := browsertest.Resolver{Err: &domain.ConnectionError{Endpoint: "localhost:9222", Err: errors.New("connection refused")}}
	app := setupApp(resolver, nil)

	resp, err := app.Test(httptest.NewRequest("POST", "/session", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Contains(t, errResp.Message, "connection refused")
	assert.Equal(t, "test-ray-id", errResp.RayID)
}
