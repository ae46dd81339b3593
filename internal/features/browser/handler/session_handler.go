package handler

import (
	"errors"
	"net/http"

	"order-scrapper/internal/core/logger"
	"order-scrapper/internal/features/browser/domain"
	"order-scrapper/internal/features/browser/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SessionHandler exposes the connect/disconnect actions of the browser session.
type SessionHandler struct {
	sessions *service.SessionManager
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions *service.SessionManager) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
	}
}

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
}

func rayID(c *fiber.Ctx) string {
	id, ok := c.Locals("requestid").(string)
	if !ok {
		return "unknown"
	}
	return id
}

// Connect handles POST /session.
// It attaches to the operator's browser and opens the orders listing.
func (h *SessionHandler) Connect(c *fiber.Ctx) error {
	info, err := h.sessions.Connect(c.UserContext())
	if err != nil {
		logger.Get().Error("Failed to connect browser session",
			zap.String("ray_id", rayID(c)),
			zap.Error(err),
		)

		status := http.StatusInternalServerError
		var connErr *domain.ConnectionError
		var navErr *domain.NavigationError
		switch {
		case errors.Is(err, domain.ErrAlreadyConnected):
			status = http.StatusConflict
		case errors.As(err, &connErr), errors.As(err, &navErr):
			status = http.StatusBadGateway
		}

		return c.Status(status).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}

	return c.Status(http.StatusOK).JSON(info)
}

// Status handles GET /session.
func (h *SessionHandler) Status(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(h.sessions.Status())
}

// Disconnect handles DELETE /session.
func (h *SessionHandler) Disconnect(c *fiber.Ctx) error {
	if err := h.sessions.Disconnect(); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, domain.ErrNoSession):
			status = http.StatusNotFound
		case errors.Is(err, domain.ErrSessionBusy):
			status = http.StatusConflict
		default:
			logger.Get().Error("Failed to disconnect browser session", zap.Error(err))
		}

		return c.Status(status).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}

	return c.SendStatus(http.StatusNoContent)
}
