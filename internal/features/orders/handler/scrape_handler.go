package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"order-scrapper/internal/core/logger"
	browserdomain "order-scrapper/internal/features/browser/domain"
	"order-scrapper/internal/features/orders/domain"
	"order-scrapper/internal/features/orders/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ScrapeHandler handles HTTP requests that run and report scrapes.
type ScrapeHandler struct {
	service *service.ScrapeService
}

// NewScrapeHandler creates a new instance of ScrapeHandler.
func NewScrapeHandler(s *service.ScrapeService) *ScrapeHandler {
	return &ScrapeHandler{
		service: s,
	}
}

// ScrapeResponse is returned for every scrape that ran, successful or not.
type ScrapeResponse struct {
	// Message summarises the run.
	Message string `json:"message"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
	// Outcome holds counts, records and skipped references.
	Outcome *domain.ScrapeOutcome `json:"outcome,omitempty"`
}

// ErrorResponse represents the structure of an error response.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for debugging.
	RayID string `json:"ray_id,omitempty"`
}

func rayID(c *fiber.Ctx) string {
	id, ok := c.Locals("requestid").(string)
	if !ok {
		return "unknown"
	}
	return id
}

// Scrape handles POST /scrape.
// The optional JSON body overrides max_items and output_path.
func (h *ScrapeHandler) Scrape(c *fiber.Ctx) error {
	var req domain.RunRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
				Message: "Invalid request body",
				RayID:   rayID(c),
			})
		}
	}

	outcome, err := h.service.Scrape(c.UserContext(), req)
	if err != nil {
		logger.Get().Error("Scrape failed",
			zap.String("ray_id", rayID(c)),
			zap.Error(err),
		)

		var listingErr *domain.ListingError
		var persistErr *domain.PersistenceError
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, service.ErrInvalidMaxItems):
			status = http.StatusBadRequest
		case errors.Is(err, browserdomain.ErrNoSession), errors.Is(err, browserdomain.ErrSessionBusy):
			status = http.StatusConflict
		case errors.As(err, &listingErr):
			status = http.StatusUnprocessableEntity
		case errors.As(err, &persistErr):
			status = http.StatusInternalServerError
		case errors.Is(err, context.Canceled):
			status = http.StatusServiceUnavailable
		}

		if outcome == nil {
			return c.Status(status).JSON(ErrorResponse{
				Message: err.Error(),
				RayID:   rayID(c),
			})
		}
		return c.Status(status).JSON(ScrapeResponse{
			Message: err.Error(),
			RayID:   rayID(c),
			Outcome: outcome,
		})
	}

	return c.Status(http.StatusOK).JSON(ScrapeResponse{
		Message: fmt.Sprintf("Scraped %d of %d orders. Saved to %s", outcome.TotalExtracted, outcome.TotalFound, outcome.OutputPath),
		RayID:   rayID(c),
		Outcome: outcome,
	})
}

// LastRun handles GET /scrape/last.
func (h *ScrapeHandler) LastRun(c *fiber.Ctx) error {
	summary, err := h.service.LastRun(c.UserContext())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrHistoryDisabled) {
			status = http.StatusNotFound
		} else {
			logger.Get().Error("Failed to load last run", zap.String("ray_id", rayID(c)), zap.Error(err))
		}
		return c.Status(status).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}

	if summary == nil {
		return c.Status(http.StatusNotFound).JSON(ErrorResponse{
			Message: "No scrape has run yet",
			RayID:   rayID(c),
		})
	}

	return c.Status(http.StatusOK).JSON(summary)
}
