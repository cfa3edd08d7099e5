package handler

import (
	"strconv"

	"shopwatch/internal/features/watch/service"

	"github.com/gofiber/fiber/v2"
)

// StatusHandler serves the read-only tracking status API.
type StatusHandler struct {
	board *service.Board
}

// NewStatusHandler creates a StatusHandler over the given board.
func NewStatusHandler(board *service.Board) *StatusHandler {
	return &StatusHandler{
		board: board,
	}
}

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
}

// ListProducts returns the current view of every tracked product.
func (h *StatusHandler) ListProducts(c *fiber.Ctx) error {
	return c.JSON(h.board.List())
}

// GetProduct returns the current view of one tracked product.
func (h *StatusHandler) GetProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Message: "product id must be a positive integer",
			RayID:   rayID(c),
		})
	}

	view, ok := h.board.Get(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Message: "product is not tracked",
			RayID:   rayID(c),
		})
	}

	return c.JSON(view)
}

func rayID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
