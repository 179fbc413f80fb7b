package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/remnika/wallet/internal/transfer"
)

// RegisterTransferRoutes wires peer transfer endpoints behind the rate limiter.
func RegisterTransferRoutes(r fiber.Router, h *transfer.Handler, rateLimiter fiber.Handler) {
	if rateLimiter != nil {
		r.Post("/transfers/send", rateLimiter, h.Send)
		return
	}
	r.Post("/transfers/send", h.Send)
}
