package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/remnika/wallet/internal/funding"
)

// RegisterFundingRoutes wires gateway deposit and withdrawal endpoints.
func RegisterFundingRoutes(r fiber.Router, h *funding.Handler) {
	r.Post("/payments/initiate", h.Initiate)
	r.Post("/payments/verify", h.Verify)
	r.Post("/payments/withdraw", h.Withdraw)
}
