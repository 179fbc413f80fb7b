package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/remnika/wallet/internal/wallet"
)

// RegisterWalletRoutes wires wallet-related endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Post("/wallet", h.Initialize)
	r.Get("/wallet/balance", h.Balance)
	r.Get("/wallet/history", h.History)
}
