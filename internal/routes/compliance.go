package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/remnika/wallet/internal/compliance"
)

// RegisterComplianceRoutes wires risk reporting and the transfer pre-check.
func RegisterComplianceRoutes(r fiber.Router, h *compliance.Handler) {
	r.Get("/compliance/risk-score", h.RiskScore)
	r.Post("/compliance/check", h.Check)
}
