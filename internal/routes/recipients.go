package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/remnika/wallet/internal/recipients"
)

// RegisterRecipientRoutes wires saved recipient endpoints.
func RegisterRecipientRoutes(r fiber.Router, h *recipients.Handler) {
	r.Post("/recipients", h.Save)
	r.Get("/recipients", h.List)
}
