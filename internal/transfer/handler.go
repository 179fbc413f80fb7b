package transfer

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/remnika/wallet/internal/apperr"
	"github.com/remnika/wallet/internal/identity"
	"github.com/remnika/wallet/internal/money"
)

// Handler exposes transfer endpoints.
type Handler struct {
	service *Service
	users   *identity.Service
}

// NewHandler constructs a transfer handler.
func NewHandler(service *Service, users *identity.Service) *Handler {
	return &Handler{service: service, users: users}
}

type sendRequest struct {
	RecipientAccountNumber string          `json:"recipient_account_number"`
	Amount                 decimal.Decimal `json:"amount"`
	Description            string          `json:"description"`
}

// Send processes a peer-to-peer transfer for the authenticated sender.
func (h *Handler) Send(c *fiber.Ctx) error {
	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.RecipientAccountNumber == "" {
		return fiber.NewError(http.StatusBadRequest, "recipient_account_number is required")
	}

	userID, _ := c.Locals("user_id").(string)
	sender, err := h.users.Resolve(c.UserContext(), userID)
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}

	res, err := h.service.Send(c.UserContext(), SendInput{
		Sender:                 sender,
		RecipientAccountNumber: req.RecipientAccountNumber,
		Amount:                 req.Amount,
		Description:            req.Description,
	})
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"correlation_id":    res.CorrelationID,
		"amount_sent":       money.Format(res.AmountSent),
		"sent_currency":     res.SentCurrency,
		"amount_received":   money.Format(res.AmountReceived),
		"received_currency": res.ReceivedCurrency,
		"rate":              res.Rate.String(),
		"balance":           money.Format(res.SenderBalance),
		"completed_at":      res.CompletedAt,
	})
}
