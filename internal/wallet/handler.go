package wallet

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/remnika/wallet/internal/apperr"
	"github.com/remnika/wallet/internal/identity"
	"github.com/remnika/wallet/internal/ledger"
	"github.com/remnika/wallet/internal/money"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
	users   *identity.Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service, users *identity.Service) *Handler {
	return &Handler{service: service, users: users}
}

type walletResponse struct {
	ID            string `json:"id"`
	AccountNumber string `json:"account_number"`
	Currency      string `json:"currency"`
	Balance       string `json:"balance"`
}

type entryResponse struct {
	ID        string    `json:"id"`
	Amount    string    `json:"amount"`
	Currency  string    `json:"currency"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Reference string    `json:"reference"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) caller(c *fiber.Ctx) (identity.User, error) {
	userID, _ := c.Locals("user_id").(string)
	user, err := h.users.Resolve(c.UserContext(), userID)
	if err != nil {
		return identity.User{}, fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	return user, nil
}

// Initialize provisions the caller's wallet if it does not exist yet.
func (h *Handler) Initialize(c *fiber.Ctx) error {
	user, err := h.caller(c)
	if err != nil {
		return err
	}
	w, err := h.service.Initialize(c.UserContext(), user)
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	return c.Status(http.StatusCreated).JSON(walletResponse{
		ID:            w.ID,
		AccountNumber: w.AccountNumber,
		Currency:      w.Currency,
		Balance:       money.Format(w.Balance),
	})
}

// Balance returns the caller's balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	user, err := h.caller(c)
	if err != nil {
		return err
	}
	balance, err := h.service.Balance(c.UserContext(), user)
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"wallet_id":      balance.WalletID,
		"account_number": balance.AccountNumber,
		"currency":       balance.Currency,
		"balance":        money.Format(balance.Amount),
		"timestamp":      balance.AsOf,
	})
}

// History returns the caller's transaction log, most recent first.
func (h *Handler) History(c *fiber.Ctx) error {
	user, err := h.caller(c)
	if err != nil {
		return err
	}
	entries, err := h.service.History(c.UserContext(), user.ID)
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": toEntryResponses(entries)})
}

func toEntryResponses(entries []ledger.Entry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:        e.ID,
			Amount:    money.Format(e.Amount),
			Currency:  e.Currency,
			Type:      e.Type,
			Status:    e.Status,
			Reference: e.Reference,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}
