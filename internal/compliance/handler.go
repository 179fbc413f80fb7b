package compliance

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/remnika/wallet/internal/apperr"
	"github.com/remnika/wallet/internal/identity"
	"github.com/remnika/wallet/internal/ledger"
	"github.com/remnika/wallet/internal/money"
)

type walletFinder interface {
	WalletByOwner(ctx context.Context, ownerID string) (ledger.Wallet, error)
}

// Handler exposes risk reporting and the transfer pre-check.
type Handler struct {
	gate    *Gate
	users   *identity.Service
	wallets walletFinder
}

// NewHandler constructs a compliance HTTP handler.
func NewHandler(gate *Gate, users *identity.Service, wallets walletFinder) *Handler {
	return &Handler{gate: gate, users: users, wallets: wallets}
}

// RiskScore reports the caller's score and band.
func (h *Handler) RiskScore(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	user, err := h.users.Resolve(c.UserContext(), userID)
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	score := RiskScore(user)
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"user_id":    user.ID,
		"risk_score": score,
		"risk_level": Band(score),
		"kyc_status": user.KYCStatus,
	})
}

type checkRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Check dry-runs AML screening and the daily limit for a proposed amount.
func (h *Handler) Check(c *fiber.Ctx) error {
	var req checkRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount := money.Normalize(req.Amount)
	if !amount.IsPositive() {
		return fiber.NewError(http.StatusBadRequest, "amount must be greater than zero")
	}

	userID, _ := c.Locals("user_id").(string)
	user, err := h.users.Resolve(c.UserContext(), userID)
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	w, err := h.wallets.WalletByOwner(c.UserContext(), user.ID)
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	res, err := h.gate.Check(c.UserContext(), user, w.ID, amount)
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"allowed":     res.Allowed,
		"reason":      res.Reason,
		"currency":    w.Currency,
		"daily_limit": money.Format(res.Limit),
		"used":        money.Format(res.Used),
		"remaining":   money.Format(res.Remaining),
	})
}
