package funding

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/remnika/wallet/internal/apperr"
	"github.com/remnika/wallet/internal/identity"
	"github.com/remnika/wallet/internal/money"
)

// Handler exposes HTTP endpoints for deposit and withdrawal flows.
type Handler struct {
	service *Service
	users   *identity.Service
}

// NewHandler constructs a funding handler.
func NewHandler(service *Service, users *identity.Service) *Handler {
	return &Handler{service: service, users: users}
}

func (h *Handler) caller(c *fiber.Ctx) (identity.User, error) {
	userID, _ := c.Locals("user_id").(string)
	user, err := h.users.Resolve(c.UserContext(), userID)
	if err != nil {
		return identity.User{}, fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	return user, nil
}

// Initiate opens a deposit order with the gateway.
func (h *Handler) Initiate(c *fiber.Ctx) error {
	var req InitiateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.caller(c)
	if err != nil {
		return err
	}
	order, err := h.service.Initiate(c.UserContext(), user, req.Amount)
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	return c.Status(http.StatusCreated).JSON(InitiateResponse{
		GatewayOrderID: order.ID,
		Status:         order.Status,
		Amount:         money.Format(order.Amount),
		Currency:       order.Currency,
	})
}

// Verify credits a confirmed gateway payment.
func (h *Handler) Verify(c *fiber.Ctx) error {
	var req VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.caller(c)
	if err != nil {
		return err
	}
	result, err := h.service.Verify(c.UserContext(), user, PaymentVerification{
		PaymentID: req.PaymentID,
		OrderID:   req.OrderID,
		Amount:    req.Amount,
	})
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toResponse(result))
}

// Withdraw deducts funds from the caller's wallet.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	var req WithdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.caller(c)
	if err != nil {
		return err
	}
	result, err := h.service.Withdraw(c.UserContext(), user, req.Amount)
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toResponse(result))
}

func toResponse(result FundingResult) FundingResponse {
	return FundingResponse{
		TransactionID:     result.Entry.ID,
		Status:            result.Entry.Status,
		Amount:            money.Format(result.Entry.Amount),
		Currency:          result.Entry.Currency,
		WalletBalance:     money.Format(result.WalletBalance),
		AcquirerReference: result.AcquirerReference,
		CompletedAt:       result.CompletedAt,
	}
}
