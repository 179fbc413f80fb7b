package recipients

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/remnika/wallet/internal/apperr"
	"github.com/remnika/wallet/internal/identity"
)

// Handler exposes recipient endpoints.
type Handler struct {
	service *Service
	users   *identity.Service
}

// NewHandler constructs a recipient handler.
func NewHandler(service *Service, users *identity.Service) *Handler {
	return &Handler{service: service, users: users}
}

type saveRequest struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Country       string `json:"country"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
}

type recipientResponse struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Country       string    `json:"country"`
	BankName      string    `json:"bank_name"`
	AccountNumber string    `json:"account_number"`
	CreatedAt     time.Time `json:"created_at"`
}

func (h *Handler) caller(c *fiber.Ctx) (identity.User, error) {
	userID, _ := c.Locals("user_id").(string)
	user, err := h.users.Resolve(c.UserContext(), userID)
	if err != nil {
		return identity.User{}, fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	return user, nil
}

// Save stores a recipient for the caller.
func (h *Handler) Save(c *fiber.Ctx) error {
	var req saveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.caller(c)
	if err != nil {
		return err
	}
	rec, err := h.service.Save(c.UserContext(), user.ID, SaveInput(req))
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toResponse(rec))
}

// List returns the caller's saved recipients.
func (h *Handler) List(c *fiber.Ctx) error {
	user, err := h.caller(c)
	if err != nil {
		return err
	}
	recs, err := h.service.List(c.UserContext(), user.ID)
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	out := make([]recipientResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toResponse(rec))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"recipients": out})
}

func toResponse(rec Recipient) recipientResponse {
	return recipientResponse{
		ID:            rec.ID,
		FirstName:     rec.FirstName,
		LastName:      rec.LastName,
		Country:       rec.Country,
		BankName:      rec.BankName,
		AccountNumber: rec.AccountNumber,
		CreatedAt:     rec.CreatedAt,
	}
}
