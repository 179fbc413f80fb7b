package identity

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/remnika/wallet/internal/apperr"
)

// Handler exposes the authenticated user's profile.
type Handler struct {
	service *Service
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type profileResponse struct {
	UserID     string `json:"user_id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Country    string `json:"country"`
	IsVerified bool   `json:"is_verified"`
	KYCStatus  string `json:"kyc_status"`
}

// Me returns the profile of the caller.
func (h *Handler) Me(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	user, err := h.service.Resolve(c.UserContext(), userID)
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	return c.Status(http.StatusOK).JSON(profileResponse{
		UserID:     user.ID,
		FullName:   user.FullName,
		Email:      user.Email,
		Country:    user.Country,
		IsVerified: user.IsVerified,
		KYCStatus:  user.KYCStatus,
	})
}
