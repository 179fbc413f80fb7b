package identity

import (
	"context"
	"strings"

	"github.com/remnika/wallet/internal/apperr"
)

var (
	// ErrUnauthenticated is returned when no principal accompanies a request.
	ErrUnauthenticated = apperr.New(apperr.KindUnauthenticated, "authentication required")

	// ErrUserNotFound is returned when the principal has no user record.
	ErrUserNotFound = apperr.New(apperr.KindNotFound, "user not found")
)

// Service resolves authenticated principals to users.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolve returns the user behind an authenticated principal (the token
// subject).
func (s *Service) Resolve(ctx context.Context, principal string) (User, error) {
	principal = strings.TrimSpace(principal)
	if principal == "" {
		return User{}, ErrUnauthenticated
	}
	user, err := s.repo.FindByID(ctx, principal)
	if err != nil {
		return User{}, err
	}
	if user.KYCStatus == "" {
		user.KYCStatus = KYCNotSubmitted
	}
	return user, nil
}
