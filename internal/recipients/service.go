package recipients

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SaveInput carries the recipient details submitted by a user.
type SaveInput struct {
	FirstName     string
	LastName      string
	Country       string
	BankName      string
	AccountNumber string
}

// Service stores and lists saved recipients.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a recipient service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Save sanitizes and validates the account number for the recipient's
// country, then stores the profile under the user.
func (s *Service) Save(ctx context.Context, userID string, in SaveInput) (Recipient, error) {
	country := strings.TrimSpace(in.Country)
	acct := Sanitize(country, in.AccountNumber)
	if err := ValidateAccountNumber(country, acct); err != nil {
		return Recipient{}, err
	}
	if strings.TrimSpace(in.FirstName) == "" {
		return Recipient{}, fmt.Errorf("%w: first name is required", ErrInvalidRecipient)
	}

	rec := Recipient{
		ID:            uuid.NewString(),
		UserID:        userID,
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		Country:       country,
		BankName:      strings.TrimSpace(in.BankName),
		AccountNumber: acct,
		CreatedAt:     s.now(),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return Recipient{}, fmt.Errorf("save recipient: %w", err)
	}
	s.logger.Info("recipient.saved",
		slog.String("user_id", userID),
		slog.String("recipient_id", rec.ID),
		slog.String("country", country),
	)
	return rec, nil
}

// List returns the user's saved recipients in the order they were added.
func (s *Service) List(ctx context.Context, userID string) ([]Recipient, error) {
	return s.repo.ListByUser(ctx, userID)
}
