package funding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/remnika/wallet/internal/apperr"
	"github.com/remnika/wallet/internal/identity"
	"github.com/remnika/wallet/internal/ledger"
	"github.com/remnika/wallet/internal/money"
	"github.com/remnika/wallet/internal/notification"
	"github.com/remnika/wallet/internal/wallet"
)

var (
	// ErrInvalidAmount rejects zero and negative amounts.
	ErrInvalidAmount = apperr.New(apperr.KindInvalidOperation, "amount must be greater than zero")

	// ErrPaymentIDRequired is returned when a verification carries no payment id.
	ErrPaymentIDRequired = apperr.New(apperr.KindInvalidOperation, "payment id is required")

	// ErrPaymentDeclined is returned when the gateway does not approve.
	ErrPaymentDeclined = apperr.New(apperr.KindInvalidOperation, "payment declined by gateway")
)

const statusApproved = "approved"

// Service coordinates deposits and withdrawals through the gateway and the
// wallet ledger.
type Service struct {
	wallets  *wallet.Service
	acquirer Acquirer
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService prepares a funding service.
func NewService(wallets *wallet.Service, acquirer Acquirer, notifier notification.Notifier, logger *slog.Logger) (*Service, error) {
	if wallets == nil {
		return nil, fmt.Errorf("wallet service is required")
	}
	if acquirer == nil {
		return nil, fmt.Errorf("payment acquirer is required")
	}
	return &Service{wallets: wallets, acquirer: acquirer, notifier: notifier, logger: logger}, nil
}

// FundingResult represents the domain outcome of a deposit or withdrawal.
type FundingResult struct {
	Entry             ledger.Entry
	WalletBalance     decimal.Decimal
	AcquirerReference string
	CompletedAt       time.Time
}

// Initiate opens a gateway order for a deposit into the caller's wallet.
func (s *Service) Initiate(ctx context.Context, user identity.User, amount decimal.Decimal) (Order, error) {
	amount = money.Normalize(amount)
	if !amount.IsPositive() {
		return Order{}, ErrInvalidAmount
	}
	w, err := s.wallets.Initialize(ctx, user)
	if err != nil {
		return Order{}, err
	}
	order, err := s.acquirer.CreateOrder(ctx, OrderRequest{Amount: amount, Currency: w.Currency})
	if err != nil {
		return Order{}, fmt.Errorf("create gateway order: %w", err)
	}
	s.logger.Info("funding.order_created",
		slog.String("user_id", user.ID),
		slog.String("order_id", order.ID),
		slog.String("amount", money.Format(amount)),
		slog.String("currency", w.Currency),
	)
	return order, nil
}

// Verify confirms a gateway payment and credits the wallet. The payment id
// becomes the log reference, so a payment is credited at most once.
func (s *Service) Verify(ctx context.Context, user identity.User, in PaymentVerification) (FundingResult, error) {
	in.PaymentID = strings.TrimSpace(in.PaymentID)
	if in.PaymentID == "" {
		return FundingResult{}, ErrPaymentIDRequired
	}
	in.Amount = money.Normalize(in.Amount)
	if !in.Amount.IsPositive() {
		return FundingResult{}, ErrInvalidAmount
	}
	if _, err := s.wallets.Initialize(ctx, user); err != nil {
		return FundingResult{}, err
	}

	decision, err := s.acquirer.VerifyPayment(ctx, in)
	if err != nil {
		return FundingResult{}, fmt.Errorf("verify payment: %w", err)
	}
	if decision.Status != statusApproved {
		return FundingResult{}, fmt.Errorf("%w: %s", ErrPaymentDeclined, decision.Status)
	}

	entry, err := s.wallets.AddMoney(ctx, user.ID, in.Amount, in.PaymentID)
	if err != nil {
		return FundingResult{}, err
	}
	res, err := s.result(ctx, user.ID, entry, decision.Reference)
	if err != nil {
		return FundingResult{}, err
	}
	s.notifyDeposit(ctx, user, in, entry)
	return res, nil
}

func (s *Service) notifyDeposit(ctx context.Context, user identity.User, in PaymentVerification, entry ledger.Entry) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Send(ctx, notification.Message{
		Kind:        notification.KindDepositCompleted,
		Destination: user.ID,
		Body:        fmt.Sprintf("Deposit of %s %s credited", money.Format(entry.Amount), entry.Currency),
		Attributes:  map[string]string{"payment_id": in.PaymentID, "order_id": in.OrderID},
	})
	if err != nil {
		s.logger.Warn("funding.notify_failed",
			slog.String("user_id", user.ID),
			slog.String("payment_id", in.PaymentID),
			slog.Any("error", err),
		)
	}
}

// Withdraw authorizes a payout and deducts the amount from the wallet.
func (s *Service) Withdraw(ctx context.Context, user identity.User, amount decimal.Decimal) (FundingResult, error) {
	amount = money.Normalize(amount)
	if !amount.IsPositive() {
		return FundingResult{}, ErrInvalidAmount
	}
	w, err := s.wallets.ForUser(ctx, user.ID)
	if err != nil {
		return FundingResult{}, err
	}
	if w.Balance.LessThan(amount) {
		return FundingResult{}, fmt.Errorf("%w: balance %s %s, requested %s", ledger.ErrInsufficientFunds,
			w.Currency, money.Format(w.Balance), money.Format(amount))
	}

	decision, err := s.acquirer.AuthorizePayout(ctx, PayoutAuthorization{Amount: amount, Currency: w.Currency})
	if err != nil {
		return FundingResult{}, fmt.Errorf("authorize payout: %w", err)
	}
	if decision.Status != statusApproved {
		return FundingResult{}, fmt.Errorf("%w: %s", ErrPaymentDeclined, decision.Status)
	}

	entry, err := s.wallets.DeductMoney(ctx, user.ID, amount, decision.Reference)
	if err != nil {
		return FundingResult{}, err
	}
	return s.result(ctx, user.ID, entry, decision.Reference)
}

func (s *Service) result(ctx context.Context, userID string, entry ledger.Entry, ref string) (FundingResult, error) {
	w, err := s.wallets.ForUser(ctx, userID)
	if err != nil {
		return FundingResult{}, err
	}
	return FundingResult{
		Entry:             entry,
		WalletBalance:     w.Balance,
		AcquirerReference: ref,
		CompletedAt:       entry.CreatedAt,
	}, nil
}
