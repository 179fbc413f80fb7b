package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/remnika/wallet/internal/apperr"
	"github.com/remnika/wallet/internal/compliance"
	"github.com/remnika/wallet/internal/fx"
	"github.com/remnika/wallet/internal/identity"
	"github.com/remnika/wallet/internal/ledger"
	"github.com/remnika/wallet/internal/money"
	"github.com/remnika/wallet/internal/notification"
)

var (
	// ErrSenderWalletNotFound is returned when the caller has no wallet.
	ErrSenderWalletNotFound = apperr.New(apperr.KindNotFound, "sender wallet not found")

	// ErrRecipientNotFound is returned when no wallet carries the destination
	// account number.
	ErrRecipientNotFound = apperr.New(apperr.KindNotFound, "recipient account not found")

	// ErrSelfTransfer rejects transfers whose sender and recipient resolve to
	// the same wallet.
	ErrSelfTransfer = apperr.New(apperr.KindInvalidOperation, "cannot transfer to your own wallet")

	// ErrInvalidAmount rejects zero and negative amounts.
	ErrInvalidAmount = apperr.New(apperr.KindInvalidOperation, "amount must be greater than zero")
)

const defaultMaxRetries = 2

// Service executes peer-to-peer transfers.
type Service struct {
	ledger     ledger.Ledger
	gate       *compliance.Gate
	rates      fx.Provider
	notifier   notification.Notifier
	logger     *slog.Logger
	maxRetries int
}

// NewService constructs a transfer service. maxRetries bounds how often a
// persistence conflict is retried before it is surfaced.
func NewService(led ledger.Ledger, gate *compliance.Gate, rates fx.Provider, notifier notification.Notifier, logger *slog.Logger, maxRetries int) *Service {
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	return &Service{
		ledger:     led,
		gate:       gate,
		rates:      rates,
		notifier:   notifier,
		logger:     logger,
		maxRetries: maxRetries,
	}
}

// SendInput captures a peer transfer request.
type SendInput struct {
	Sender                 identity.User
	RecipientAccountNumber string
	Amount                 decimal.Decimal
	Description            string
}

// Result describes a committed transfer.
type Result struct {
	CorrelationID     string
	SenderWalletID    string
	RecipientWalletID string
	AmountSent        decimal.Decimal
	SentCurrency      string
	AmountReceived    decimal.Decimal
	ReceivedCurrency  string
	Rate              decimal.Decimal
	SenderBalance     decimal.Decimal
	CompletedAt       time.Time
}

// Send moves funds from the sender's wallet to the wallet holding the
// recipient account number. Checks run in a fixed order so the reported
// failure is deterministic: wallets, self-transfer, AML, daily limit, rate,
// balance. Either both ledger legs commit or neither does.
func (s *Service) Send(ctx context.Context, in SendInput) (Result, error) {
	amount := money.Normalize(in.Amount)
	if !amount.IsPositive() {
		return Result{}, ErrInvalidAmount
	}

	sender, err := s.ledger.WalletByOwner(ctx, in.Sender.ID)
	if err != nil {
		if errors.Is(err, ledger.ErrWalletNotFound) {
			return Result{}, ErrSenderWalletNotFound
		}
		return Result{}, err
	}
	recipient, err := s.ledger.WalletByAccountNumber(ctx, strings.TrimSpace(in.RecipientAccountNumber))
	if err != nil {
		if errors.Is(err, ledger.ErrWalletNotFound) {
			return Result{}, fmt.Errorf("%w: %s", ErrRecipientNotFound, in.RecipientAccountNumber)
		}
		return Result{}, err
	}
	if sender.ID == recipient.ID {
		return Result{}, ErrSelfTransfer
	}

	if err := s.gate.Authorize(ctx, in.Sender, sender.ID, amount); err != nil {
		return Result{}, err
	}

	rate, err := s.rates.Rate(ctx, sender.Currency, recipient.Currency)
	if err != nil {
		if apperr.KindOf(err) == "" {
			err = fmt.Errorf("%w: %v", fx.ErrRateUnavailable, err)
		}
		return Result{}, err
	}
	received := money.Convert(amount, rate)
	if !received.IsPositive() {
		return Result{}, fmt.Errorf("%w: %s %s converts to nothing in %s", ErrInvalidAmount,
			money.Format(amount), sender.Currency, recipient.Currency)
	}

	// Early read for a clear message; the ledger re-checks balance and limit
	// under lock.
	if sender.Balance.LessThan(amount) {
		return Result{}, fmt.Errorf("%w: balance %s %s, requested %s", ledger.ErrInsufficientFunds,
			sender.Currency, money.Format(sender.Balance), money.Format(amount))
	}

	correlationID := uuid.NewString()[:8]
	debit := ledger.Posting{
		WalletID:  sender.ID,
		Amount:    amount,
		Type:      ledger.TypeTransferSent,
		Reference: fmt.Sprintf("TO: %s [%s]", recipient.AccountNumber, correlationID),
		Limit:     s.gate.OutflowGuard(),
	}
	credit := ledger.Posting{
		WalletID:  recipient.ID,
		Amount:    received,
		Type:      ledger.TypeTransferReceived,
		Reference: fmt.Sprintf("FROM: %s [%s]", sender.AccountNumber, correlationID),
	}

	res, err := s.commit(ctx, debit, credit, correlationID)
	if err != nil {
		if errors.Is(err, ledger.ErrLimitExceeded) {
			s.logger.Warn("transfer.limit_exceeded_at_commit",
				slog.String("correlation_id", correlationID),
				slog.String("sender_wallet_id", sender.ID),
				slog.String("amount", money.Format(amount)),
			)
		}
		return Result{}, err
	}

	out := Result{
		CorrelationID:     correlationID,
		SenderWalletID:    sender.ID,
		RecipientWalletID: recipient.ID,
		AmountSent:        amount,
		SentCurrency:      sender.Currency,
		AmountReceived:    received,
		ReceivedCurrency:  recipient.Currency,
		Rate:              rate,
		SenderBalance:     res.DebitBalance,
		CompletedAt:       res.Debit.CreatedAt,
	}
	s.logger.Info("transfer.completed",
		slog.String("correlation_id", correlationID),
		slog.String("sender_wallet_id", sender.ID),
		slog.String("recipient_wallet_id", recipient.ID),
		slog.String("amount_sent", money.Format(amount)),
		slog.String("sent_currency", sender.Currency),
		slog.String("amount_received", money.Format(received)),
		slog.String("received_currency", recipient.Currency),
		slog.String("rate", rate.String()),
	)
	s.notify(ctx, in, recipient, out)
	return out, nil
}

// commit runs the two-legged posting, retrying persistence conflicts only.
func (s *Service) commit(ctx context.Context, debit, credit ledger.Posting, correlationID string) (ledger.TransferResult, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		res, err := s.ledger.Transfer(ctx, debit, credit)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, ledger.ErrConflict) {
			return ledger.TransferResult{}, err
		}
		lastErr = err
		s.logger.Warn("transfer.conflict_retry",
			slog.String("correlation_id", correlationID),
			slog.Int("attempt", attempt+1),
			slog.Any("error", err),
		)
		if err := ctx.Err(); err != nil {
			return ledger.TransferResult{}, err
		}
	}
	return ledger.TransferResult{}, lastErr
}

func (s *Service) notify(ctx context.Context, in SendInput, recipient ledger.Wallet, res Result) {
	if s.notifier == nil {
		return
	}
	body := fmt.Sprintf("You received %s %s", money.Format(res.AmountReceived), res.ReceivedCurrency)
	if in.Description != "" {
		body += ": " + in.Description
	}
	err := s.notifier.Send(ctx, notification.Message{
		Kind:        notification.KindTransferCompleted,
		Destination: recipient.OwnerID,
		Body:        body,
		Attributes: map[string]string{
			"correlation_id":      res.CorrelationID,
			"sender_wallet_id":    res.SenderWalletID,
			"recipient_wallet_id": res.RecipientWalletID,
			"amount_sent":         money.Format(res.AmountSent),
			"sent_currency":       res.SentCurrency,
			"amount_received":     money.Format(res.AmountReceived),
			"received_currency":   res.ReceivedCurrency,
			"rate":                res.Rate.String(),
		},
	})
	if err != nil {
		s.logger.Warn("transfer.notify_failed", slog.String("correlation_id", res.CorrelationID), slog.Any("error", err))
	}
}
