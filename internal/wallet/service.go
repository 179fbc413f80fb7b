package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/remnika/wallet/internal/config"
	"github.com/remnika/wallet/internal/identity"
	"github.com/remnika/wallet/internal/ledger"
)

const maxAccountNumberAttempts = 5

// Service exposes wallet operations backed by the ledger.
type Service struct {
	ledger        ledger.Ledger
	rules         config.Compliance
	logger        *slog.Logger
	accountNumber func() (string, error)
}

// NewService builds a wallet service instance.
func NewService(led ledger.Ledger, rules config.Compliance, logger *slog.Logger) *Service {
	return &Service{ledger: led, rules: rules, logger: logger, accountNumber: newAccountNumber}
}

// Initialize returns the user's wallet, creating it on first use. The currency
// follows the user's country; the account number is random and unique.
func (s *Service) Initialize(ctx context.Context, user identity.User) (ledger.Wallet, error) {
	if w, err := s.ledger.WalletByOwner(ctx, user.ID); err == nil {
		return w, nil
	} else if !errors.Is(err, ledger.ErrWalletNotFound) {
		return ledger.Wallet{}, err
	}

	currency := s.rules.CurrencyFor(user.Country)
	for attempt := 0; attempt < maxAccountNumberAttempts; attempt++ {
		acct, err := s.accountNumber()
		if err != nil {
			return ledger.Wallet{}, fmt.Errorf("generate account number: %w", err)
		}
		w := ledger.Wallet{
			ID:            uuid.NewString(),
			OwnerID:       user.ID,
			AccountNumber: acct,
			Currency:      currency,
			Balance:       decimal.Zero,
		}
		err = s.ledger.CreateWallet(ctx, w)
		if err == nil {
			s.logger.Info("wallet.initialized",
				slog.String("user_id", user.ID),
				slog.String("wallet_id", w.ID),
				slog.String("currency", currency),
			)
			return s.ledger.WalletByID(ctx, w.ID)
		}
		if !errors.Is(err, ledger.ErrWalletExists) {
			return ledger.Wallet{}, err
		}
		// Either a concurrent request created the owner's wallet or the
		// account number is taken.
		if existing, ferr := s.ledger.WalletByOwner(ctx, user.ID); ferr == nil {
			return existing, nil
		}
	}
	return ledger.Wallet{}, fmt.Errorf("could not allocate a unique account number after %d attempts", maxAccountNumberAttempts)
}

// ForUser returns the user's wallet without creating one.
func (s *Service) ForUser(ctx context.Context, userID string) (ledger.Wallet, error) {
	return s.ledger.WalletByOwner(ctx, userID)
}

// Balance returns the current balance, initializing the wallet if needed.
func (s *Service) Balance(ctx context.Context, user identity.User) (Balance, error) {
	w, err := s.Initialize(ctx, user)
	if err != nil {
		return Balance{}, err
	}
	return Balance{
		WalletID:      w.ID,
		AccountNumber: w.AccountNumber,
		Currency:      w.Currency,
		Amount:        w.Balance,
		AsOf:          time.Now().UTC(),
	}, nil
}

// History lists the wallet's log rows, most recent first.
func (s *Service) History(ctx context.Context, userID string) ([]ledger.Entry, error) {
	w, err := s.ledger.WalletByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.ledger.History(ctx, w.ID)
}

// AddMoney credits the user's wallet with a DEPOSIT row.
func (s *Service) AddMoney(ctx context.Context, userID string, amount decimal.Decimal, reference string) (ledger.Entry, error) {
	w, err := s.ledger.WalletByOwner(ctx, userID)
	if err != nil {
		return ledger.Entry{}, err
	}
	return s.ledger.Credit(ctx, ledger.Posting{
		WalletID:  w.ID,
		Amount:    amount,
		Type:      ledger.TypeDeposit,
		Reference: reference,
	})
}

// DeductMoney debits the user's wallet with a TRANSFER_OUT row.
func (s *Service) DeductMoney(ctx context.Context, userID string, amount decimal.Decimal, reference string) (ledger.Entry, error) {
	w, err := s.ledger.WalletByOwner(ctx, userID)
	if err != nil {
		return ledger.Entry{}, err
	}
	return s.ledger.Debit(ctx, ledger.Posting{
		WalletID:  w.ID,
		Amount:    amount,
		Type:      ledger.TypeTransferOut,
		Reference: reference,
	})
}
