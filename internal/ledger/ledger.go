package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/remnika/wallet/internal/apperr"
)

var (
	// ErrInsufficientFunds occurs when the wallet balance cannot cover a debit.
	ErrInsufficientFunds = apperr.New(apperr.KindInsufficientFunds, "insufficient funds")

	// ErrWalletNotFound is returned by lookups and postings against unknown wallets.
	ErrWalletNotFound = apperr.New(apperr.KindNotFound, "wallet not found")

	// ErrInvalidAmount rejects zero, negative or sub-unit amounts.
	ErrInvalidAmount = apperr.New(apperr.KindInvalidOperation, "amount must be greater than zero")

	// ErrDuplicateTransaction indicates the posting reference already exists on
	// the log and the operation was not applied again.
	ErrDuplicateTransaction = apperr.New(apperr.KindDuplicate, "duplicate transaction reference")

	// ErrWalletExists is returned when the owner already has a wallet or the
	// account number is taken.
	ErrWalletExists = apperr.New(apperr.KindDuplicate, "wallet already exists")

	// ErrConflict signals write contention (serialization failure, deadlock).
	// It is the only ledger error callers may retry without new input.
	ErrConflict = apperr.New(apperr.KindConflict, "concurrent update conflict, retry")

	// ErrSameWallet rejects a two-legged posting whose legs hit one wallet.
	ErrSameWallet = apperr.New(apperr.KindInvalidOperation, "debit and credit wallet must differ")

	// ErrLimitExceeded is returned when a guarded debit would push the
	// wallet's transfer outflow past its cap.
	ErrLimitExceeded = apperr.New(apperr.KindLimitExceeded, "daily transfer limit exceeded")
)

// Posting describes one balance change. Amount is a positive magnitude in the
// wallet's own currency; the sign on the log row comes from the direction.
type Posting struct {
	WalletID  string
	Amount    decimal.Decimal
	Type      string
	Reference string

	// Limit, when set on a debit, is re-checked while the wallet is locked.
	Limit *OutflowLimit
}

// OutflowLimit caps the TRANSFER_SENT total of a wallet since a point in
// time, this posting included.
type OutflowLimit struct {
	Max   decimal.Decimal
	Since time.Time
}

// TransferResult carries both log rows written by a two-legged posting.
type TransferResult struct {
	Debit         Entry
	Credit        Entry
	DebitBalance  decimal.Decimal
	CreditBalance decimal.Decimal
}

// Ledger owns wallet records and the append-only transaction log. Every
// balance mutation and its log row are committed as one unit.
type Ledger interface {
	CreateWallet(ctx context.Context, wallet Wallet) error
	WalletByID(ctx context.Context, id string) (Wallet, error)
	WalletByOwner(ctx context.Context, ownerID string) (Wallet, error)
	WalletByAccountNumber(ctx context.Context, accountNumber string) (Wallet, error)

	Credit(ctx context.Context, p Posting) (Entry, error)
	Debit(ctx context.Context, p Posting) (Entry, error)
	Transfer(ctx context.Context, debit, credit Posting) (TransferResult, error)

	History(ctx context.Context, walletID string) ([]Entry, error)
	DailyOutflow(ctx context.Context, walletID string, since time.Time) (decimal.Decimal, error)
}
