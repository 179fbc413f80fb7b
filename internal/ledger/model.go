package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction log types.
const (
	TypeDeposit          = "DEPOSIT"
	TypeTransferSent     = "TRANSFER_SENT"
	TypeTransferReceived = "TRANSFER_RECEIVED"
	TypeTransferOut      = "TRANSFER_OUT"
)

// Transaction log statuses. Rows are only written for committed postings, so
// the ledger itself writes SUCCESS; the other values exist for imported rows.
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
	StatusPending = "PENDING"
)

// Wallet is a single-currency balance owned by exactly one user.
type Wallet struct {
	ID            string
	OwnerID       string
	AccountNumber string
	Currency      string
	Balance       decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Entry is one immutable row of the transaction log. Amount is signed:
// positive for credits, negative for debits.
type Entry struct {
	ID        string
	WalletID  string
	Amount    decimal.Decimal
	Currency  string
	Type      string
	Status    string
	Reference string
	CreatedAt time.Time
}

func validType(t string) bool {
	switch t {
	case TypeDeposit, TypeTransferSent, TypeTransferReceived, TypeTransferOut:
		return true
	default:
		return false
	}
}
