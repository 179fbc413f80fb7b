package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/remnika/wallet/internal/apperr"
	"github.com/remnika/wallet/internal/money"
)

var errUnknownType = apperr.New(apperr.KindInvalidOperation, "unknown transaction type")

// preparePosting validates a posting and fills in defaults. The returned
// amount is normalized to the ledger scale.
func preparePosting(p Posting) (Posting, error) {
	if !money.Positive(p.Amount) {
		return Posting{}, ErrInvalidAmount
	}
	if !validType(p.Type) {
		return Posting{}, fmt.Errorf("%w: %q", errUnknownType, p.Type)
	}
	if p.WalletID == "" {
		return Posting{}, ErrWalletNotFound
	}
	p.Amount = money.Normalize(p.Amount)
	if p.Reference == "" {
		p.Reference = uuid.NewString()
	}
	return p, nil
}

func newEntry(w Wallet, signed decimal.Decimal, p Posting, at time.Time) Entry {
	return Entry{
		ID:        uuid.NewString(),
		WalletID:  w.ID,
		Amount:    signed,
		Currency:  w.Currency,
		Type:      p.Type,
		Status:    StatusSuccess,
		Reference: p.Reference,
		CreatedAt: at,
	}
}

func insufficient(w Wallet, amount decimal.Decimal) error {
	return fmt.Errorf("%w: balance %s %s, requested %s", ErrInsufficientFunds,
		w.Currency, money.Format(w.Balance), money.Format(amount))
}

// exceeds reports whether adding amount to the signed outflow breaks the cap.
func (g *OutflowLimit) exceeds(outflow, amount decimal.Decimal) bool {
	return outflow.Abs().Add(amount).GreaterThan(g.Max)
}

func overLimit(w Wallet, g *OutflowLimit, outflow, amount decimal.Decimal) error {
	return fmt.Errorf("%w: used %s of %s %s, requested %s", ErrLimitExceeded,
		money.Format(outflow.Abs()), money.Format(g.Max), w.Currency, money.Format(amount))
}
