package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is a point-in-time view of a wallet's funds.
type Balance struct {
	WalletID      string
	AccountNumber string
	Currency      string
	Amount        decimal.Decimal
	AsOf          time.Time
}
