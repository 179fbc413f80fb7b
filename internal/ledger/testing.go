package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/remnika/wallet/internal/money"
)

// SeedBalance is a test helper that overwrites the balance of a wallet held by
// the in-memory ledger without writing a log row.
func SeedBalance(l Ledger, walletID string, amount decimal.Decimal) {
	mem, ok := l.(*inMemoryLedger)
	if !ok {
		return
	}
	slot, err := mem.slot(walletID)
	if err != nil {
		return
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	slot.wallet.Balance = money.Normalize(amount)
}

// SeedEntry appends a log row as-is, keeping its timestamp. Balances are not
// touched.
func SeedEntry(l Ledger, e Entry) {
	mem, ok := l.(*inMemoryLedger)
	if !ok {
		return
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	mem.refs[e.Reference] = struct{}{}
	mem.entries[e.WalletID] = append(mem.entries[e.WalletID], e)
}

// InjectFault installs a hook consulted before each leg of a posting is
// staged. op is "debit" or "credit". A non-nil return aborts the posting.
func InjectFault(l Ledger, fn func(op, walletID string) error) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		mem.fault = fn
		mem.mu.Unlock()
	}
}

// SetClock replaces the time source of the in-memory ledger.
func SetClock(l Ledger, now func() time.Time) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		mem.now = now
		mem.mu.Unlock()
	}
}
