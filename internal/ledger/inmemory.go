package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/remnika/wallet/internal/money"
)

// walletSlot is the per-wallet serialization point. Balance reads and
// writes for a wallet happen only while its mutex is held.
type walletSlot struct {
	mu     sync.Mutex
	wallet Wallet
}

type inMemoryLedger struct {
	// mu guards the indexes and the log. It is always acquired after any
	// slot mutex and held only for short map operations.
	mu        sync.RWMutex
	slots     map[string]*walletSlot
	byOwner   map[string]string
	byAccount map[string]string
	entries   map[string][]Entry
	refs      map[string]struct{}

	fault func(op, walletID string) error
	now   func() time.Time
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit
// tests and local development.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		slots:     make(map[string]*walletSlot),
		byOwner:   make(map[string]string),
		byAccount: make(map[string]string),
		entries:   make(map[string][]Entry),
		refs:      make(map[string]struct{}),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (l *inMemoryLedger) CreateWallet(_ context.Context, w Wallet) error {
	if w.OwnerID == "" || w.AccountNumber == "" || w.Currency == "" {
		return fmt.Errorf("wallet owner, account number and currency are required")
	}
	if w.Balance.IsNegative() {
		return ErrInvalidAmount
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	now := l.now()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now
	w.Balance = money.Normalize(w.Balance)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.slots[w.ID]; exists {
		return ErrWalletExists
	}
	if _, exists := l.byOwner[w.OwnerID]; exists {
		return fmt.Errorf("%w: owner %s", ErrWalletExists, w.OwnerID)
	}
	if _, exists := l.byAccount[w.AccountNumber]; exists {
		return fmt.Errorf("%w: account number %s", ErrWalletExists, w.AccountNumber)
	}
	l.slots[w.ID] = &walletSlot{wallet: w}
	l.byOwner[w.OwnerID] = w.ID
	l.byAccount[w.AccountNumber] = w.ID
	return nil
}

func (l *inMemoryLedger) WalletByID(_ context.Context, id string) (Wallet, error) {
	slot, err := l.slot(id)
	if err != nil {
		return Wallet{}, err
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.wallet, nil
}

func (l *inMemoryLedger) WalletByOwner(ctx context.Context, ownerID string) (Wallet, error) {
	l.mu.RLock()
	id, ok := l.byOwner[ownerID]
	l.mu.RUnlock()
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}
	return l.WalletByID(ctx, id)
}

func (l *inMemoryLedger) WalletByAccountNumber(ctx context.Context, accountNumber string) (Wallet, error) {
	l.mu.RLock()
	id, ok := l.byAccount[accountNumber]
	l.mu.RUnlock()
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}
	return l.WalletByID(ctx, id)
}

func (l *inMemoryLedger) Credit(ctx context.Context, p Posting) (Entry, error) {
	p, err := preparePosting(p)
	if err != nil {
		return Entry{}, err
	}
	slot, err := l.slot(p.WalletID)
	if err != nil {
		return Entry{}, err
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	if err := l.inject("credit", p.WalletID); err != nil {
		return Entry{}, err
	}
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}

	entry := newEntry(slot.wallet, p.Amount, p, l.now())
	err = l.commit(func() {
		slot.wallet.Balance = slot.wallet.Balance.Add(p.Amount)
		slot.wallet.UpdatedAt = entry.CreatedAt
	}, entry)
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (l *inMemoryLedger) Debit(ctx context.Context, p Posting) (Entry, error) {
	p, err := preparePosting(p)
	if err != nil {
		return Entry{}, err
	}
	slot, err := l.slot(p.WalletID)
	if err != nil {
		return Entry{}, err
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	if err := l.checkLimit(slot.wallet, p); err != nil {
		return Entry{}, err
	}
	if slot.wallet.Balance.LessThan(p.Amount) {
		return Entry{}, insufficient(slot.wallet, p.Amount)
	}
	if err := l.inject("debit", p.WalletID); err != nil {
		return Entry{}, err
	}
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}

	entry := newEntry(slot.wallet, p.Amount.Neg(), p, l.now())
	err = l.commit(func() {
		slot.wallet.Balance = slot.wallet.Balance.Sub(p.Amount)
		slot.wallet.UpdatedAt = entry.CreatedAt
	}, entry)
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (l *inMemoryLedger) Transfer(ctx context.Context, debit, credit Posting) (TransferResult, error) {
	debit, err := preparePosting(debit)
	if err != nil {
		return TransferResult{}, err
	}
	credit, err = preparePosting(credit)
	if err != nil {
		return TransferResult{}, err
	}
	if debit.WalletID == credit.WalletID {
		return TransferResult{}, ErrSameWallet
	}
	if debit.Reference == credit.Reference {
		return TransferResult{}, fmt.Errorf("%w: both legs share reference %q", ErrDuplicateTransaction, debit.Reference)
	}

	from, err := l.slot(debit.WalletID)
	if err != nil {
		return TransferResult{}, err
	}
	to, err := l.slot(credit.WalletID)
	if err != nil {
		return TransferResult{}, err
	}

	first, second := from, to
	if second.wallet.AccountNumber < first.wallet.AccountNumber {
		first, second = second, first
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if err := l.checkLimit(from.wallet, debit); err != nil {
		return TransferResult{}, err
	}
	if from.wallet.Balance.LessThan(debit.Amount) {
		return TransferResult{}, insufficient(from.wallet, debit.Amount)
	}

	// Both legs are staged; nothing is visible until commit succeeds.
	if err := l.inject("debit", debit.WalletID); err != nil {
		return TransferResult{}, err
	}
	fromBalance := from.wallet.Balance.Sub(debit.Amount)
	if err := l.inject("credit", credit.WalletID); err != nil {
		return TransferResult{}, err
	}
	toBalance := to.wallet.Balance.Add(credit.Amount)
	if err := ctx.Err(); err != nil {
		return TransferResult{}, err
	}

	at := l.now()
	debitEntry := newEntry(from.wallet, debit.Amount.Neg(), debit, at)
	creditEntry := newEntry(to.wallet, credit.Amount, credit, at)
	err = l.commit(func() {
		from.wallet.Balance, from.wallet.UpdatedAt = fromBalance, at
		to.wallet.Balance, to.wallet.UpdatedAt = toBalance, at
	}, debitEntry, creditEntry)
	if err != nil {
		return TransferResult{}, err
	}

	return TransferResult{
		Debit:         debitEntry,
		Credit:        creditEntry,
		DebitBalance:  fromBalance,
		CreditBalance: toBalance,
	}, nil
}

func (l *inMemoryLedger) History(_ context.Context, walletID string) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if _, ok := l.slots[walletID]; !ok {
		return nil, ErrWalletNotFound
	}
	rows := l.entries[walletID]
	out := make([]Entry, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, rows[i])
	}
	return out, nil
}

func (l *inMemoryLedger) DailyOutflow(_ context.Context, walletID string, since time.Time) (decimal.Decimal, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if _, ok := l.slots[walletID]; !ok {
		return decimal.Zero, ErrWalletNotFound
	}
	return l.outflowLocked(walletID, since), nil
}

// outflowLocked sums TRANSFER_SENT debits since the given time. Callers hold
// l.mu.
func (l *inMemoryLedger) outflowLocked(walletID string, since time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, e := range l.entries[walletID] {
		if e.Type != TypeTransferSent || !e.Amount.IsNegative() || e.CreatedAt.Before(since) {
			continue
		}
		total = total.Add(e.Amount)
	}
	return total
}

// checkLimit enforces a debit's outflow guard. Callers hold the wallet's slot
// mutex, so no other guarded debit can land between the sum and the commit.
func (l *inMemoryLedger) checkLimit(w Wallet, p Posting) error {
	if p.Limit == nil {
		return nil
	}
	l.mu.RLock()
	used := l.outflowLocked(w.ID, p.Limit.Since)
	l.mu.RUnlock()
	if p.Limit.exceeds(used, p.Amount) {
		return overLimit(w, p.Limit, used, p.Amount)
	}
	return nil
}

func (l *inMemoryLedger) slot(id string) (*walletSlot, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	slot, ok := l.slots[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, id)
	}
	return slot, nil
}

// commit checks reference uniqueness, then appends log rows and runs apply
// under one hold of l.mu so readers never see rows without their balances.
// Callers hold the slot mutexes of every wallet touched.
func (l *inMemoryLedger) commit(apply func(), entries ...Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range entries {
		if _, dup := l.refs[e.Reference]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateTransaction, e.Reference)
		}
	}
	apply()
	for _, e := range entries {
		l.refs[e.Reference] = struct{}{}
		l.entries[e.WalletID] = append(l.entries[e.WalletID], e)
	}
	return nil
}

func (l *inMemoryLedger) inject(op, walletID string) error {
	if l.fault == nil {
		return nil
	}
	return l.fault(op, walletID)
}
