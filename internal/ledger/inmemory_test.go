package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestWallet(t *testing.T, l Ledger, id, acct, currency, balance string) Wallet {
	t.Helper()
	w := Wallet{ID: id, OwnerID: "owner-" + id, AccountNumber: acct, Currency: currency, Balance: dec(balance)}
	if err := l.CreateWallet(context.Background(), w); err != nil {
		t.Fatalf("create wallet %s: %v", id, err)
	}
	return w
}

func balanceOf(t *testing.T, l Ledger, id string) decimal.Decimal {
	t.Helper()
	w, err := l.WalletByID(context.Background(), id)
	if err != nil {
		t.Fatalf("wallet %s: %v", id, err)
	}
	return w.Balance
}

func TestInMemoryLedger_TransferMaintainsBalance(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	newTestWallet(t, l, "a", "1000000001", "USD", "500")
	newTestWallet(t, l, "b", "1000000002", "USD", "0")

	res, err := l.Transfer(ctx,
		Posting{WalletID: "a", Amount: dec("100"), Type: TypeTransferSent, Reference: "TO: 1000000002 [abc]"},
		Posting{WalletID: "b", Amount: dec("100"), Type: TypeTransferReceived, Reference: "FROM: 1000000001 [abc]"},
	)
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if !res.DebitBalance.Equal(dec("400")) {
		t.Fatalf("expected debit balance 400, got %s", res.DebitBalance)
	}
	if !res.CreditBalance.Equal(dec("100")) {
		t.Fatalf("expected credit balance 100, got %s", res.CreditBalance)
	}
	if !res.Debit.Amount.Equal(dec("-100")) || res.Debit.Type != TypeTransferSent {
		t.Fatalf("unexpected debit row %+v", res.Debit)
	}
	if !res.Credit.Amount.Equal(dec("100")) || res.Credit.Type != TypeTransferReceived {
		t.Fatalf("unexpected credit row %+v", res.Credit)
	}
	if res.Debit.Status != StatusSuccess || res.Credit.Status != StatusSuccess {
		t.Fatalf("expected SUCCESS rows, got %s/%s", res.Debit.Status, res.Credit.Status)
	}

	total := balanceOf(t, l, "a").Add(balanceOf(t, l, "b"))
	if !total.Equal(dec("500")) {
		t.Fatalf("ledger not balanced, total=%s", total)
	}
}

func TestInMemoryLedger_CreditAndDebit(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	newTestWallet(t, l, "a", "1000000001", "EUR", "0")

	if _, err := l.Credit(ctx, Posting{WalletID: "a", Amount: dec("50.5"), Type: TypeDeposit, Reference: "pay_1"}); err != nil {
		t.Fatalf("credit: %v", err)
	}
	entry, err := l.Debit(ctx, Posting{WalletID: "a", Amount: dec("20.25"), Type: TypeTransferOut, Reference: "wd_1"})
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if !entry.Amount.Equal(dec("-20.25")) || entry.Currency != "EUR" {
		t.Fatalf("unexpected debit row %+v", entry)
	}
	if got := balanceOf(t, l, "a"); !got.Equal(dec("30.25")) {
		t.Fatalf("expected 30.25, got %s", got)
	}

	if _, err := l.Debit(ctx, Posting{WalletID: "a", Amount: dec("31"), Type: TypeTransferOut}); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if got := balanceOf(t, l, "a"); !got.Equal(dec("30.25")) {
		t.Fatalf("failed debit changed balance to %s", got)
	}
}

func TestInMemoryLedger_RejectsInvalidPostings(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	newTestWallet(t, l, "a", "1000000001", "USD", "10")

	for _, amt := range []string{"0", "-5", "0.00001"} {
		if _, err := l.Credit(ctx, Posting{WalletID: "a", Amount: dec(amt), Type: TypeDeposit}); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %s: expected invalid amount, got %v", amt, err)
		}
	}
	if _, err := l.Credit(ctx, Posting{WalletID: "missing", Amount: dec("1"), Type: TypeDeposit}); !errors.Is(err, ErrWalletNotFound) {
		t.Fatalf("expected wallet not found, got %v", err)
	}
	if _, err := l.Credit(ctx, Posting{WalletID: "a", Amount: dec("1"), Type: "BONUS"}); err == nil {
		t.Fatal("expected unknown type to be rejected")
	}
	if _, err := l.Transfer(ctx,
		Posting{WalletID: "a", Amount: dec("1"), Type: TypeTransferSent},
		Posting{WalletID: "a", Amount: dec("1"), Type: TypeTransferReceived},
	); !errors.Is(err, ErrSameWallet) {
		t.Fatalf("expected same wallet error, got %v", err)
	}
	if h, _ := l.History(ctx, "a"); len(h) != 0 {
		t.Fatalf("expected no rows, got %d", len(h))
	}
}

func TestInMemoryLedger_DuplicateReference(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	newTestWallet(t, l, "a", "1000000001", "USD", "0")

	p := Posting{WalletID: "a", Amount: dec("10"), Type: TypeDeposit, Reference: "pay_dup"}
	if _, err := l.Credit(ctx, p); err != nil {
		t.Fatalf("initial credit failed: %v", err)
	}
	if _, err := l.Credit(ctx, p); !errors.Is(err, ErrDuplicateTransaction) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if got := balanceOf(t, l, "a"); !got.Equal(dec("10")) {
		t.Fatalf("duplicate credit applied, balance %s", got)
	}
}

func TestInMemoryLedger_TransferIsAllOrNothing(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	newTestWallet(t, l, "a", "1000000001", "USD", "500")
	newTestWallet(t, l, "b", "1000000002", "EUR", "0")

	boom := errors.New("storage offline")
	InjectFault(l, func(op, walletID string) error {
		if op == "credit" {
			return boom
		}
		return nil
	})

	_, err := l.Transfer(ctx,
		Posting{WalletID: "a", Amount: dec("100"), Type: TypeTransferSent},
		Posting{WalletID: "b", Amount: dec("90"), Type: TypeTransferReceived},
	)
	if !errors.Is(err, boom) {
		t.Fatalf("expected injected fault, got %v", err)
	}
	if got := balanceOf(t, l, "a"); !got.Equal(dec("500")) {
		t.Fatalf("sender debited despite failure: %s", got)
	}
	if got := balanceOf(t, l, "b"); !got.Equal(dec("0")) {
		t.Fatalf("recipient credited despite failure: %s", got)
	}
	for _, id := range []string{"a", "b"} {
		if h, _ := l.History(ctx, id); len(h) != 0 {
			t.Fatalf("wallet %s has %d rows after failed transfer", id, len(h))
		}
	}
}

func TestInMemoryLedger_CanceledContextAbortsTransfer(t *testing.T) {
	l := NewInMemory()
	newTestWallet(t, l, "a", "1000000001", "USD", "500")
	newTestWallet(t, l, "b", "1000000002", "USD", "0")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Transfer(ctx,
		Posting{WalletID: "a", Amount: dec("100"), Type: TypeTransferSent},
		Posting{WalletID: "b", Amount: dec("100"), Type: TypeTransferReceived},
	)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if got := balanceOf(t, l, "a"); !got.Equal(dec("500")) {
		t.Fatalf("balance changed: %s", got)
	}
}

func TestInMemoryLedger_ConcurrentTransfers(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	newTestWallet(t, l, "a", "1000000001", "USD", "1000")
	newTestWallet(t, l, "b", "1000000002", "USD", "1000")

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := "a", "b"
			if i%2 == 1 {
				from, to = "b", "a"
			}
			_, err := l.Transfer(ctx,
				Posting{WalletID: from, Amount: dec("10"), Type: TypeTransferSent, Reference: fmt.Sprintf("out-%d", i)},
				Posting{WalletID: to, Amount: dec("10"), Type: TypeTransferReceived, Reference: fmt.Sprintf("in-%d", i)},
			)
			if err != nil {
				t.Errorf("transfer %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if got := balanceOf(t, l, "a"); !got.Equal(dec("1000")) {
		t.Fatalf("expected wallet a back at 1000, got %s", got)
	}
	if got := balanceOf(t, l, "b"); !got.Equal(dec("1000")) {
		t.Fatalf("expected wallet b back at 1000, got %s", got)
	}
}

func TestInMemoryLedger_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	newTestWallet(t, l, "a", "1000000001", "USD", "100")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Debit(ctx, Posting{WalletID: "a", Amount: dec("10"), Type: TypeTransferOut}); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if accepted != 10 {
		t.Fatalf("expected exactly 10 debits to succeed, got %d", accepted)
	}
	if got := balanceOf(t, l, "a"); !got.IsZero() {
		t.Fatalf("expected zero balance, got %s", got)
	}
}

func TestInMemoryLedger_HistoryNewestFirst(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	newTestWallet(t, l, "a", "1000000001", "USD", "0")

	for i := 1; i <= 3; i++ {
		if _, err := l.Credit(ctx, Posting{WalletID: "a", Amount: dec("1"), Type: TypeDeposit, Reference: fmt.Sprintf("pay_%d", i)}); err != nil {
			t.Fatalf("credit %d: %v", i, err)
		}
	}
	h, err := l.History(ctx, "a")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(h) != 3 || h[0].Reference != "pay_3" || h[2].Reference != "pay_1" {
		t.Fatalf("unexpected order: %+v", h)
	}

	again, _ := l.History(ctx, "a")
	if len(again) != len(h) {
		t.Fatalf("history read is not stable: %d vs %d", len(again), len(h))
	}
	if _, err := l.History(ctx, "missing"); !errors.Is(err, ErrWalletNotFound) {
		t.Fatalf("expected wallet not found, got %v", err)
	}
}

func TestInMemoryLedger_DailyOutflowWindow(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	SetClock(l, func() time.Time { return now })
	newTestWallet(t, l, "a", "1000000001", "USD", "0")

	SeedEntry(l, Entry{ID: "old", WalletID: "a", Amount: dec("-700"), Type: TypeTransferSent, Reference: "old", CreatedAt: now.Add(-25 * time.Hour)})
	SeedEntry(l, Entry{ID: "recent", WalletID: "a", Amount: dec("-300"), Type: TypeTransferSent, Reference: "recent", CreatedAt: now.Add(-2 * time.Hour)})
	SeedEntry(l, Entry{ID: "wd", WalletID: "a", Amount: dec("-50"), Type: TypeTransferOut, Reference: "wd", CreatedAt: now.Add(-time.Hour)})
	SeedEntry(l, Entry{ID: "in", WalletID: "a", Amount: dec("80"), Type: TypeDeposit, Reference: "in", CreatedAt: now.Add(-time.Hour)})

	got, err := l.DailyOutflow(ctx, "a", now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("daily outflow: %v", err)
	}
	if !got.Equal(dec("-300")) {
		t.Fatalf("expected -300, got %s", got)
	}
}

func TestInMemoryLedger_OutflowLimitGuard(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	SetClock(l, func() time.Time { return now })
	newTestWallet(t, l, "a", "1000000001", "USD", "5000")
	newTestWallet(t, l, "b", "1000000002", "USD", "0")

	SeedEntry(l, Entry{ID: "old", WalletID: "a", Amount: dec("-900"), Type: TypeTransferSent, Reference: "old", CreatedAt: now.Add(-25 * time.Hour)})
	SeedEntry(l, Entry{ID: "recent", WalletID: "a", Amount: dec("-700"), Type: TypeTransferSent, Reference: "recent", CreatedAt: now.Add(-time.Hour)})

	limit := &OutflowLimit{Max: dec("1000"), Since: now.Add(-24 * time.Hour)}
	send := func(amount, ref string) error {
		_, err := l.Transfer(ctx,
			Posting{WalletID: "a", Amount: dec(amount), Type: TypeTransferSent, Reference: "TO " + ref, Limit: limit},
			Posting{WalletID: "b", Amount: dec(amount), Type: TypeTransferReceived, Reference: "FROM " + ref},
		)
		return err
	}

	if err := send("300.0001", "x1"); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected limit exceeded, got %v", err)
	}
	if got := balanceOf(t, l, "a"); !got.Equal(dec("5000")) {
		t.Fatalf("rejected transfer moved funds: %s", got)
	}
	if err := send("300", "x2"); err != nil {
		t.Fatalf("transfer at the cap: %v", err)
	}
	if err := send("0.0001", "x3"); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected limit exceeded once the cap is used, got %v", err)
	}

	// Withdrawals share the guard type but never count toward it.
	if _, err := l.Debit(ctx, Posting{WalletID: "a", Amount: dec("50"), Type: TypeTransferOut, Limit: limit}); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("guarded debit past the cap: %v", err)
	}
	if _, err := l.Debit(ctx, Posting{WalletID: "a", Amount: dec("50"), Type: TypeTransferOut}); err != nil {
		t.Fatalf("unguarded debit: %v", err)
	}
}

func TestInMemoryLedger_ConcurrentGuardedTransfersStayUnderLimit(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	newTestWallet(t, l, "a", "1000000001", "USD", "5000")
	newTestWallet(t, l, "b", "1000000002", "USD", "0")
	limit := &OutflowLimit{Max: dec("1000"), Since: time.Now().Add(-time.Hour)}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		limited int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := l.Transfer(ctx,
				Posting{WalletID: "a", Amount: dec("100"), Type: TypeTransferSent, Reference: fmt.Sprintf("TO %d", i), Limit: limit},
				Posting{WalletID: "b", Amount: dec("100"), Type: TypeTransferReceived, Reference: fmt.Sprintf("FROM %d", i)},
			)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrLimitExceeded):
				limited++
			default:
				t.Errorf("transfer %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if ok != 10 || limited != 10 {
		t.Fatalf("expected 10 applied and 10 limited, got %d/%d", ok, limited)
	}
	out, err := l.DailyOutflow(ctx, "a", limit.Since)
	if err != nil {
		t.Fatalf("daily outflow: %v", err)
	}
	if !out.Equal(dec("-1000")) {
		t.Fatalf("expected outflow -1000, got %s", out)
	}
}

func TestInMemoryLedger_HistoryNeverAheadOfBalance(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	newTestWallet(t, l, "a", "1000000001", "USD", "1000")
	newTestWallet(t, l, "b", "1000000002", "USD", "0")

	done := make(chan struct{})
	var readers sync.WaitGroup
	readers.Add(1)
	go func() {
		defer readers.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			rows, err := l.History(ctx, "b")
			if err != nil {
				t.Errorf("history: %v", err)
				return
			}
			logged := decimal.Zero
			for _, e := range rows {
				logged = logged.Add(e.Amount)
			}
			// b only receives, so its balance can run ahead of a snapshot
			// of its log but never behind it.
			w, err := l.WalletByID(ctx, "b")
			if err != nil {
				t.Errorf("wallet: %v", err)
				return
			}
			if w.Balance.LessThan(logged) {
				t.Errorf("log shows %s but balance is %s", logged, w.Balance)
				return
			}
		}
	}()

	var writers sync.WaitGroup
	for i := 0; i < 50; i++ {
		writers.Add(1)
		go func(i int) {
			defer writers.Done()
			_, err := l.Transfer(ctx,
				Posting{WalletID: "a", Amount: dec("10"), Type: TypeTransferSent, Reference: fmt.Sprintf("TO %d", i)},
				Posting{WalletID: "b", Amount: dec("10"), Type: TypeTransferReceived, Reference: fmt.Sprintf("FROM %d", i)},
			)
			if err != nil {
				t.Errorf("transfer %d: %v", i, err)
			}
		}(i)
	}
	writers.Wait()
	close(done)
	readers.Wait()

	if got := balanceOf(t, l, "b"); !got.Equal(dec("500")) {
		t.Fatalf("expected 500, got %s", got)
	}
}

func TestInMemoryLedger_CreateWalletUniqueness(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	newTestWallet(t, l, "a", "1000000001", "USD", "0")

	err := l.CreateWallet(ctx, Wallet{ID: "c", OwnerID: "owner-a", AccountNumber: "1000000003", Currency: "USD"})
	if !errors.Is(err, ErrWalletExists) {
		t.Fatalf("expected owner collision, got %v", err)
	}
	err = l.CreateWallet(ctx, Wallet{ID: "d", OwnerID: "owner-d", AccountNumber: "1000000001", Currency: "USD"})
	if !errors.Is(err, ErrWalletExists) {
		t.Fatalf("expected account collision, got %v", err)
	}
	w, err := l.WalletByAccountNumber(ctx, "1000000001")
	if err != nil || w.ID != "a" {
		t.Fatalf("lookup by account: %+v %v", w, err)
	}
	w, err = l.WalletByOwner(ctx, "owner-a")
	if err != nil || w.AccountNumber != "1000000001" {
		t.Fatalf("lookup by owner: %+v %v", w, err)
	}
}
