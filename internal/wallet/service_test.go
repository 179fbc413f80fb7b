package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/remnika/wallet/internal/config"
	"github.com/remnika/wallet/internal/identity"
	"github.com/remnika/wallet/internal/ledger"
	"github.com/remnika/wallet/internal/logging"
)

func newTestService() (*Service, ledger.Ledger) {
	led := ledger.NewInMemory()
	return NewService(led, config.DefaultCompliance(), logging.Discard()), led
}

func TestInitializeCreatesWalletOnce(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	user := identity.User{ID: uuid.NewString(), Country: "Ireland"}

	w, err := svc.Initialize(ctx, user)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if w.Currency != "EUR" {
		t.Fatalf("expected EUR for Ireland, got %s", w.Currency)
	}
	if !regexp.MustCompile(`^[1-9]\d{9}$`).MatchString(w.AccountNumber) {
		t.Fatalf("account number %q is not 10 digits", w.AccountNumber)
	}
	if !w.Balance.IsZero() {
		t.Fatalf("expected zero balance, got %s", w.Balance)
	}

	again, err := svc.Initialize(ctx, user)
	if err != nil {
		t.Fatalf("second initialize: %v", err)
	}
	if again.ID != w.ID {
		t.Fatalf("expected the same wallet, got %s and %s", w.ID, again.ID)
	}
}

func TestInitializeDefaultsToUSD(t *testing.T) {
	svc, _ := newTestService()
	w, err := svc.Initialize(context.Background(), identity.User{ID: uuid.NewString(), Country: "Atlantis"})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if w.Currency != "USD" {
		t.Fatalf("expected USD, got %s", w.Currency)
	}
}

func TestInitializeRetriesAccountNumberCollision(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	numbers := []string{"1111111111", "1111111111", "2222222222"}
	svc.accountNumber = func() (string, error) {
		n := numbers[0]
		numbers = numbers[1:]
		return n, nil
	}

	first, err := svc.Initialize(ctx, identity.User{ID: uuid.NewString(), Country: "USA"})
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := svc.Initialize(ctx, identity.User{ID: uuid.NewString(), Country: "USA"})
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.AccountNumber != "1111111111" || second.AccountNumber != "2222222222" {
		t.Fatalf("unexpected account numbers %s, %s", first.AccountNumber, second.AccountNumber)
	}
}

func TestAddAndDeductMoney(t *testing.T) {
	svc, led := newTestService()
	ctx := context.Background()
	user := identity.User{ID: uuid.NewString(), Country: "USA"}
	if _, err := svc.Initialize(ctx, user); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if _, err := svc.AddMoney(ctx, user.ID, decimal.RequireFromString("75.5"), "pay_123"); err != nil {
		t.Fatalf("add money: %v", err)
	}
	entry, err := svc.DeductMoney(ctx, user.ID, decimal.RequireFromString("25.5"), "")
	if err != nil {
		t.Fatalf("deduct: %v", err)
	}
	if entry.Type != ledger.TypeTransferOut || !entry.Amount.Equal(decimal.RequireFromString("-25.5")) {
		t.Fatalf("unexpected deduction row %+v", entry)
	}
	if _, err := svc.DeductMoney(ctx, user.ID, decimal.RequireFromString("50.01"), ""); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	bal, err := svc.Balance(ctx, user)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !bal.Amount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected 50, got %s", bal.Amount)
	}

	history, err := svc.History(ctx, user.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].Type != ledger.TypeTransferOut || history[1].Reference != "pay_123" {
		t.Fatalf("unexpected history %+v", history)
	}

	w, _ := led.WalletByOwner(ctx, user.ID)
	if !w.Balance.Equal(bal.Amount) {
		t.Fatalf("ledger and service disagree: %s vs %s", w.Balance, bal.Amount)
	}
}

func TestHistoryWithoutWallet(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.History(context.Background(), uuid.NewString()); !errors.Is(err, ledger.ErrWalletNotFound) {
		t.Fatalf("expected wallet not found, got %v", err)
	}
}

func TestHandlerBalanceInitializesLazily(t *testing.T) {
	svc, _ := newTestService()
	users := identity.NewMemoryRepository()
	user := identity.User{ID: uuid.NewString(), Country: "Canada"}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	h := NewHandler(svc, identity.NewService(users))

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", c.Get("X-Test-User"))
		return c.Next()
	})
	app.Get("/wallet/balance", h.Balance)

	req := httptest.NewRequest(http.MethodGet, "/wallet/balance", nil)
	req.Header.Set("X-Test-User", user.ID)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["currency"] != "CAD" || body["balance"] != "0.0000" {
		t.Fatalf("unexpected body %v", body)
	}

	req = httptest.NewRequest(http.MethodGet, "/wallet/balance", nil)
	req.Header.Set("X-Test-User", uuid.NewString())
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", resp.StatusCode)
	}
}
