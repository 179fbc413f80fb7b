package funding

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/remnika/wallet/internal/config"
	"github.com/remnika/wallet/internal/identity"
	"github.com/remnika/wallet/internal/ledger"
	"github.com/remnika/wallet/internal/logging"
	"github.com/remnika/wallet/internal/notification"
	"github.com/remnika/wallet/internal/wallet"
)

func newTestService(t *testing.T, acquirer Acquirer) (*Service, ledger.Ledger) {
	t.Helper()
	led := ledger.NewInMemory()
	wallets := wallet.NewService(led, config.DefaultCompliance(), logging.Discard())
	svc, err := NewService(wallets, acquirer, nil, logging.Discard())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, led
}

func TestInitiateReturnsGatewayOrder(t *testing.T) {
	svc, _ := newTestService(t, StaticAcquirer{})
	user := identity.User{ID: uuid.NewString(), Country: "India"}

	order, err := svc.Initiate(context.Background(), user, decimal.RequireFromString("250"))
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if !strings.HasPrefix(order.ID, "order_") || len(order.ID) != len("order_")+8 {
		t.Fatalf("unexpected order id %q", order.ID)
	}
	if order.Status != "created" || order.Currency != "INR" {
		t.Fatalf("unexpected order %+v", order)
	}

	if _, err := svc.Initiate(context.Background(), user, decimal.Zero); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}

func TestVerifyCreditsOnce(t *testing.T) {
	ctx := context.Background()
	svc, led := newTestService(t, StaticAcquirer{})
	user := identity.User{ID: uuid.NewString(), Country: "USA"}

	res, err := svc.Verify(ctx, user, PaymentVerification{PaymentID: "pay_abc", OrderID: "order_1", Amount: decimal.RequireFromString("100")})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if res.Entry.Type != ledger.TypeDeposit || res.Entry.Reference != "pay_abc" {
		t.Fatalf("unexpected entry %+v", res.Entry)
	}
	if !res.WalletBalance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected balance 100, got %s", res.WalletBalance)
	}

	_, err = svc.Verify(ctx, user, PaymentVerification{PaymentID: "pay_abc", Amount: decimal.RequireFromString("100")})
	if !errors.Is(err, ledger.ErrDuplicateTransaction) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	w, _ := led.WalletByOwner(ctx, user.ID)
	if !w.Balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("duplicate payment credited, balance %s", w.Balance)
	}

	if _, err := svc.Verify(ctx, user, PaymentVerification{Amount: decimal.NewFromInt(1)}); !errors.Is(err, ErrPaymentIDRequired) {
		t.Fatalf("expected payment id error, got %v", err)
	}
}

type decliningAcquirer struct{ StaticAcquirer }

func (decliningAcquirer) VerifyPayment(context.Context, PaymentVerification) (AuthorizationDecision, error) {
	return AuthorizationDecision{Status: "declined"}, nil
}

func TestVerifyDeclined(t *testing.T) {
	svc, led := newTestService(t, decliningAcquirer{})
	user := identity.User{ID: uuid.NewString(), Country: "USA"}

	_, err := svc.Verify(context.Background(), user, PaymentVerification{PaymentID: "pay_x", Amount: decimal.NewFromInt(5)})
	if !errors.Is(err, ErrPaymentDeclined) {
		t.Fatalf("expected declined, got %v", err)
	}
	w, _ := led.WalletByOwner(context.Background(), user.ID)
	if !w.Balance.IsZero() {
		t.Fatalf("declined payment credited, balance %s", w.Balance)
	}
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, StaticAcquirer{})
	user := identity.User{ID: uuid.NewString(), Country: "USA"}

	if _, err := svc.Verify(ctx, user, PaymentVerification{PaymentID: "pay_1", Amount: decimal.NewFromInt(50)}); err != nil {
		t.Fatalf("seed deposit: %v", err)
	}

	res, err := svc.Withdraw(ctx, user, decimal.RequireFromString("20"))
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if res.Entry.Type != ledger.TypeTransferOut || !res.Entry.Amount.Equal(decimal.NewFromInt(-20)) {
		t.Fatalf("unexpected entry %+v", res.Entry)
	}
	if !res.WalletBalance.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected balance 30, got %s", res.WalletBalance)
	}
	if !strings.HasPrefix(res.AcquirerReference, "payout_") {
		t.Fatalf("unexpected reference %q", res.AcquirerReference)
	}

	if _, err := svc.Withdraw(ctx, user, decimal.NewFromInt(31)); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if _, err := svc.Withdraw(ctx, identity.User{ID: uuid.NewString()}, decimal.NewFromInt(1)); !errors.Is(err, ledger.ErrWalletNotFound) {
		t.Fatalf("expected wallet not found, got %v", err)
	}
}

type failingNotifier struct{}

func (failingNotifier) Send(context.Context, notification.Message) error {
	return errors.New("broker unavailable")
}

func TestVerifyLogsNotificationFailure(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	led := ledger.NewInMemory()
	wallets := wallet.NewService(led, config.DefaultCompliance(), logging.Discard())
	svc, err := NewService(wallets, StaticAcquirer{}, failingNotifier{}, logger)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	user := identity.User{ID: uuid.NewString(), Country: "USA"}

	res, err := svc.Verify(context.Background(), user, PaymentVerification{PaymentID: "pay_n", Amount: decimal.NewFromInt(40)})
	if err != nil {
		t.Fatalf("verify should succeed when notification fails: %v", err)
	}
	if !res.WalletBalance.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected balance 40, got %s", res.WalletBalance)
	}
	out := logs.String()
	if !strings.Contains(out, `"level":"WARN"`) || !strings.Contains(out, `"msg":"funding.notify_failed"`) {
		t.Fatalf("expected notify failure warning, got %s", out)
	}
	if !strings.Contains(out, `"payment_id":"pay_n"`) || !strings.Contains(out, "broker unavailable") {
		t.Fatalf("warning missing context: %s", out)
	}
}

func TestNewServiceRequiresAcquirer(t *testing.T) {
	wallets := wallet.NewService(ledger.NewInMemory(), config.DefaultCompliance(), logging.Discard())
	if _, err := NewService(wallets, nil, nil, logging.Discard()); err == nil {
		t.Fatal("expected error without an acquirer")
	}
}
