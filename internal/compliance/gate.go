package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/remnika/wallet/internal/apperr"
	"github.com/remnika/wallet/internal/config"
	"github.com/remnika/wallet/internal/identity"
	"github.com/remnika/wallet/internal/ledger"
	"github.com/remnika/wallet/internal/money"
)

var (
	// ErrComplianceBlocked is returned when the sender fails AML screening.
	ErrComplianceBlocked = apperr.New(apperr.KindComplianceBlocked, "transfer blocked by compliance screening")

	// ErrLimitExceeded is returned when a transfer would breach the rolling
	// daily cap. The ledger reports the same error from its locked re-check.
	ErrLimitExceeded = ledger.ErrLimitExceeded
)

// OutflowReader sums transfer debits for a wallet since a point in time. The
// result is signed (zero or negative).
type OutflowReader interface {
	DailyOutflow(ctx context.Context, walletID string, since time.Time) (decimal.Decimal, error)
}

// Gate runs the checks a peer transfer must pass before funds move.
type Gate struct {
	rules   config.Compliance
	denied  map[string]struct{}
	outflow OutflowReader
	logger  *slog.Logger
	now     func() time.Time
}

// NewGate builds a gate from explicit rules.
func NewGate(rules config.Compliance, outflow OutflowReader, logger *slog.Logger) *Gate {
	denied := make(map[string]struct{}, len(rules.Denylist))
	for _, c := range rules.Denylist {
		denied[countryKey(c)] = struct{}{}
	}
	if rules.Window <= 0 {
		rules.Window = 24 * time.Hour
	}
	return &Gate{
		rules:   rules,
		denied:  denied,
		outflow: outflow,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source used for the rolling window.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// DailyLimit returns the configured cap.
func (g *Gate) DailyLimit() decimal.Decimal {
	return g.rules.DailyLimit
}

// ScreensAML reports whether the user passes jurisdiction screening.
func (g *Gate) ScreensAML(user identity.User) bool {
	_, blocked := g.denied[countryKey(user.Country)]
	return !blocked
}

// UsedToday returns the magnitude of transfer debits inside the rolling window.
func (g *Gate) UsedToday(ctx context.Context, walletID string) (decimal.Decimal, error) {
	since := g.now().Add(-g.rules.Window)
	out, err := g.outflow.DailyOutflow(ctx, walletID, since)
	if err != nil {
		return decimal.Zero, fmt.Errorf("read daily outflow: %w", err)
	}
	return out.Abs(), nil
}

// OutflowGuard returns the cap and window start for a debit posting, so the
// ledger can repeat the limit check while the sender's wallet is locked.
func (g *Gate) OutflowGuard() *ledger.OutflowLimit {
	return &ledger.OutflowLimit{
		Max:   g.rules.DailyLimit,
		Since: g.now().Add(-g.rules.Window),
	}
}

// ValidateDailyLimit fails with ErrLimitExceeded when used + amount exceeds
// the daily limit.
func (g *Gate) ValidateDailyLimit(ctx context.Context, walletID string, amount decimal.Decimal) error {
	used, err := g.UsedToday(ctx, walletID)
	if err != nil {
		return err
	}
	if used.Add(money.Normalize(amount)).GreaterThan(g.rules.DailyLimit) {
		return fmt.Errorf("%w: used %s of %s, requested %s", ErrLimitExceeded,
			money.Format(used), money.Format(g.rules.DailyLimit), money.Format(amount))
	}
	return nil
}

// Authorize runs AML screening and then the daily limit check.
func (g *Gate) Authorize(ctx context.Context, user identity.User, walletID string, amount decimal.Decimal) error {
	if !g.ScreensAML(user) {
		g.logger.Warn("compliance.aml_blocked",
			slog.String("user_id", user.ID),
			slog.String("country", user.Country),
		)
		return fmt.Errorf("%w: jurisdiction %s", ErrComplianceBlocked, user.Country)
	}
	if err := g.ValidateDailyLimit(ctx, walletID, amount); err != nil {
		if apperr.Is(err, apperr.KindLimitExceeded) {
			g.logger.Warn("compliance.limit_exceeded",
				slog.String("user_id", user.ID),
				slog.String("wallet_id", walletID),
				slog.String("amount", money.Format(amount)),
			)
		}
		return err
	}
	return nil
}

// CheckResult is the outcome of a dry-run authorization.
type CheckResult struct {
	Allowed   bool
	Reason    string
	Used      decimal.Decimal
	Remaining decimal.Decimal
	Limit     decimal.Decimal
}

// Check evaluates a proposed transfer amount without moving funds.
func (g *Gate) Check(ctx context.Context, user identity.User, walletID string, amount decimal.Decimal) (CheckResult, error) {
	used, err := g.UsedToday(ctx, walletID)
	if err != nil {
		return CheckResult{}, err
	}
	res := CheckResult{
		Allowed:   true,
		Used:      used,
		Remaining: decimal.Max(g.rules.DailyLimit.Sub(used), decimal.Zero),
		Limit:     g.rules.DailyLimit,
	}
	if err := g.Authorize(ctx, user, walletID, amount); err != nil {
		if !apperr.Is(err, apperr.KindComplianceBlocked) && !apperr.Is(err, apperr.KindLimitExceeded) {
			return CheckResult{}, err
		}
		res.Allowed = false
		res.Reason = err.Error()
	}
	return res, nil
}

func countryKey(country string) string {
	key := strings.ToUpper(strings.TrimSpace(country))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(key)
}
