package fx

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/remnika/wallet/internal/apperr"
	"github.com/remnika/wallet/internal/money"
)

// ErrRateUnavailable is returned when no conversion rate can be obtained.
var ErrRateUnavailable = apperr.New(apperr.KindRateUnavailable, "exchange rate unavailable")

// Provider returns the multiplier that converts an amount in from into to.
type Provider interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// identity short-circuits equal currencies. It reports ok=false when a real
// lookup is needed.
func identity(from, to string) (decimal.Decimal, bool) {
	if money.NormalizeCurrency(from) == money.NormalizeCurrency(to) {
		return decimal.NewFromInt(1), true
	}
	return decimal.Zero, false
}

func pairKey(from, to string) string {
	return money.NormalizeCurrency(from) + ":" + money.NormalizeCurrency(to)
}

// StaticProvider serves rates from a fixed table. It backs local development
// and tests.
type StaticProvider struct {
	mu    sync.RWMutex
	rates map[string]decimal.Decimal
}

// NewStaticProvider builds an empty static table.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{rates: make(map[string]decimal.Decimal)}
}

// Set stores the rate for a currency pair.
func (p *StaticProvider) Set(from, to string, rate decimal.Decimal) *StaticProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rates[pairKey(from, to)] = rate
	return p
}

func (p *StaticProvider) Rate(_ context.Context, from, to string) (decimal.Decimal, error) {
	if r, ok := identity(from, to); ok {
		return r, nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.rates[pairKey(from, to)]
	if !ok || !r.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: no rate for %s", ErrRateUnavailable, pairKey(from, to))
	}
	return r, nil
}
