package fx

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/remnika/wallet/internal/money"
)

// HTTPProvider queries an exchangerate-api compatible pair endpoint:
// GET {base}/{key}/pair/{FROM}/{TO}.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	timeout time.Duration
}

// NewHTTPProvider builds a provider against the given base URL.
func NewHTTPProvider(baseURL, apiKey string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProvider{baseURL: baseURL, apiKey: apiKey, timeout: timeout}
}

type pairResponse struct {
	Result         string          `json:"result"`
	ErrorType      string          `json:"error-type"`
	ConversionRate decimal.Decimal `json:"conversion_rate"`
}

func (p *HTTPProvider) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if r, ok := identity(from, to); ok {
		return r, nil
	}
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}

	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		timeout = time.Until(deadline)
	}

	url := fmt.Sprintf("%s/%s/pair/%s/%s", p.baseURL, p.apiKey,
		money.NormalizeCurrency(from), money.NormalizeCurrency(to))
	agent := fiber.Get(url).Timeout(timeout)

	var body pairResponse
	code, _, errs := agent.Struct(&body)
	if len(errs) > 0 {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrRateUnavailable, errs[0])
	}
	if code != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: provider status %d", ErrRateUnavailable, code)
	}
	if body.Result != "success" {
		return decimal.Zero, fmt.Errorf("%w: provider result %q %s", ErrRateUnavailable, body.Result, body.ErrorType)
	}
	if !body.ConversionRate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive rate %s", ErrRateUnavailable, body.ConversionRate)
	}
	return body.ConversionRate, nil
}
