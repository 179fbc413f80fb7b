package funding

import (
	"time"

	"github.com/shopspring/decimal"
)

// InitiateRequest opens a deposit order.
type InitiateRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// InitiateResponse returns the gateway order to the client.
type InitiateResponse struct {
	GatewayOrderID string `json:"gateway_order_id"`
	Status         string `json:"status"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
}

// VerifyRequest confirms a completed gateway payment.
type VerifyRequest struct {
	PaymentID string          `json:"payment_id"`
	OrderID   string          `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// WithdrawRequest deducts funds from the wallet.
type WithdrawRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// FundingResponse represents the API response for deposit and withdrawal actions.
type FundingResponse struct {
	TransactionID     string    `json:"transaction_id"`
	Status            string    `json:"status"`
	Amount            string    `json:"amount"`
	Currency          string    `json:"currency"`
	WalletBalance     string    `json:"wallet_balance"`
	AcquirerReference string    `json:"acquirer_reference"`
	CompletedAt       time.Time `json:"completed_at"`
}
