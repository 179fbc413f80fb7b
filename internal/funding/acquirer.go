package funding

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Acquirer represents a connector to an external payment gateway.
type Acquirer interface {
	CreateOrder(ctx context.Context, input OrderRequest) (Order, error)
	VerifyPayment(ctx context.Context, input PaymentVerification) (AuthorizationDecision, error)
	AuthorizePayout(ctx context.Context, input PayoutAuthorization) (AuthorizationDecision, error)
}

// OrderRequest asks the gateway to open a collection order.
type OrderRequest struct {
	Amount   decimal.Decimal
	Currency string
}

// Order is the gateway's handle for a pending deposit.
type Order struct {
	ID       string
	Status   string
	Amount   decimal.Decimal
	Currency string
}

// PaymentVerification carries the client-side payment confirmation.
type PaymentVerification struct {
	PaymentID string
	OrderID   string
	Amount    decimal.Decimal
}

// PayoutAuthorization captures data for a withdrawal payout.
type PayoutAuthorization struct {
	Amount   decimal.Decimal
	Currency string
}

// AuthorizationDecision captures the gateway response.
type AuthorizationDecision struct {
	Reference string
	Status    string
}

// StaticAcquirer simulates a gateway that approves everything.
type StaticAcquirer struct{}

// CreateOrder returns a synthetic order id.
func (StaticAcquirer) CreateOrder(_ context.Context, in OrderRequest) (Order, error) {
	return Order{ID: "order_" + uuid.NewString()[:8], Status: "created", Amount: in.Amount, Currency: in.Currency}, nil
}

// VerifyPayment approves the payment under its own id.
func (StaticAcquirer) VerifyPayment(_ context.Context, in PaymentVerification) (AuthorizationDecision, error) {
	return AuthorizationDecision{Reference: in.PaymentID, Status: "approved"}, nil
}

// AuthorizePayout approves the withdrawal with a synthetic reference.
func (StaticAcquirer) AuthorizePayout(_ context.Context, _ PayoutAuthorization) (AuthorizationDecision, error) {
	return AuthorizationDecision{Reference: "payout_" + uuid.NewString()[:8], Status: "approved"}, nil
}
