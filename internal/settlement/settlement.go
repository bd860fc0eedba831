package settlement

import (
	"context"

	"service-marketplace/internal/data/entity"
	"service-marketplace/pkg/errs"

	"github.com/shopspring/decimal"
)

// GatewayStatus is the processor's view of a charge, normalized to the
// three outcomes the ledger cares about.
type GatewayStatus string

const (
	GatewayStatusPending   GatewayStatus = "pending"
	GatewayStatusSucceeded GatewayStatus = "succeeded"
	GatewayStatusFailed    GatewayStatus = "failed"
)

// CreateIntentInput is the request for a new gateway charge. Amounts are
// integer minor units of the settlement currency; gateways do not accept
// fractional amounts.
type CreateIntentInput struct {
	MinorAmount int64
	Currency    string
	CardToken   string
	Metadata    map[string]interface{}
}

// Intent is the gateway's handle for a charge in flight.
type Intent struct {
	Ref    string
	Status GatewayStatus
}

// GatewayClient is the narrow capability interface over the external card
// processor. Failures surface as errors, never as a successful
// settlement.
type GatewayClient interface {
	CreateIntent(ctx context.Context, in CreateIntentInput) (*Intent, error)
	// Confirm retrieves the current charge status. It is a read and safe
	// to retry.
	Confirm(ctx context.Context, intentRef string) (GatewayStatus, error)
	// Refund moves money back and must never be auto-retried.
	Refund(ctx context.Context, chargeRef string, minorAmount int64, reason string) (string, error)
}

// BeginInput carries the method-specific payload supplied at initiation.
type BeginInput struct {
	CardToken      string
	ReferenceToken *string
	BankDetails    *entity.BankDetails
}

// Adapter is the common capability the payment ledger drives for both
// settlement paths. Begin decorates the payment with method-specific
// fields and reports the status the payment should advance to; the
// ledger persists. Refund returns the external (or manual) refund
// reference.
type Adapter interface {
	Method() entity.PaymentMethod
	Begin(ctx context.Context, payment *entity.Payment, in BeginInput) (entity.PaymentStatus, error)
	Refund(ctx context.Context, payment *entity.Payment, amount decimal.Decimal, reason string) (string, error)
}

// Registry resolves the adapter for a payment method.
type Registry struct {
	adapters map[entity.PaymentMethod]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[entity.PaymentMethod]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Method()] = a
	}
	return &Registry{adapters: m}
}

func (r *Registry) For(method entity.PaymentMethod) (Adapter, error) {
	adapter, ok := r.adapters[method]
	if !ok {
		return nil, errs.Validation("unsupported payment method: " + string(method))
	}
	return adapter, nil
}
