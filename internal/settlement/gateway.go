package settlement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"service-marketplace/internal/data/entity"
	"service-marketplace/pkg/currency"
	"service-marketplace/pkg/errs"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OmiseGateway talks to the Omise card processor.
type OmiseGateway struct {
	client  *omise.Client
	timeout time.Duration
	log     *zap.Logger
}

func NewOmiseGateway(client *omise.Client, timeout time.Duration, log *zap.Logger) *OmiseGateway {
	// omise.Client embeds http.Client, so the request deadline lives there.
	client.Timeout = timeout
	return &OmiseGateway{
		client:  client,
		timeout: timeout,
		log:     log.With(zap.String("gateway", "omise")),
	}
}

func (g *OmiseGateway) CreateIntent(ctx context.Context, in CreateIntentInput) (*Intent, error) {
	charge := &omise.Charge{}
	req := &operations.CreateCharge{
		Amount:   in.MinorAmount,
		Currency: in.Currency,
		Card:     in.CardToken,
		Metadata: in.Metadata,
	}
	if err := g.client.Do(charge, req); err != nil {
		g.log.Error("create charge failed", zap.Error(err))
		return nil, errs.External("gateway", fmt.Errorf("create charge: %w", err))
	}

	status := normalizeChargeStatus(string(charge.Status))
	g.log.Info("charge created",
		zap.String("charge_id", charge.ID),
		zap.String("status", string(charge.Status)))

	return &Intent{Ref: charge.ID, Status: status}, nil
}

func (g *OmiseGateway) Confirm(ctx context.Context, intentRef string) (GatewayStatus, error) {
	charge := &omise.Charge{}
	if err := g.client.Do(charge, &operations.RetrieveCharge{ChargeID: intentRef}); err != nil {
		g.log.Error("retrieve charge failed", zap.String("charge_id", intentRef), zap.Error(err))
		return "", errs.External("gateway", fmt.Errorf("retrieve charge %s: %w", intentRef, err))
	}
	return normalizeChargeStatus(string(charge.Status)), nil
}

func (g *OmiseGateway) Refund(ctx context.Context, chargeRef string, minorAmount int64, reason string) (string, error) {
	refund := &omise.Refund{}
	req := &operations.CreateRefund{
		ChargeID: chargeRef,
		Amount:   minorAmount,
		Metadata: map[string]interface{}{"reason": reason},
	}
	if err := g.client.Do(refund, req); err != nil {
		g.log.Error("refund failed", zap.String("charge_id", chargeRef), zap.Error(err))
		return "", errs.External("gateway", fmt.Errorf("refund charge %s: %w", chargeRef, err))
	}
	g.log.Info("refund created",
		zap.String("charge_id", chargeRef),
		zap.String("refund_id", refund.ID),
		zap.Int64("amount", minorAmount))
	return refund.ID, nil
}

// normalizeChargeStatus maps the processor's charge states onto the three
// statuses the ledger distinguishes. Anything still in flight counts as
// pending.
func normalizeChargeStatus(status string) GatewayStatus {
	switch {
	case status == "successful":
		return GatewayStatusSucceeded
	case status == "failed" || status == "expired" || status == "reversed":
		return GatewayStatusFailed
	case strings.HasPrefix(status, "awaiting") || status == "pending":
		return GatewayStatusPending
	default:
		return GatewayStatusPending
	}
}

// GatewayAdapter settles card payments through an external processor. The
// charge is created in the platform's settlement currency, so the booking
// amount converts through the rate table first.
type GatewayAdapter struct {
	client GatewayClient
	rates  *currency.Table
	log    *zap.Logger
}

func NewGatewayAdapter(client GatewayClient, rates *currency.Table, log *zap.Logger) *GatewayAdapter {
	return &GatewayAdapter{
		client: client,
		rates:  rates,
		log:    log.With(zap.String("adapter", "gateway_card")),
	}
}

func (a *GatewayAdapter) Method() entity.PaymentMethod {
	return entity.MethodGatewayCard
}

func (a *GatewayAdapter) Begin(ctx context.Context, payment *entity.Payment, in BeginInput) (entity.PaymentStatus, error) {
	if in.CardToken == "" {
		return "", errs.Validation("card token is required for gateway payments")
	}

	settled, settleCurrency, err := a.rates.ToSettlement(payment.Amount, payment.Currency)
	if err != nil {
		return "", errs.Validation(err.Error())
	}
	minor := currency.MinorUnits(settled)
	if minor <= 0 {
		return "", errs.Validation("payment amount converts to a zero charge")
	}

	intent, err := a.client.CreateIntent(ctx, CreateIntentInput{
		MinorAmount: minor,
		Currency:    settleCurrency,
		CardToken:   in.CardToken,
		Metadata: map[string]interface{}{
			"payment_id": payment.ID.String(),
			"booking_id": payment.BookingID.String(),
		},
	})
	if err != nil {
		return "", err
	}

	payment.GatewayRef = &intent.Ref
	payment.GatewayAmount = &settled
	payment.GatewayCurrency = &settleCurrency

	// Even an instantly-successful charge goes through awaiting_payer_action
	// first; confirmation lands via webhook or polling so every settlement
	// takes the same path.
	return entity.PaymentStatusAwaitingPayer, nil
}

func (a *GatewayAdapter) Refund(ctx context.Context, payment *entity.Payment, amount decimal.Decimal, reason string) (string, error) {
	if payment.GatewayRef == nil {
		return "", errs.Conflict("payment", payment.ID.String(), "has no gateway charge to refund")
	}

	settled, _, err := a.rates.ToSettlement(amount, payment.Currency)
	if err != nil {
		return "", errs.Validation(err.Error())
	}
	minor := currency.MinorUnits(settled)
	if minor <= 0 {
		return "", errs.Validation("refund amount converts to zero")
	}

	return a.client.Refund(ctx, *payment.GatewayRef, minor, reason)
}
