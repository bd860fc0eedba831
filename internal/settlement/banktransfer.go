package settlement

import (
	"context"
	"fmt"
	"strings"

	"service-marketplace/internal/data/entity"
	"service-marketplace/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BankTransferAdapter settles payments over a manual bank transfer. There
// is no external processor: the payer moves money out of band, submits a
// receipt, and the payee confirms or rejects it.
type BankTransferAdapter struct {
	log *zap.Logger
}

func NewBankTransferAdapter(log *zap.Logger) *BankTransferAdapter {
	return &BankTransferAdapter{log: log.With(zap.String("adapter", "bank_transfer"))}
}

func (a *BankTransferAdapter) Method() entity.PaymentMethod {
	return entity.MethodBankTransfer
}

func (a *BankTransferAdapter) Begin(ctx context.Context, payment *entity.Payment, in BeginInput) (entity.PaymentStatus, error) {
	if in.CardToken != "" {
		return "", errs.Validation("card token is not accepted for bank transfers")
	}
	if in.ReferenceToken != nil {
		token := strings.TrimSpace(*in.ReferenceToken)
		if token == "" {
			return "", errs.Validation("reference token must not be blank")
		}
		payment.ReferenceToken = &token
	}
	payment.BankDetails = in.BankDetails
	return entity.PaymentStatusAwaitingPayee, nil
}

// Refund of a bank transfer is a manual operation outside the platform;
// the generated reference is recorded so the back office can tie the
// ledger entry to the actual transfer.
func (a *BankTransferAdapter) Refund(ctx context.Context, payment *entity.Payment, amount decimal.Decimal, reason string) (string, error) {
	ref := fmt.Sprintf("MANUAL-%s", strings.ToUpper(uuid.NewString()[:8]))
	a.log.Info("manual refund recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("reference", ref),
		zap.String("amount", amount.String()))
	return ref, nil
}
