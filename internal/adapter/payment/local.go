package payment

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/willowgrove/storefront/internal/core/domain"
	"github.com/willowgrove/storefront/internal/port"
)

const localIntentPrefix = "pi_local_"

// Local issues and confirms fake payment intents so the whole flow can run
// without processor credentials. Confirmation succeeds for any secret this
// implementation could have issued, which lets the confirmer and the
// backend live in different processes.
type Local struct{}

func NewLocal() *Local {
	return &Local{}
}

func (l *Local) CreateIntent(_ context.Context, _ decimal.Decimal, _, _ string) (string, string, error) {
	id := localIntentPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
	secret := id + "_secret_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	return id, secret, nil
}

func (l *Local) ConfirmPayment(_ context.Context, req port.ConfirmRequest) (port.ConfirmResult, error) {
	intentID, err := IntentIDFromSecret(req.ClientSecret)
	if err != nil {
		return port.ConfirmResult{}, err
	}
	if !strings.HasPrefix(intentID, localIntentPrefix) {
		return port.ConfirmResult{}, &domain.PaymentDeclinedError{
			Code:    "intent_unknown",
			Message: "payment intent was not issued by this processor",
		}
	}
	return port.ConfirmResult{
		PaymentIntentID: intentID,
		Status:          port.PaymentStatusSucceeded,
	}, nil
}
