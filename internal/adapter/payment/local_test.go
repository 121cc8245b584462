package payment

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willowgrove/storefront/internal/core/domain"
	"github.com/willowgrove/storefront/internal/port"
)

func TestIntentIDFromSecret(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		want    string
		wantErr bool
	}{
		{"stripe shape", "pi_3abc_secret_xyz", "pi_3abc", false},
		{"local shape", "pi_local_abc_secret_def", "pi_local_abc", false},
		{"no marker", "pi_3abc", "", true},
		{"empty", "", "", true},
		{"marker first", "_secret_xyz", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IntentIDFromSecret(tt.secret)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocal_RoundTrip(t *testing.T) {
	ctx := context.Background()
	local := NewLocal()

	amount, err := decimal.NewFromString("53.99")
	require.NoError(t, err)

	id, secret, err := local.CreateIntent(ctx, amount, "usd", "o1")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Contains(t, secret, "_secret_")

	result, err := local.ConfirmPayment(ctx, port.ConfirmRequest{ClientSecret: secret})
	require.NoError(t, err)
	assert.Equal(t, id, result.PaymentIntentID)
	assert.Equal(t, port.PaymentStatusSucceeded, result.Status)
}

func TestLocal_ConfirmAcrossInstances(t *testing.T) {
	// The confirming process is not the one that issued the intent.
	ctx := context.Background()

	_, secret, err := NewLocal().CreateIntent(ctx, decimal.New(100, -2), "usd", "o1")
	require.NoError(t, err)

	result, err := NewLocal().ConfirmPayment(ctx, port.ConfirmRequest{ClientSecret: secret})
	require.NoError(t, err)
	assert.Equal(t, port.PaymentStatusSucceeded, result.Status)
}

func TestLocal_RejectsForeignIntent(t *testing.T) {
	ctx := context.Background()

	_, err := NewLocal().ConfirmPayment(ctx, port.ConfirmRequest{
		ClientSecret: "pi_3abc_secret_xyz",
	})

	var declined *domain.PaymentDeclinedError
	require.ErrorAs(t, err, &declined)
	assert.Equal(t, "intent_unknown", declined.Code)
}
