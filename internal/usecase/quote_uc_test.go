package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/floodbar/internal/adapters/repo/memory"
	"github.com/phenrril/floodbar/internal/domain"
)

func TestQuoteCalculate_ReadsConfigEveryCall(t *testing.T) {
	store := memory.NewSettingsRepo()
	settings := &SettingsUC{Settings: store}
	uc := &QuoteUC{Settings: settings}
	ctx := context.Background()

	q, err := uc.Calculate(ctx, QuoteRequest{Width: 60, Height: 100})
	require.NoError(t, err)
	assert.Equal(t, 270000.0, q.Pricing.TotalPrice)

	cfg := domain.DefaultPricingConfig()
	cfg.PriceOver60cm = 5000
	require.NoError(t, settings.UpdatePricingConfig(ctx, &cfg))

	q, err = uc.Calculate(ctx, QuoteRequest{Width: 60, Height: 100, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 300000.0, q.Pricing.TotalPrice)
	assert.Equal(t, 30.0, q.BillingWeight)
}

func TestQuoteCalculate_Errors(t *testing.T) {
	store := memory.NewSettingsRepo()
	uc := &QuoteUC{Settings: &SettingsUC{Settings: store}}

	_, err := uc.Calculate(context.Background(), QuoteRequest{Width: 60})
	assert.ErrorIs(t, err, domain.ErrInvalidDimensions)

	store.ClearPricingConfig()
	_, err = uc.Calculate(context.Background(), QuoteRequest{Width: 60, Height: 10})
	assert.ErrorIs(t, err, domain.ErrMissingConfig)
}

func TestSettings_RejectNegativeAndDefaultPayment(t *testing.T) {
	store := memory.NewSettingsRepo()
	uc := &SettingsUC{Settings: store}
	ctx := context.Background()

	bad := domain.DefaultPricingConfig()
	bad.PickupCost = -1
	assert.ErrorIs(t, uc.UpdatePricingConfig(ctx, &bad), domain.ErrInvalidConfig)

	store.ClearPaymentSettings()
	p, err := uc.PaymentSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "xendit", p.Provider)

	require.NoError(t, uc.UpdatePaymentSettings(ctx, &domain.PaymentSettings{AdminFee: 2500}))
	p, err = uc.PaymentSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "xendit", p.Provider)
	assert.Equal(t, 2500.0, p.AdminFee)
}
