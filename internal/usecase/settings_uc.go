package usecase

import (
	"context"
	"errors"

	"github.com/phenrril/floodbar/internal/domain"
)

type SettingsUC struct {
	Settings domain.SettingsRepo
}

// PricingConfig is read from the store on every call; nothing is cached.
func (uc *SettingsUC) PricingConfig(ctx context.Context) (*domain.PricingConfig, error) {
	c, err := uc.Settings.PricingConfig(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrMissingConfig
	}
	return c, err
}

func (uc *SettingsUC) UpdatePricingConfig(ctx context.Context, c *domain.PricingConfig) error {
	if c == nil {
		return domain.ErrMissingConfig
	}
	if err := c.Validate(); err != nil {
		return err
	}
	return uc.Settings.SavePricingConfig(ctx, c)
}

// PaymentSettings falls back to the defaults when nothing was saved yet.
func (uc *SettingsUC) PaymentSettings(ctx context.Context) (*domain.PaymentSettings, error) {
	p, err := uc.Settings.PaymentSettings(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		d := domain.DefaultPaymentSettings()
		return &d, nil
	}
	return p, err
}

func (uc *SettingsUC) UpdatePaymentSettings(ctx context.Context, p *domain.PaymentSettings) error {
	if p == nil {
		return domain.ErrInvalidConfig
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Provider == "" {
		p.Provider = "xendit"
	}
	return uc.Settings.SavePaymentSettings(ctx, p)
}
