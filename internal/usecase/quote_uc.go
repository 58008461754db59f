package usecase

import (
	"context"

	"github.com/phenrril/floodbar/internal/domain"
	"github.com/phenrril/floodbar/internal/pricing"
)

type QuoteRequest struct {
	Width            float64 `json:"width"`
	Height           float64 `json:"height"`
	Quantity         int     `json:"quantity"`
	IncludePickup    bool    `json:"includePickup"`
	IncludeInsurance bool    `json:"includeInsurance"`
}

// QuoteResult is the per-unit quote plus the order-level billing weight
// when a quantity was given.
type QuoteResult struct {
	domain.PriceQuote
	Quantity      int     `json:"quantity,omitempty"`
	BillingWeight float64 `json:"billingWeight,omitempty"`
}

type QuoteUC struct {
	Settings *SettingsUC
}

func (uc *QuoteUC) Calculate(ctx context.Context, req QuoteRequest) (*QuoteResult, error) {
	if !(req.Width > 0) || !(req.Height > 0) {
		return nil, domain.ErrInvalidDimensions
	}
	cfg, err := uc.Settings.PricingConfig(ctx)
	if err != nil {
		return nil, err
	}
	q, err := pricing.Calculate(req.Width, req.Height, req.IncludePickup, req.IncludeInsurance, cfg)
	if err != nil {
		return nil, err
	}
	res := &QuoteResult{PriceQuote: q}
	if req.Quantity > 0 {
		res.Quantity = req.Quantity
		res.BillingWeight = pricing.BillingWeight(q.Shipping.FinalWeight, req.Quantity)
	}
	return res, nil
}

// quoteForOrder re-derives the quote from an order's dimensions with the
// current config. It returns nil when that is not possible.
func quoteForOrder(ctx context.Context, settings *SettingsUC, o *domain.Order) *domain.PriceQuote {
	if settings == nil || o == nil {
		return nil
	}
	cfg, err := settings.PricingConfig(ctx)
	if err != nil {
		return nil
	}
	q, err := pricing.Calculate(o.Width, o.Height, o.IncludePickup, o.IncludeInsurance, cfg)
	if err != nil {
		return nil
	}
	return &q
}
