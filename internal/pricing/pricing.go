package pricing

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/phenrril/floodbar/internal/domain"
)

const (
	// WidthTierCm splits the two price-per-cm tiers. Widths strictly below it
	// use the under-60 price.
	WidthTierCm = 60.0

	// MinBillingWeightKg is the courier-grade floor applied per order.
	MinBillingWeightKg = 10.0

	// weightPlaces drops float noise such as 2.8000000000000003 before the
	// ceiling, so it cannot add a kilogram.
	weightPlaces = 6
)

// Calculate computes the per-unit quote for one panel. Quantity is applied
// by the caller.
func Calculate(width, height float64, includePickup, includeInsurance bool, cfg *domain.PricingConfig) (domain.PriceQuote, error) {
	if cfg == nil {
		return domain.PriceQuote{}, domain.ErrMissingConfig
	}
	if !(width > 0) || !(height > 0) {
		return domain.PriceQuote{}, domain.ErrInvalidDimensions
	}

	pricePerCm := cfg.PriceOver60cm
	if width < WidthTierCm {
		pricePerCm = cfg.PriceUnder60cm
	}
	// Height only feeds the weight.
	basePrice := pricePerCm * width

	calculatedWeight := width * height * cfg.PackingThickness * cfg.WeightConstant
	finalWeight := math.Max(calculatedWeight, cfg.MinShippingWeight)

	costs := []domain.CostItem{}
	additional := 0.0
	if includePickup {
		costs = append(costs, domain.CostItem{Type: domain.CostTypePickup, Amount: cfg.PickupCost, Description: "Biaya penjemputan"})
		additional += cfg.PickupCost
	}
	if includeInsurance {
		costs = append(costs, domain.CostItem{Type: domain.CostTypeInsurance, Amount: cfg.InsuranceCost, Description: "Asuransi pengiriman"})
		additional += cfg.InsuranceCost
	}

	return domain.PriceQuote{
		Dimensions: domain.QuoteDimensions{
			Width:            width,
			Height:           height,
			PackingThickness: cfg.PackingThickness,
		},
		Pricing: domain.QuotePricing{
			PricePerCm:      pricePerCm,
			BasePrice:       basePrice,
			AdditionalCosts: additional,
			TotalPrice:      basePrice + additional,
		},
		Shipping: domain.QuoteShipping{
			CalculatedWeight: calculatedWeight,
			MinWeight:        cfg.MinShippingWeight,
			FinalWeight:      finalWeight,
		},
		Costs: costs,
	}, nil
}

// BillingWeight rounds the order weight up to whole kilograms and applies
// the 10 kg courier minimum. It is separate from the engine's
// MinShippingWeight floor.
func BillingWeight(finalWeight float64, quantity int) float64 {
	if quantity < 1 {
		quantity = 1
	}
	w := decimal.NewFromFloat(finalWeight).
		Mul(decimal.NewFromInt(int64(quantity))).
		Round(weightPlaces).
		Ceil()
	return math.Max(w.InexactFloat64(), MinBillingWeightKg)
}
