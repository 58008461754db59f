package domain

const (
	CostTypePickup    = "pickup"
	CostTypeInsurance = "insurance"
)

type QuoteDimensions struct {
	Width            float64 `json:"width"`
	Height           float64 `json:"height"`
	PackingThickness float64 `json:"packingThickness"`
}

type QuotePricing struct {
	PricePerCm      float64 `json:"pricePerCm"`
	BasePrice       float64 `json:"basePrice"`
	AdditionalCosts float64 `json:"additionalCosts"`
	TotalPrice      float64 `json:"totalPrice"`
}

type QuoteShipping struct {
	CalculatedWeight float64 `json:"calculatedWeight"`
	MinWeight        float64 `json:"minWeight"`
	FinalWeight      float64 `json:"finalWeight"`
}

type CostItem struct {
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// PriceQuote is the per-unit result of one calculator run. It is never
// persisted on its own; orders keep a JSON snapshot.
type PriceQuote struct {
	Dimensions QuoteDimensions `json:"dimensions"`
	Pricing    QuotePricing    `json:"pricing"`
	Shipping   QuoteShipping   `json:"shipping"`
	Costs      []CostItem      `json:"costs"`
}
