package domain

import "time"

// PricingConfig is the admin-edited singleton that drives the calculator.
// Warehouse fields are shipment origin metadata only.
type PricingConfig struct {
	ID                  uint      `gorm:"primaryKey" json:"-"`
	PriceUnder60cm      float64   `gorm:"column:price_under60cm;type:decimal(14,2);not null;default:0" json:"priceUnder60cm"`
	PriceOver60cm       float64   `gorm:"column:price_over60cm;type:decimal(14,2);not null;default:0" json:"priceOver60cm"`
	PackingThickness    float64   `gorm:"type:decimal(10,4);not null;default:0" json:"packingThickness"`
	WeightConstant      float64   `gorm:"type:decimal(14,8);not null;default:0" json:"weightConstant"`
	MinShippingWeight   float64   `gorm:"type:decimal(10,2);not null;default:0" json:"minShippingWeight"`
	PickupCost          float64   `gorm:"type:decimal(14,2);not null;default:0" json:"pickupCost"`
	InsuranceCost       float64   `gorm:"type:decimal(14,2);not null;default:0" json:"insuranceCost"`
	WarehouseName       string    `gorm:"size:140" json:"warehouseName"`
	WarehouseAddress    string    `gorm:"type:text" json:"warehouseAddress"`
	WarehouseCity       string    `gorm:"size:120" json:"warehouseCity"`
	WarehousePostalCode string    `gorm:"size:20" json:"warehousePostalCode"`
	WarehousePhone      string    `gorm:"size:40" json:"warehousePhone"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func (PricingConfig) TableName() string { return "pricing_configs" }

// Validate rejects negative numeric fields.
func (c *PricingConfig) Validate() error {
	for _, v := range []float64{c.PriceUnder60cm, c.PriceOver60cm, c.PackingThickness, c.WeightConstant, c.MinShippingWeight, c.PickupCost, c.InsuranceCost} {
		if v < 0 {
			return ErrInvalidConfig
		}
	}
	return nil
}

// DefaultPricingConfig is written on first start when no row exists.
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		ID:                1,
		PriceUnder60cm:    5000,
		PriceOver60cm:     4500,
		PackingThickness:  2,
		WeightConstant:    0.0001,
		MinShippingWeight: 10,
		PickupCost:        50000,
		InsuranceCost:     25000,
		WarehouseName:     "FloodBar Workshop",
		WarehouseCity:     "JAKARTA",
	}
}

type PaymentSettings struct {
	ID                   uint      `gorm:"primaryKey" json:"-"`
	Provider             string    `gorm:"size:40;not null;default:'xendit'" json:"provider"`
	AdminFee             float64   `gorm:"type:decimal(14,2);not null;default:0" json:"adminFee"`
	AdminFeePercent      float64   `gorm:"type:decimal(6,3);not null;default:0" json:"adminFeePercent"`
	InvoiceDurationHours int       `gorm:"not null;default:24" json:"invoiceDurationHours"`
	Enabled              bool      `gorm:"not null;default:true" json:"enabled"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

func (PaymentSettings) TableName() string { return "payment_settings" }

func (p *PaymentSettings) Validate() error {
	if p.AdminFee < 0 || p.AdminFeePercent < 0 || p.InvoiceDurationHours < 0 {
		return ErrInvalidConfig
	}
	return nil
}

func DefaultPaymentSettings() PaymentSettings {
	return PaymentSettings{ID: 1, Provider: "xendit", AdminFee: 5000, InvoiceDurationHours: 24, Enabled: true}
}
