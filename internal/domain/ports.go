package domain

import (
	"context"

	"github.com/google/uuid"
)

type SettingsRepo interface {
	PricingConfig(ctx context.Context) (*PricingConfig, error)
	SavePricingConfig(ctx context.Context, c *PricingConfig) error
	PaymentSettings(ctx context.Context) (*PaymentSettings, error)
	SavePaymentSettings(ctx context.Context, p *PaymentSettings) error
}

type OrderRepo interface {
	Save(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByInvoiceID(ctx context.Context, invoiceID string) (*Order, error)
	List(ctx context.Context, f OrderFilter) ([]Order, int64, error)
}

type ShippingRateRepo interface {
	FindByID(ctx context.Context, id uint) (*ShippingRate, error)
	FindByKey(ctx context.Context, k RateKey) (*ShippingRate, error)
	// UpsertByKey inserts r or overwrites the row sharing its key.
	// created reports which of the two happened.
	UpsertByKey(ctx context.Context, r *ShippingRate) (created bool, err error)
	Save(ctx context.Context, r *ShippingRate) error
	Delete(ctx context.Context, id uint) error
	Clear(ctx context.Context) (int64, error)
	Search(ctx context.Context, f RateFilter) ([]ShippingRate, int64, error)
	Destinations(ctx context.Context, q string, limit int) ([]string, error)
}

// PaymentGateway creates hosted-checkout invoices.
type PaymentGateway interface {
	CreateInvoice(ctx context.Context, o *Order, s *PaymentSettings) (invoiceID, invoiceURL string, err error)
	VerifyCallback(token string) bool
	// OrderIDFromReference recovers the order id embedded in an invoice's
	// external reference, rejecting tampered references.
	OrderIDFromReference(ref string) (uuid.UUID, bool)
}

type OrderEventKind string

const (
	OrderEventCreated OrderEventKind = "order.created"
	OrderEventPaid    OrderEventKind = "order.paid"
	OrderEventUpdated OrderEventKind = "order.updated"
)

type OrderEvent struct {
	Kind  OrderEventKind `json:"kind"`
	Order Order          `json:"order"`
	Quote *PriceQuote    `json:"quote,omitempty"`
}

// Notifier delivers an order event to one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, e OrderEvent) error
}

// InvoiceCallback is the gateway-neutral form of a payment notification.
type InvoiceCallback struct {
	InvoiceID     string
	ExternalID    string
	Status        string
	PaymentMethod string
	PaidAmount    float64
}
