package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid only checks membership. Any status may follow any other so admins
// can revert a wrongly marked order.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

type Order struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	CustomerName    string `gorm:"size:140" json:"customerName"`
	CustomerEmail   string `gorm:"size:140;index" json:"customerEmail"`
	CustomerPhone   string `gorm:"size:50" json:"customerPhone"`
	CustomerAddress string `gorm:"type:text" json:"customerAddress"`
	CustomerCity    string `gorm:"size:120" json:"customerCity"`
	PostalCode      string `gorm:"size:20" json:"postalCode"`
	Notes           string `gorm:"type:text" json:"notes"`

	Width     float64 `gorm:"type:decimal(10,2)" json:"width"`
	Height    float64 `gorm:"type:decimal(10,2)" json:"height"`
	Thickness float64 `gorm:"type:decimal(10,4)" json:"thickness"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	Finish    string  `gorm:"size:60" json:"finish"`

	IncludePickup    bool `gorm:"not null;default:false" json:"includePickup"`
	IncludeInsurance bool `gorm:"not null;default:false" json:"includeInsurance"`
	SelfPickup       bool `gorm:"not null;default:false" json:"selfPickup"`

	ShippingRateID  *uint   `gorm:"index" json:"shippingRateId,omitempty"`
	ShippingOrigin  string  `gorm:"size:120" json:"shippingOrigin"`
	ShippingDest    string  `gorm:"size:160" json:"shippingDestination"`
	ShippingService string  `gorm:"size:20" json:"shippingService"`
	ShippingWeight  float64 `gorm:"type:decimal(10,2)" json:"shippingWeight"`
	ShippingCost    float64 `gorm:"type:decimal(14,2)" json:"shippingCost"`

	PaymentMethod     string     `gorm:"size:40" json:"paymentMethod"`
	PaymentProvider   string     `gorm:"size:40" json:"paymentProvider"`
	GatewayInvoiceID  string     `gorm:"size:140;index" json:"gatewayInvoiceId"`
	GatewayInvoiceURL string     `gorm:"size:500" json:"gatewayInvoiceUrl"`
	PaidAt            *time.Time `json:"paidAt,omitempty"`

	UnitPrice  float64 `gorm:"type:decimal(14,2)" json:"unitPrice"`
	Subtotal   float64 `gorm:"type:decimal(14,2)" json:"subtotal"`
	AdminFee   float64 `gorm:"type:decimal(14,2)" json:"adminFee"`
	GrandTotal float64 `gorm:"type:decimal(14,2)" json:"grandTotal"`

	Status         OrderStatus    `gorm:"type:varchar(20);index" json:"status"`
	PaymentStatus  PaymentStatus  `gorm:"type:varchar(20);index" json:"paymentStatus"`
	IsChecked      bool           `gorm:"not null;default:false" json:"isChecked"`
	TrackingNumber string         `gorm:"size:80" json:"trackingNumber"`
	Notified       bool           `gorm:"not null;default:false" json:"-"`
	QuoteSnapshot  datatypes.JSON `json:"quoteSnapshot,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type OrderFilter struct {
	Status        OrderStatus
	PaymentStatus PaymentStatus
	Query         string
	Page          int
	PageSize      int
}

// OrderPatch carries admin edits; nil fields are left untouched.
type OrderPatch struct {
	Status         *OrderStatus   `json:"status,omitempty"`
	PaymentStatus  *PaymentStatus `json:"paymentStatus,omitempty"`
	IsChecked      *bool          `json:"isChecked,omitempty"`
	TrackingNumber *string        `json:"trackingNumber,omitempty"`
}
