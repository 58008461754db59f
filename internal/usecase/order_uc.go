package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/phenrril/floodbar/internal/domain"
	"github.com/phenrril/floodbar/internal/pricing"
)

var emailRe = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// EventPublisher hands order events to the notification channels. It must
// not block and never reports failures back.
type EventPublisher interface {
	Publish(e domain.OrderEvent)
}

type OrderInput struct {
	CustomerName     string  `json:"customerName"`
	CustomerEmail    string  `json:"customerEmail"`
	CustomerPhone    string  `json:"customerPhone"`
	CustomerAddress  string  `json:"customerAddress"`
	CustomerCity     string  `json:"customerCity"`
	PostalCode       string  `json:"postalCode"`
	Notes            string  `json:"notes"`
	Width            float64 `json:"width"`
	Height           float64 `json:"height"`
	Quantity         int     `json:"quantity"`
	Finish           string  `json:"finish"`
	IncludePickup    bool    `json:"includePickup"`
	IncludeInsurance bool    `json:"includeInsurance"`
	SelfPickup       bool    `json:"selfPickup"`
	ShippingRateID   uint    `json:"shippingRateId"`
	PaymentMethod    string  `json:"paymentMethod"`
}

type OrderUC struct {
	Orders   domain.OrderRepo
	Rates    domain.ShippingRateRepo
	Settings *SettingsUC
	Gateway  domain.PaymentGateway
	Events   EventPublisher
}

func (in *OrderInput) normalize() {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerEmail = strings.ToLower(strings.TrimSpace(in.CustomerEmail))
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.CustomerAddress = strings.TrimSpace(in.CustomerAddress)
	in.CustomerCity = strings.TrimSpace(in.CustomerCity)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	in.Finish = strings.TrimSpace(in.Finish)
}

func (in *OrderInput) validate() error {
	if in.CustomerName == "" || in.CustomerPhone == "" || !emailRe.MatchString(in.CustomerEmail) {
		return domain.ErrMissingCustomer
	}
	if !in.SelfPickup && in.CustomerAddress == "" {
		return domain.ErrMissingCustomer
	}
	if !(in.Width > 0) || !(in.Height > 0) {
		return domain.ErrInvalidDimensions
	}
	if in.Quantity < 1 {
		return domain.ErrInvalidQuantity
	}
	if !in.SelfPickup && in.ShippingRateID == 0 {
		return domain.ErrMissingShipping
	}
	return nil
}

// Create prices and persists an order, then asks the gateway for an invoice
// and emits the created event. Only the first two steps can fail the call.
func (uc *OrderUC) Create(ctx context.Context, in OrderInput) (*domain.Order, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	cfg, err := uc.Settings.PricingConfig(ctx)
	if err != nil {
		return nil, err
	}
	quote, err := pricing.Calculate(in.Width, in.Height, in.IncludePickup, in.IncludeInsurance, cfg)
	if err != nil {
		return nil, err
	}
	ps, err := uc.Settings.PaymentSettings(ctx)
	if err != nil {
		return nil, err
	}

	o := &domain.Order{
		ID:               uuid.New(),
		CustomerName:     in.CustomerName,
		CustomerEmail:    in.CustomerEmail,
		CustomerPhone:    in.CustomerPhone,
		CustomerAddress:  in.CustomerAddress,
		CustomerCity:     in.CustomerCity,
		PostalCode:       in.PostalCode,
		Notes:            in.Notes,
		Width:            in.Width,
		Height:           in.Height,
		Thickness:        quote.Dimensions.PackingThickness,
		Quantity:         in.Quantity,
		Finish:           in.Finish,
		IncludePickup:    in.IncludePickup,
		IncludeInsurance: in.IncludeInsurance,
		SelfPickup:       in.SelfPickup,
		ShippingOrigin:   cfg.WarehouseCity,
		PaymentMethod:    in.PaymentMethod,
		PaymentProvider:  ps.Provider,
		Status:           domain.OrderStatusPending,
		PaymentStatus:    domain.PaymentStatusPending,
	}

	o.UnitPrice = roundRupiah(quote.Pricing.BasePrice)
	o.Subtotal = roundRupiah(quote.Pricing.BasePrice*float64(in.Quantity) + quote.Pricing.AdditionalCosts)
	o.ShippingWeight = pricing.BillingWeight(quote.Shipping.FinalWeight, in.Quantity)

	if !in.SelfPickup {
		rate, err := uc.Rates.FindByID(ctx, in.ShippingRateID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrMissingShipping
			}
			return nil, err
		}
		id := rate.ID
		o.ShippingRateID = &id
		if rate.Asal != "" {
			o.ShippingOrigin = rate.Asal
		}
		o.ShippingDest = rate.Tujuan
		o.ShippingService = string(rate.Via)
		o.ShippingCost = roundRupiah(o.ShippingWeight * rate.HargaOnline)
	}

	o.AdminFee = adminFee(ps, o.Subtotal+o.ShippingCost)
	o.GrandTotal = o.Subtotal + o.ShippingCost + o.AdminFee

	if b, err := json.Marshal(quote); err == nil {
		o.QuoteSnapshot = datatypes.JSON(b)
	}

	if err := uc.Orders.Save(ctx, o); err != nil {
		return nil, err
	}

	if uc.Gateway != nil && ps.Enabled {
		invID, invURL, err := uc.Gateway.CreateInvoice(ctx, o, ps)
		if err != nil {
			log.Error().Err(err).Str("order_id", o.ID.String()).Msg("buat invoice")
		} else {
			o.GatewayInvoiceID = invID
			o.GatewayInvoiceURL = invURL
			if err := uc.Orders.Save(ctx, o); err != nil {
				log.Error().Err(err).Str("order_id", o.ID.String()).Msg("simpan invoice gateway")
			}
		}
	}

	uc.publish(domain.OrderEventCreated, o, &quote)
	return o, nil
}

func (uc *OrderUC) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return uc.Orders.FindByID(ctx, id)
}

func (uc *OrderUC) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int64, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, domain.ErrInvalidStatus
	}
	if f.PaymentStatus != "" && !f.PaymentStatus.Valid() {
		return nil, 0, domain.ErrInvalidStatus
	}
	if f.PageSize <= 0 || f.PageSize > 100 {
		f.PageSize = 20
	}
	return uc.Orders.List(ctx, f)
}

// Update applies an admin edit. Any status may be set from any other; only
// membership in the enum is checked.
func (uc *OrderUC) Update(ctx context.Context, id uuid.UUID, p domain.OrderPatch) (*domain.Order, error) {
	if p.Status != nil && !p.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	if p.PaymentStatus != nil && !p.PaymentStatus.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	o, err := uc.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	changed := false
	if p.Status != nil && *p.Status != o.Status {
		o.Status = *p.Status
		changed = true
	}
	if p.PaymentStatus != nil && *p.PaymentStatus != o.PaymentStatus {
		o.PaymentStatus = *p.PaymentStatus
		if o.PaymentStatus == domain.PaymentStatusPaid && o.PaidAt == nil {
			now := time.Now()
			o.PaidAt = &now
		}
		changed = true
	}
	if p.IsChecked != nil {
		o.IsChecked = *p.IsChecked
	}
	if p.TrackingNumber != nil {
		tn := strings.TrimSpace(*p.TrackingNumber)
		if tn != o.TrackingNumber {
			o.TrackingNumber = tn
			changed = true
		}
	}
	if err := uc.Orders.Save(ctx, o); err != nil {
		return nil, err
	}
	if changed {
		uc.publish(domain.OrderEventUpdated, o, nil)
	}
	return o, nil
}

func (uc *OrderUC) publish(kind domain.OrderEventKind, o *domain.Order, q *domain.PriceQuote) {
	if uc.Events == nil {
		return
	}
	uc.Events.Publish(domain.OrderEvent{Kind: kind, Order: *o, Quote: q})
}

func adminFee(ps *domain.PaymentSettings, base float64) float64 {
	if ps == nil {
		return 0
	}
	return roundRupiah(ps.AdminFee + base*ps.AdminFeePercent/100)
}

// roundRupiah rounds to whole rupiah, half away from zero.
func roundRupiah(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(0).Float64()
	return f
}
