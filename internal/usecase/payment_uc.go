package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/floodbar/internal/domain"
)

type PaymentUC struct {
	Orders   domain.OrderRepo
	Gateway  domain.PaymentGateway
	Settings *SettingsUC
	Events   EventPublisher
}

// HandleCallback applies a gateway notification to its order. The paid
// event fires once per order.
func (uc *PaymentUC) HandleCallback(ctx context.Context, token string, cb domain.InvoiceCallback) (*domain.Order, error) {
	if uc.Gateway == nil || !uc.Gateway.VerifyCallback(token) {
		return nil, domain.ErrInvalidCallback
	}
	o, err := uc.findOrder(ctx, cb)
	if err != nil {
		return nil, err
	}

	notify := false
	switch strings.ToUpper(strings.TrimSpace(cb.Status)) {
	case "PAID", "SETTLED":
		o.PaymentStatus = domain.PaymentStatusPaid
		if o.Status == domain.OrderStatusPending {
			o.Status = domain.OrderStatusPaid
		}
		if o.PaidAt == nil {
			now := time.Now()
			o.PaidAt = &now
		}
		// Zero means the gateway did not report an amount.
		if cb.PaidAmount > 0 && roundRupiah(cb.PaidAmount) != o.GrandTotal {
			log.Warn().
				Str("order_id", o.ID.String()).
				Float64("paid_amount", cb.PaidAmount).
				Float64("grand_total", o.GrandTotal).
				Msg("jumlah pembayaran tidak sesuai total pesanan")
		}
		if cb.PaymentMethod != "" {
			o.PaymentMethod = cb.PaymentMethod
		}
		if !o.Notified {
			o.Notified = true
			notify = true
		}
	case "EXPIRED", "FAILED":
		if o.PaymentStatus != domain.PaymentStatusPaid {
			o.PaymentStatus = domain.PaymentStatusFailed
		}
	default:
		log.Warn().Str("status", cb.Status).Str("order_id", o.ID.String()).Msg("status callback tidak dikenal")
		return o, nil
	}

	if err := uc.Orders.Save(ctx, o); err != nil {
		return nil, err
	}
	if notify && uc.Events != nil {
		uc.Events.Publish(domain.OrderEvent{Kind: domain.OrderEventPaid, Order: *o, Quote: quoteForOrder(ctx, uc.Settings, o)})
	}
	return o, nil
}

func (uc *PaymentUC) findOrder(ctx context.Context, cb domain.InvoiceCallback) (*domain.Order, error) {
	if cb.InvoiceID != "" {
		o, err := uc.Orders.FindByInvoiceID(ctx, cb.InvoiceID)
		if err == nil {
			return o, nil
		}
	}
	id, ok := uc.Gateway.OrderIDFromReference(cb.ExternalID)
	if !ok {
		log.Warn().Str("external_id", cb.ExternalID).Msg("external ref tidak valid")
		return nil, domain.ErrNotFound
	}
	return uc.Orders.FindByID(ctx, id)
}
