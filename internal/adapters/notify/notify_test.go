package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/phenrril/floodbar/internal/domain"
)

func sampleEvent(kind domain.OrderEventKind) domain.OrderEvent {
	return domain.OrderEvent{
		Kind: kind,
		Order: domain.Order{
			ID:              uuid.MustParse("0b7c8f5e-1111-4a4a-9c9c-123456789abc"),
			CustomerName:    "Sari",
			CustomerEmail:   "sari@example.com",
			CustomerPhone:   "0812-3456-789",
			CustomerAddress: "Jl. Asia Afrika 8",
			CustomerCity:    "Bandung",
			Width:           60,
			Height:          100,
			Quantity:        2,
			ShippingOrigin:  "JAKARTA",
			ShippingDest:    "BANDUNG",
			ShippingService: "DARAT",
			ShippingWeight:  20,
			Subtotal:        540000,
			ShippingCost:    70000,
			AdminFee:        5000,
			GrandTotal:      615000,
			Status:          domain.OrderStatusPending,
			PaymentStatus:   domain.PaymentStatusPending,
		},
		Quote: &domain.PriceQuote{
			Pricing: domain.QuotePricing{PricePerCm: 4500, BasePrice: 270000},
			Costs:   []domain.CostItem{{Type: domain.CostTypePickup, Amount: 50000, Description: "Biaya penjemputan"}},
		},
	}
}

func TestRender(t *testing.T) {
	body, err := Render(sampleEvent(domain.OrderEventCreated))
	require.NoError(t, err)
	assert.Contains(t, body, "PESANAN BARU")
	assert.Contains(t, body, "Total: Rp 615.000")
	assert.Contains(t, body, "Biaya penjemputan: Rp 50.000")
	assert.Contains(t, body, "JAKARTA -> BANDUNG (DARAT) 20 kg")
	assert.Equal(t, "FloodBar pesanan baru #0b7c8f5e", Subject(sampleEvent(domain.OrderEventCreated)))
}

func TestFormatRupiah(t *testing.T) {
	assert.Equal(t, "Rp 0", formatRupiah(0))
	assert.Equal(t, "Rp 999", formatRupiah(999))
	assert.Equal(t, "Rp 1.000", formatRupiah(1000))
	assert.Equal(t, "Rp 1.234.568", formatRupiah(1234567.5))
}

type fakeSender struct {
	msgs []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	f.msgs = append(f.msgs, m...)
	return f.err
}

func TestEmail_SendsToCustomerAndAdmin(t *testing.T) {
	s := &fakeSender{}
	n := &Email{from: "toko@floodbar.id", adminTo: "admin@floodbar.id", sender: s}

	require.NoError(t, n.Notify(context.Background(), sampleEvent(domain.OrderEventPaid)))
	require.Len(t, s.msgs, 2)
	assert.Equal(t, []string{"sari@example.com"}, s.msgs[0].GetHeader("To"))
	assert.Equal(t, []string{"admin@floodbar.id"}, s.msgs[1].GetHeader("To"))

	s.msgs = nil
	require.NoError(t, n.Notify(context.Background(), sampleEvent(domain.OrderEventUpdated)))
	assert.Len(t, s.msgs, 1)

	assert.Nil(t, NewEmail(EmailConfig{}))
}

func TestWhatsApp_PostsToEveryTarget(t *testing.T) {
	var mu sync.Mutex
	var targets []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseForm())
		mu.Lock()
		targets = append(targets, r.PostForm.Get("target"))
		mu.Unlock()
		assert.Contains(t, r.PostForm.Get("message"), "PEMBAYARAN DITERIMA")
		_, _ = w.Write([]byte(`{"status":true}`))
	}))
	defer srv.Close()

	n := NewWhatsApp(srv.URL, "tok", "628111, 628222")
	require.NotNil(t, n)
	require.NoError(t, n.Notify(context.Background(), sampleEvent(domain.OrderEventPaid)))
	assert.Equal(t, []string{"628111", "628222", "628123456789"}, targets)

	assert.Nil(t, NewWhatsApp(srv.URL, "", ""))
}

func TestWhatsApp_ReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewWhatsApp(srv.URL, "tok", "").Notify(context.Background(), sampleEvent(domain.OrderEventCreated))
	assert.Error(t, err)
}

func TestKafka_PublishesEventJSON(t *testing.T) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	p := mocks.NewSyncProducer(t, cfg)
	p.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var e domain.OrderEvent
		if err := json.Unmarshal(val, &e); err != nil {
			return err
		}
		if e.Kind != domain.OrderEventPaid || e.Order.GrandTotal != 615000 {
			return errors.New("unexpected payload")
		}
		return nil
	})

	n := NewKafkaWithProducer(p, "floodbar-orders")
	require.NoError(t, n.Notify(context.Background(), sampleEvent(domain.OrderEventPaid)))
	require.NoError(t, n.Close())
}

type stubNotifier struct {
	name  string
	err   error
	delay time.Duration
	mu    sync.Mutex
	got   []domain.OrderEventKind
}

func (s *stubNotifier) Name() string { return s.name }

func (s *stubNotifier) Notify(ctx context.Context, e domain.OrderEvent) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	s.got = append(s.got, e.Kind)
	s.mu.Unlock()
	return s.err
}

func TestDispatcher_FailureDoesNotStopOthers(t *testing.T) {
	bad := &stubNotifier{name: "bad", err: errors.New("smtp down")}
	good := &stubNotifier{name: "good"}
	d := NewDispatcher(time.Second, bad, nil, good)
	assert.Equal(t, []string{"bad", "good"}, d.Channels())

	d.Publish(sampleEvent(domain.OrderEventCreated))
	d.Publish(sampleEvent(domain.OrderEventPaid))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Wait(ctx))
	assert.Len(t, bad.got, 2)
	assert.Len(t, good.got, 2)
}

func TestDispatcher_PublishDoesNotBlock(t *testing.T) {
	slow := &stubNotifier{name: "slow", delay: 200 * time.Millisecond}
	d := NewDispatcher(time.Second, slow)

	start := time.Now()
	d.Publish(sampleEvent(domain.OrderEventCreated))
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	require.NoError(t, d.Wait(context.Background()))
	assert.Len(t, slow.got, 1)
}
