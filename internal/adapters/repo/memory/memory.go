// Package memory holds map-backed repositories for running without
// Postgres (DB_DRIVER=memory) and for tests. Data is lost on restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phenrril/floodbar/internal/domain"
)

type SettingsRepo struct {
	mu      sync.RWMutex
	pricing *domain.PricingConfig
	payment *domain.PaymentSettings
}

// NewSettingsRepo starts with the default pricing config and payment
// settings.
func NewSettingsRepo() *SettingsRepo {
	c := domain.DefaultPricingConfig()
	p := domain.DefaultPaymentSettings()
	return &SettingsRepo{pricing: &c, payment: &p}
}

func (m *SettingsRepo) PricingConfig(context.Context) (*domain.PricingConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.pricing == nil {
		return nil, domain.ErrNotFound
	}
	c := *m.pricing
	return &c, nil
}

func (m *SettingsRepo) SavePricingConfig(_ context.Context, c *domain.PricingConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = 1
	c.UpdatedAt = time.Now()
	cp := *c
	m.pricing = &cp
	return nil
}

// ClearPricingConfig simulates a fresh database with no config row.
func (m *SettingsRepo) ClearPricingConfig() {
	m.mu.Lock()
	m.pricing = nil
	m.mu.Unlock()
}

func (m *SettingsRepo) PaymentSettings(context.Context) (*domain.PaymentSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.payment == nil {
		return nil, domain.ErrNotFound
	}
	p := *m.payment
	return &p, nil
}

func (m *SettingsRepo) SavePaymentSettings(_ context.Context, p *domain.PaymentSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = 1
	p.UpdatedAt = time.Now()
	cp := *p
	m.payment = &cp
	return nil
}

func (m *SettingsRepo) ClearPaymentSettings() {
	m.mu.Lock()
	m.payment = nil
	m.mu.Unlock()
}

type ShippingRateRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*domain.ShippingRate
}

func NewShippingRateRepo() *ShippingRateRepo {
	return &ShippingRateRepo{rows: map[uint]*domain.ShippingRate{}}
}

func (m *ShippingRateRepo) find(k domain.RateKey) *domain.ShippingRate {
	for _, r := range m.rows {
		if r.Key() == k {
			return r
		}
	}
	return nil
}

func (m *ShippingRateRepo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *ShippingRateRepo) FindByID(_ context.Context, id uint) (*domain.ShippingRate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *ShippingRateRepo) FindByKey(_ context.Context, k domain.RateKey) (*domain.ShippingRate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r := m.find(k); r != nil {
		cp := *r
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *ShippingRateRepo) UpsertByKey(_ context.Context, r *domain.ShippingRate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if cur := m.find(r.Key()); cur != nil {
		cur.CopyMutable(r)
		cur.UpdatedAt = now
		r.ID = cur.ID
		return false, nil
	}
	m.nextID++
	r.ID = m.nextID
	r.CreatedAt, r.UpdatedAt = now, now
	cp := *r
	m.rows[cp.ID] = &cp
	return true, nil
}

func (m *ShippingRateRepo) Save(_ context.Context, r *domain.ShippingRate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if other := m.find(r.Key()); other != nil && other.ID != r.ID {
		return domain.ErrDuplicateRate
	}
	if r.ID == 0 {
		m.nextID++
		r.ID = m.nextID
		r.CreatedAt = time.Now()
	}
	r.UpdatedAt = time.Now()
	cp := *r
	m.rows[r.ID] = &cp
	return nil
}

func (m *ShippingRateRepo) Delete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *ShippingRateRepo) Clear(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.rows))
	m.rows = map[uint]*domain.ShippingRate{}
	return n, nil
}

func (m *ShippingRateRepo) Search(_ context.Context, f domain.RateFilter) ([]domain.ShippingRate, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToUpper(strings.TrimSpace(f.Query))
	var all []domain.ShippingRate
	for _, r := range m.rows {
		if f.Via != "" && r.Via != f.Via {
			continue
		}
		if q != "" && !rateMatches(r, q) {
			continue
		}
		all = append(all, *r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, f.Page, f.PageSize), int64(len(all)), nil
}

func rateMatches(r *domain.ShippingRate, q string) bool {
	fields := []string{r.Tujuan, r.Asal, r.Wilayah}
	if r.Kecamatan != nil {
		fields = append(fields, *r.Kecamatan)
	}
	if r.Kabupaten != nil {
		fields = append(fields, *r.Kabupaten)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToUpper(f), q) {
			return true
		}
	}
	return false
}

func (m *ShippingRateRepo) Destinations(_ context.Context, q string, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, r := range m.rows {
		if strings.HasPrefix(r.Tujuan, q) && !seen[r.Tujuan] {
			seen[r.Tujuan] = true
			out = append(out, r.Tujuan)
		}
	}
	sort.Strings(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type OrderRepo struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]domain.Order
	saves int
}

func NewOrderRepo() *OrderRepo {
	return &OrderRepo{rows: map[uuid.UUID]domain.Order{}}
}

// Saves counts Save calls.
func (m *OrderRepo) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *OrderRepo) Save(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	now := time.Now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	m.saves++
	m.rows[o.ID] = *o
	return nil
}

func (m *OrderRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &o, nil
}

func (m *OrderRepo) FindByInvoiceID(_ context.Context, invoiceID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if invoiceID == "" {
		return nil, domain.ErrNotFound
	}
	for _, o := range m.rows {
		if o.GatewayInvoiceID == invoiceID {
			cp := o
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *OrderRepo) List(_ context.Context, f domain.OrderFilter) ([]domain.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(f.Query))
	var out []domain.Order
	for _, o := range m.rows {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(o.CustomerName+" "+o.CustomerEmail+" "+o.CustomerPhone), q) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, f.Page, f.PageSize), int64(len(out)), nil
}

func paginate[T any](all []T, page, size int) []T {
	if size <= 0 {
		return all
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(all) {
		return nil
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}
