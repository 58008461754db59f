package postgres

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/phenrril/floodbar/internal/domain"
	"github.com/phenrril/floodbar/internal/migrations"
)

// openTestDB connects to FLOODBAR_TEST_DSN, migrates it and empties the
// tables. The database is wiped, so point it at a throwaway instance.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("FLOODBAR_TEST_DSN")
	if dsn == "" {
		t.Skip("FLOODBAR_TEST_DSN not set")
	}
	db, err := gorm.Open(pgdriver.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrations.Up(sqlDB))
	require.NoError(t, db.Exec("TRUNCATE shipping_rates, orders, pricing_configs, payment_settings RESTART IDENTITY").Error)
	return db
}

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: pgUniqueViolation}
	assert.True(t, isUniqueViolation(dup))
	assert.True(t, isUniqueViolation(fmt.Errorf("simpan tarif: %w", dup)))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23502"}))
	assert.False(t, isUniqueViolation(gorm.ErrRecordNotFound))
	assert.False(t, isUniqueViolation(nil))
}

func TestShippingRateRepo_UpsertSearchClear(t *testing.T) {
	db := openTestDB(t)
	repo := NewShippingRateRepo(db)
	ctx := context.Background()

	created, err := repo.UpsertByKey(ctx, &domain.ShippingRate{Asal: "JAKARTA", Tujuan: "BANDUNG", Via: domain.ViaDarat, HargaOnline: 3500})
	require.NoError(t, err)
	assert.True(t, created)

	again := &domain.ShippingRate{Asal: "JAKARTA", Tujuan: "BANDUNG", Via: domain.ViaDarat, HargaOnline: 3750}
	created, err = repo.UpsertByKey(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NotZero(t, again.ID)

	got, err := repo.FindByKey(ctx, domain.RateKey{Asal: "JAKARTA", Tujuan: "BANDUNG", Via: domain.ViaDarat})
	require.NoError(t, err)
	assert.Equal(t, 3750.0, got.HargaOnline)
	assert.Equal(t, again.ID, got.ID)

	medan := &domain.ShippingRate{Asal: "JAKARTA", Tujuan: "MEDAN", Via: domain.ViaLaut, HargaOnline: 7250}
	_, err = repo.UpsertByKey(ctx, medan)
	require.NoError(t, err)

	list, total, err := repo.Search(ctx, domain.RateFilter{Query: "med"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "MEDAN", list[0].Tujuan)

	_, total, err = repo.Search(ctx, domain.RateFilter{Via: domain.ViaDarat})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	cities, err := repo.Destinations(ctx, "b", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"BANDUNG"}, cities)

	medan.Tujuan = "BANDUNG"
	medan.Via = domain.ViaDarat
	assert.ErrorIs(t, repo.Save(ctx, medan), domain.ErrDuplicateRate)

	assert.ErrorIs(t, repo.Delete(ctx, 9999), domain.ErrNotFound)

	n, err := repo.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	_, total, err = repo.Search(ctx, domain.RateFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestShippingRateRepo_ConcurrentUpsertSameKey(t *testing.T) {
	db := openTestDB(t)
	repo := NewShippingRateRepo(db)
	ctx := context.Background()

	const workers = 8
	for round := 0; round < 5; round++ {
		tujuan := fmt.Sprintf("KOTA-%d", round)
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			inserts int
			errs    []error
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(price float64) {
				defer wg.Done()
				created, err := repo.UpsertByKey(ctx, &domain.ShippingRate{Asal: "JAKARTA", Tujuan: tujuan, Via: domain.ViaUdara, HargaOnline: price})
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, err)
				}
				if created {
					inserts++
				}
			}(float64(1000 + i))
		}
		wg.Wait()

		assert.Empty(t, errs)
		assert.Equal(t, 1, inserts, tujuan)
		_, total, err := repo.Search(ctx, domain.RateFilter{Query: tujuan})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total, tujuan)
	}
}

func TestSettingsRepo_EnsureDefaultsKeepsEdits(t *testing.T) {
	db := openTestDB(t)
	repo := NewSettingsRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.EnsureDefaults(ctx))
	cfg, err := repo.PricingConfig(ctx)
	require.NoError(t, err)
	cfg.PickupCost = 60000
	require.NoError(t, repo.SavePricingConfig(ctx, cfg))

	require.NoError(t, repo.EnsureDefaults(ctx))
	cfg, err = repo.PricingConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, 60000.0, cfg.PickupCost)

	ps, err := repo.PaymentSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "xendit", ps.Provider)
}

func TestOrderRepo_SaveFindList(t *testing.T) {
	db := openTestDB(t)
	repo := NewOrderRepo(db)
	ctx := context.Background()

	o := &domain.Order{
		CustomerName:     "Budi",
		CustomerEmail:    "budi@example.com",
		Width:            60,
		Height:           100,
		Quantity:         2,
		Status:           domain.OrderStatusPending,
		PaymentStatus:    domain.PaymentStatusPending,
		GatewayInvoiceID: "inv-1",
		GrandTotal:       615000,
	}
	require.NoError(t, repo.Save(ctx, o))
	assert.NotEqual(t, uuid.Nil, o.ID)

	got, err := repo.FindByInvoiceID(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.Equal(t, 615000.0, got.GrandTotal)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, total, err := repo.List(ctx, domain.OrderFilter{Status: domain.OrderStatusPending, Query: "BUDI"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)

	_, total, err = repo.List(ctx, domain.OrderFilter{Status: domain.OrderStatusPaid})
	require.NoError(t, err)
	assert.Zero(t, total)
}
