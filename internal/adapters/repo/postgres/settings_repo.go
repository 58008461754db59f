package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/floodbar/internal/domain"
)

const singletonID = 1

type SettingsRepo struct{ db *gorm.DB }

func NewSettingsRepo(db *gorm.DB) *SettingsRepo { return &SettingsRepo{db: db} }

func (r *SettingsRepo) PricingConfig(ctx context.Context) (*domain.PricingConfig, error) {
	var c domain.PricingConfig
	if err := r.db.WithContext(ctx).First(&c, "id = ?", singletonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *SettingsRepo) SavePricingConfig(ctx context.Context, c *domain.PricingConfig) error {
	c.ID = singletonID
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *SettingsRepo) PaymentSettings(ctx context.Context) (*domain.PaymentSettings, error) {
	var p domain.PaymentSettings
	if err := r.db.WithContext(ctx).First(&p, "id = ?", singletonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *SettingsRepo) SavePaymentSettings(ctx context.Context, p *domain.PaymentSettings) error {
	p.ID = singletonID
	return r.db.WithContext(ctx).Save(p).Error
}

// EnsureDefaults inserts the default singletons without touching existing rows.
func (r *SettingsRepo) EnsureDefaults(ctx context.Context) error {
	pc := domain.DefaultPricingConfig()
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&pc).Error; err != nil {
		return err
	}
	ps := domain.DefaultPaymentSettings()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&ps).Error
}
