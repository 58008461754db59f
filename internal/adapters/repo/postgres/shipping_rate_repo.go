package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/floodbar/internal/domain"
)

const pgUniqueViolation = "23505"

type ShippingRateRepo struct{ db *gorm.DB }

func NewShippingRateRepo(db *gorm.DB) *ShippingRateRepo { return &ShippingRateRepo{db: db} }

func (r *ShippingRateRepo) FindByID(ctx context.Context, id uint) (*domain.ShippingRate, error) {
	var sr domain.ShippingRate
	if err := r.db.WithContext(ctx).First(&sr, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &sr, nil
}

func (r *ShippingRateRepo) FindByKey(ctx context.Context, k domain.RateKey) (*domain.ShippingRate, error) {
	var sr domain.ShippingRate
	if err := r.db.WithContext(ctx).Where("asal = ? AND tujuan = ? AND via = ?", k.Asal, k.Tujuan, k.Via).First(&sr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &sr, nil
}

func (r *ShippingRateRepo) UpsertByKey(ctx context.Context, rate *domain.ShippingRate) (bool, error) {
	created, err := r.upsert(ctx, rate)
	if isUniqueViolation(err) {
		// another import inserted the same key between our read and insert
		return r.upsert(ctx, rate)
	}
	return created, err
}

func (r *ShippingRateRepo) upsert(ctx context.Context, rate *domain.ShippingRate) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.ShippingRate
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("asal = ? AND tujuan = ? AND via = ?", rate.Asal, rate.Tujuan, rate.Via).
			First(&existing).Error
		if err == nil {
			existing.CopyMutable(rate)
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			*rate = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		rate.ID = 0
		if err := tx.Create(rate).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

func (r *ShippingRateRepo) Save(ctx context.Context, rate *domain.ShippingRate) error {
	err := r.db.WithContext(ctx).Save(rate).Error
	if isUniqueViolation(err) {
		return domain.ErrDuplicateRate
	}
	return err
}

func (r *ShippingRateRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.ShippingRate{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Clear removes every tariff row.
func (r *ShippingRateRepo) Clear(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("1 = 1").Delete(&domain.ShippingRate{})
	return res.RowsAffected, res.Error
}

func (r *ShippingRateRepo) Search(ctx context.Context, f domain.RateFilter) ([]domain.ShippingRate, int64, error) {
	var list []domain.ShippingRate
	q := r.db.WithContext(ctx).Model(&domain.ShippingRate{})
	if f.Via != "" {
		q = q.Where("via = ?", f.Via)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + s + "%"
		q = q.Where("tujuan ILIKE ? OR asal ILIKE ? OR wilayah ILIKE ? OR kecamatan ILIKE ? OR kabupaten ILIKE ?", like, like, like, like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	offset := (f.Page - 1) * f.PageSize
	if err := q.Order("tujuan asc, via asc").Offset(offset).Limit(f.PageSize).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *ShippingRateRepo) Destinations(ctx context.Context, term string, limit int) ([]string, error) {
	out := []string{}
	q := r.db.WithContext(ctx).Model(&domain.ShippingRate{}).Distinct("tujuan")
	if s := strings.TrimSpace(term); s != "" {
		q = q.Where("tujuan ILIKE ?", s+"%")
	}
	if err := q.Order("tujuan asc").Limit(limit).Pluck("tujuan", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
