package usecase

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/phenrril/floodbar/internal/domain"
	"github.com/phenrril/floodbar/internal/tariff"
)

const exportPageSize = 1000

type RateUC struct {
	Rates domain.ShippingRateRepo
}

func (uc *RateUC) Search(ctx context.Context, f domain.RateFilter) ([]domain.ShippingRate, int64, error) {
	if f.PageSize <= 0 || f.PageSize > 200 {
		f.PageSize = 20
	}
	via, ok := domain.ParseVia(string(f.Via))
	if !ok {
		return nil, 0, tariff.ErrUnknownVia
	}
	f.Via = via
	return uc.Rates.Search(ctx, f)
}

func (uc *RateUC) Destinations(ctx context.Context, q string, limit int) ([]string, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return uc.Rates.Destinations(ctx, strings.ToUpper(strings.TrimSpace(q)), limit)
}

func (uc *RateUC) Get(ctx context.Context, id uint) (*domain.ShippingRate, error) {
	return uc.Rates.FindByID(ctx, id)
}

// Update replaces one row's fields, key included. Moving a row onto a key
// that already exists fails with ErrDuplicateRate.
func (uc *RateUC) Update(ctx context.Context, id uint, in *domain.ShippingRate) (*domain.ShippingRate, error) {
	if in == nil {
		return nil, errors.New("tarif nil")
	}
	cur, err := uc.Rates.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tujuan := strings.ToUpper(strings.TrimSpace(in.Tujuan))
	if tujuan == "" {
		return nil, tariff.ErrMissingTujuan
	}
	via, ok := domain.ParseVia(string(in.Via))
	if !ok {
		return nil, tariff.ErrUnknownVia
	}
	if in.HargaOnline < 0 || in.HargaPks < 0 {
		return nil, domain.ErrInvalidConfig
	}
	raw := cur.Raw
	cur.CopyMutable(in)
	if in.Raw == nil {
		cur.Raw = raw
	}
	cur.Asal = strings.ToUpper(strings.TrimSpace(in.Asal))
	cur.Tujuan = tujuan
	cur.Via = via
	if err := uc.Rates.Save(ctx, cur); err != nil {
		return nil, err
	}
	return cur, nil
}

func (uc *RateUC) Delete(ctx context.Context, id uint) error {
	return uc.Rates.Delete(ctx, id)
}

func (uc *RateUC) Clear(ctx context.Context) (int64, error) {
	return uc.Rates.Clear(ctx)
}

// Export writes the whole table as an .xlsx in the upload layout.
func (uc *RateUC) Export(ctx context.Context, w io.Writer) error {
	var all []domain.ShippingRate
	for page := 1; ; page++ {
		list, total, err := uc.Rates.Search(ctx, domain.RateFilter{Page: page, PageSize: exportPageSize})
		if err != nil {
			return err
		}
		all = append(all, list...)
		if len(list) == 0 || int64(len(all)) >= total {
			break
		}
	}
	return tariff.WriteXLSX(w, all)
}
