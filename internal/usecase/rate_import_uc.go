package usecase

import (
	"context"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/floodbar/internal/domain"
	"github.com/phenrril/floodbar/internal/tariff"
)

// RateImportUC loads the cargo provider's tariff export into the rate table.
//
// Each row is upserted on its own: a failing row is counted and skipped, and
// rows written before a failure stay written. Two imports racing on the same
// key end last-writer-wins.
type RateImportUC struct {
	Rates domain.ShippingRateRepo
}

// Ingest decodes the upload and upserts every data row. The error return is
// reserved for files that cannot be decoded at all.
func (uc *RateImportUC) Ingest(ctx context.Context, filename string, r io.Reader) (domain.ImportStats, error) {
	rows, err := tariff.Read(filename, r)
	if err != nil {
		return domain.ImportStats{}, err
	}
	return uc.IngestRows(ctx, rows), nil
}

func (uc *RateImportUC) IngestRows(ctx context.Context, rows []tariff.Row) domain.ImportStats {
	stats := domain.ImportStats{Total: len(rows)}
	for _, row := range rows {
		stats.Processed++
		if row.Err != nil {
			stats.Errors++
			log.Debug().Err(row.Err).Int("line", row.Line).Msg("baris tarif dilewati")
			continue
		}
		created, err := uc.Rates.UpsertByKey(ctx, row.Rate)
		if err != nil {
			stats.Errors++
			log.Warn().Err(err).Int("line", row.Line).Str("tujuan", row.Rate.Tujuan).Msg("upsert tarif")
			continue
		}
		if created {
			stats.Added++
		} else {
			stats.Updated++
		}
	}
	log.Info().
		Int("total", stats.Total).
		Int("added", stats.Added).
		Int("updated", stats.Updated).
		Int("errors", stats.Errors).
		Msg("import tarif selesai")
	return stats
}
