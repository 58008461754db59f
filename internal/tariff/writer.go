package tariff

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/phenrril/floodbar/internal/domain"
)

const exportSheet = "Tarif"

// WriteXLSX writes rates in the upload layout so an export can be
// re-imported unchanged.
func WriteXLSX(w io.Writer, rates []domain.ShippingRate) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}
	if err := writeRow(f, 1, toCells(Header)); err != nil {
		return err
	}
	for i, r := range rates {
		row := []any{
			i + 1, r.Asal, r.Tujuan, str(r.Provinsi), str(r.Kabupaten), str(r.Kecamatan), r.Wilayah, string(r.Via),
			r.HargaOnline, r.HargaPks, num(r.MinKg), num(r.KgBerikutnya), r.LeadTime, str(r.Keterangan),
			str(r.Cabang), str(r.AlamatCabang), str(r.TeleponCabang),
		}
		if err := writeRow(f, i+2, row); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}

func writeRow(f *excelize.File, n int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(exportSheet, cell, &cells); err != nil {
		return fmt.Errorf("tulis baris %d: %w", n, err)
	}
	return nil
}

func toCells(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func num(p *float64) any {
	if p == nil {
		return ""
	}
	return *p
}
