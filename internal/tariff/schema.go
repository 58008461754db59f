// Package tariff reads and writes the cargo provider's tariff export.
//
// The column order is a fixed external contract (schema v1). A change in the
// provider's export is a breaking change and must bump the schema here.
package tariff

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/phenrril/floodbar/internal/domain"
)

const SchemaVersion = 1

const (
	colNo = iota
	colAsal
	colTujuan
	colProvinsi
	colKabupaten
	colKecamatan
	colWilayah
	colVia
	colHargaOnline
	colHargaPks
	colMinKg
	colKgBerikutnya
	colLeadTime
	colKeterangan
	colCabang
	colAlamatCabang
	colTeleponCabang
	columnCount
)

// Header is the provider's header row, in column order.
var Header = []string{
	"NO", "ASAL", "TUJUAN", "PROVINSI", "KABUPATEN", "KECAMATAN", "WILAYAH", "VIA",
	"HARGA ONLINE", "HARGA PKS", "MIN KG", "KG BERIKUTNYA", "LEAD TIME", "KETERANGAN",
	"CABANG", "ALAMAT CABANG", "TELEPON CABANG",
}

var (
	ErrMissingTujuan = errors.New("kolom TUJUAN kosong")
	ErrUnknownVia    = errors.New("VIA tidak dikenal")
)

// Row is one data row of an upload. Either Rate or Err is set.
type Row struct {
	Line int
	Rate *domain.ShippingRate
	Err  error
}

func isHeader(rec []string) bool {
	for _, c := range rec {
		if strings.EqualFold(strings.TrimSpace(c), "TUJUAN") {
			return true
		}
	}
	return false
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ParseRecord maps one positional record to a ShippingRate. Missing
// trailing cells are treated as empty.
func ParseRecord(rec []string) (*domain.ShippingRate, error) {
	cells := make([]string, columnCount)
	for i := 0; i < columnCount && i < len(rec); i++ {
		cells[i] = strings.TrimSpace(strings.TrimPrefix(rec[i], "\ufeff"))
	}

	tujuan := strings.ToUpper(cells[colTujuan])
	if tujuan == "" {
		return nil, ErrMissingTujuan
	}
	via, ok := domain.ParseVia(cells[colVia])
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVia, cells[colVia])
	}
	online, err := ParsePrice(cells[colHargaOnline])
	if err != nil {
		return nil, fmt.Errorf("HARGA ONLINE: %w", err)
	}
	pks, err := ParsePrice(cells[colHargaPks])
	if err != nil {
		return nil, fmt.Errorf("HARGA PKS: %w", err)
	}
	minKg, err := optionalNumber(cells[colMinKg])
	if err != nil {
		return nil, fmt.Errorf("MIN KG: %w", err)
	}
	nextKg, err := optionalNumber(cells[colKgBerikutnya])
	if err != nil {
		return nil, fmt.Errorf("KG BERIKUTNYA: %w", err)
	}

	raw := make(map[string]string, columnCount)
	for i, h := range Header {
		raw[h] = cells[i]
	}
	rawJSON, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}

	return &domain.ShippingRate{
		Asal:          strings.ToUpper(cells[colAsal]),
		Tujuan:        tujuan,
		Via:           via,
		HargaOnline:   online,
		HargaPks:      pks,
		LeadTime:      cells[colLeadTime],
		Wilayah:       cells[colWilayah],
		Provinsi:      optionalString(cells[colProvinsi]),
		Kabupaten:     optionalString(cells[colKabupaten]),
		Kecamatan:     optionalString(cells[colKecamatan]),
		MinKg:         minKg,
		KgBerikutnya:  nextKg,
		Keterangan:    optionalString(cells[colKeterangan]),
		Cabang:        optionalString(cells[colCabang]),
		AlamatCabang:  optionalString(cells[colAlamatCabang]),
		TeleponCabang: optionalString(cells[colTeleponCabang]),
		Raw:           datatypes.JSON(rawJSON),
	}, nil
}

// ParsePrice accepts "Rp 12.500", "12.500,50", "12500" and "-" (zero).
func ParsePrice(s string) (float64, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "RP")
	v = strings.TrimPrefix(v, ".")
	v = strings.ReplaceAll(v, " ", "")
	if v == "" || v == "-" {
		return 0, nil
	}
	if strings.Contains(v, ",") {
		v = strings.ReplaceAll(v, ".", "")
		v = strings.ReplaceAll(v, ",", ".")
	} else if i := strings.LastIndex(v, "."); i >= 0 && len(v)-i-1 == 3 {
		v = strings.ReplaceAll(v, ".", "")
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return 0, fmt.Errorf("angka tidak valid %q", s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("angka negatif %q", s)
	}
	f, _ := d.Round(2).Float64()
	return f, nil
}

func optionalNumber(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := ParsePrice(s)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type collector struct {
	rows       []Row
	headerSeen bool
}

// add handles one record at the given 1-based line, skipping the header and
// blank lines.
func (c *collector) add(line int, rec []string) {
	if isBlank(rec) {
		return
	}
	if !c.headerSeen && isHeader(rec) {
		c.headerSeen = true
		return
	}
	rate, err := ParseRecord(rec)
	c.rows = append(c.rows, Row{Line: line, Rate: rate, Err: err})
}

func (c *collector) fail(line int, err error) {
	c.rows = append(c.rows, Row{Line: line, Err: err})
}
