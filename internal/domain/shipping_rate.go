package domain

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

type Via string

const (
	ViaDarat Via = "DARAT"
	ViaLaut  Via = "LAUT"
	ViaUdara Via = "UDARA"
)

// ParseVia normalises a transport mode. An empty value stays empty.
func ParseVia(s string) (Via, bool) {
	v := Via(strings.ToUpper(strings.TrimSpace(s)))
	switch v {
	case "", ViaDarat, ViaLaut, ViaUdara:
		return v, true
	}
	return v, false
}

// ShippingRate is one freight tariff row from the cargo provider's export.
// (Asal, Tujuan, Via) is the natural key.
type ShippingRate struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Asal          string         `gorm:"size:120;not null;default:'';uniqueIndex:idx_shipping_rates_key" json:"asal"`
	Tujuan        string         `gorm:"size:160;not null;uniqueIndex:idx_shipping_rates_key" json:"tujuan"`
	Via           Via            `gorm:"type:varchar(10);not null;default:'';uniqueIndex:idx_shipping_rates_key" json:"via"`
	HargaOnline   float64        `gorm:"type:decimal(14,2);not null;default:0" json:"hargaOnline"`
	HargaPks      float64        `gorm:"type:decimal(14,2);not null;default:0" json:"hargaPks"`
	LeadTime      string         `gorm:"size:60" json:"leadTime"`
	Wilayah       string         `gorm:"type:text" json:"wilayah"`
	Provinsi      *string        `gorm:"size:120" json:"provinsi"`
	Kabupaten     *string        `gorm:"size:120" json:"kabupaten"`
	Kecamatan     *string        `gorm:"size:120" json:"kecamatan"`
	MinKg         *float64       `gorm:"type:decimal(10,2)" json:"minKg"`
	KgBerikutnya  *float64       `gorm:"type:decimal(14,2)" json:"kgBerikutnya"`
	Keterangan    *string        `gorm:"type:text" json:"keterangan"`
	Cabang        *string        `gorm:"size:120" json:"cabang"`
	AlamatCabang  *string        `gorm:"type:text" json:"alamatCabang"`
	TeleponCabang *string        `gorm:"size:60" json:"teleponCabang"`
	Raw           datatypes.JSON `json:"-"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// Key is the upsert identity.
type RateKey struct {
	Asal   string
	Tujuan string
	Via    Via
}

func (r *ShippingRate) Key() RateKey {
	return RateKey{Asal: r.Asal, Tujuan: r.Tujuan, Via: r.Via}
}

// CopyMutable overwrites every non-key field with src's values.
func (r *ShippingRate) CopyMutable(src *ShippingRate) {
	r.HargaOnline = src.HargaOnline
	r.HargaPks = src.HargaPks
	r.LeadTime = src.LeadTime
	r.Wilayah = src.Wilayah
	r.Provinsi = src.Provinsi
	r.Kabupaten = src.Kabupaten
	r.Kecamatan = src.Kecamatan
	r.MinKg = src.MinKg
	r.KgBerikutnya = src.KgBerikutnya
	r.Keterangan = src.Keterangan
	r.Cabang = src.Cabang
	r.AlamatCabang = src.AlamatCabang
	r.TeleponCabang = src.TeleponCabang
	r.Raw = src.Raw
}

type RateFilter struct {
	Query    string
	Via      Via
	Page     int
	PageSize int
}

// ImportStats summarises one tariff upload.
type ImportStats struct {
	Processed int `json:"processed"`
	Added     int `json:"added"`
	Updated   int `json:"updated"`
	Errors    int `json:"errors"`
	Total     int `json:"total"`
}
