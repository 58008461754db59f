package domain

import "errors"

var (
	ErrNotFound          = errors.New("data tidak ditemukan")
	ErrInvalidDimensions = errors.New("Lebar dan tinggi wajib diisi")
	ErrMissingConfig     = errors.New("konfigurasi harga belum tersedia")
	ErrInvalidConfig     = errors.New("nilai konfigurasi tidak boleh negatif")
	ErrInvalidStatus     = errors.New("status tidak valid")
	ErrMissingCustomer   = errors.New("data pelanggan belum lengkap")
	ErrMissingShipping   = errors.New("tarif pengiriman wajib dipilih")
	ErrDuplicateRate     = errors.New("tarif dengan asal, tujuan dan via yang sama sudah ada")
	ErrInvalidQuantity   = errors.New("jumlah minimal 1")
	ErrInvalidCallback   = errors.New("callback token tidak valid")
)
