package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/floodbar/internal/domain"
	"github.com/phenrril/floodbar/internal/tariff"
	"github.com/phenrril/floodbar/internal/usecase"
)

const defaultUploadMax = 20 << 20

type Deps struct {
	Quotes   *usecase.QuoteUC
	Settings *usecase.SettingsUC
	Rates    *usecase.RateUC
	Imports  *usecase.RateImportUC
	Orders   *usecase.OrderUC
	Payments *usecase.PaymentUC

	AdminAPIKey string
	// UploadMax caps tariff uploads, in bytes.
	UploadMax int64
	// Ping backs /healthz; nil means always healthy.
	Ping       func(ctx context.Context) error
	RateLimits RateLimits
}

type Server struct {
	router    chi.Router
	quotes    *usecase.QuoteUC
	settings  *usecase.SettingsUC
	rates     *usecase.RateUC
	imports   *usecase.RateImportUC
	orders    *usecase.OrderUC
	payments  *usecase.PaymentUC
	adminKey  string
	uploadMax int64
	ping      func(ctx context.Context) error
	limits    RateLimits
}

func New(d Deps) http.Handler {
	s := &Server{
		router:    chi.NewRouter(),
		quotes:    d.Quotes,
		settings:  d.Settings,
		rates:     d.Rates,
		imports:   d.Imports,
		orders:    d.Orders,
		payments:  d.Payments,
		adminKey:  d.AdminAPIKey,
		uploadMax: d.UploadMax,
		ping:      d.Ping,
		limits:    d.RateLimits,
	}
	if s.uploadMax <= 0 {
		s.uploadMax = defaultUploadMax
	}
	if s.adminKey == "" {
		log.Warn().Msg("ADMIN_API_KEY kosong, semua rute admin ditolak")
	}
	s.routes()
	return Chain(s.router,
		Recovery,
		Logging,
		RequestID,
	)
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.Compress(5))
	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(limitByIP(s.limits.Global))

		r.With(limitByIP(s.limits.Calculate)).Post("/calculate", s.apiCalculate)
		r.Get("/product-config", s.apiProductConfig)

		r.Get("/shipping-rates", s.apiRatesSearch)
		r.Get("/shipping-rates/cities", s.apiRateCities)

		r.With(limitByIP(s.limits.Orders)).Post("/orders", s.apiOrderCreate)
		r.Get("/orders/{id}", s.apiOrderGet)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)

			r.Put("/product-config", s.apiProductConfigUpdate)
			r.Get("/payment-settings", s.apiPaymentSettings)
			r.Put("/payment-settings", s.apiPaymentSettingsUpdate)

			r.Post("/shipping-rates/upload", s.apiRatesUpload)
			r.Get("/shipping-rates/export", s.apiRatesExport)
			r.Delete("/shipping-rates", s.apiRatesClear)
			r.Put("/shipping-rates/{id}", s.apiRateUpdate)
			r.Delete("/shipping-rates/{id}", s.apiRateDelete)

			r.Get("/orders", s.apiOrdersList)
			r.Put("/orders/{id}", s.apiOrderUpdate)
		})
	})

	// Not rate limited: the gateway retries from a few shared addresses.
	r.Post("/webhooks/xendit", s.webhookXendit)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.ping != nil {
		if err := s.ping(r.Context()); err != nil {
			log.Error().Err(err).Msg("healthz")
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "down"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, map[string]any{"success": true, "data": data})
}

func writeFail(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"success": false, "error": msg})
}

// writeErr maps domain errors to a status. Anything unrecognised is logged
// and reported as a generic 500.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	code := errorStatus(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Str("request_id", RequestIDFrom(r.Context())).Msg("request gagal")
		if errors.Is(err, domain.ErrMissingConfig) {
			writeFail(w, code, err.Error())
			return
		}
		writeFail(w, code, "terjadi kesalahan server")
		return
	}
	writeFail(w, code, err.Error())
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateRate):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidCallback):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidDimensions),
		errors.Is(err, domain.ErrInvalidConfig),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrMissingCustomer),
		errors.Is(err, domain.ErrMissingShipping),
		errors.Is(err, tariff.ErrUnknownVia),
		errors.Is(err, tariff.ErrMissingTujuan):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeFail(w, http.StatusBadRequest, "body JSON tidak valid")
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

type page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
}

func newPage[T any](items []T, total int64, p, size int) page[T] {
	if items == nil {
		items = []T{}
	}
	if p < 1 {
		p = 1
	}
	return page[T]{Items: items, Total: total, Page: p, PageSize: size}
}
