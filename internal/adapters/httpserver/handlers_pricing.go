package httpserver

import (
	"errors"
	"net/http"

	"github.com/phenrril/floodbar/internal/domain"
	"github.com/phenrril/floodbar/internal/usecase"
)

func (s *Server) apiCalculate(w http.ResponseWriter, r *http.Request) {
	var req usecase.QuoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.quotes.Calculate(r.Context(), req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

func (s *Server) apiProductConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.settings.PricingConfig(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, cfg)
}

// apiProductConfigUpdate decodes onto the stored config, so fields missing
// from the body keep their current values.
func (s *Server) apiProductConfigUpdate(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.settings.PricingConfig(r.Context())
	if errors.Is(err, domain.ErrMissingConfig) {
		d := domain.DefaultPricingConfig()
		cfg, err = &d, nil
	}
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if !decodeJSON(w, r, cfg) {
		return
	}
	if err := s.settings.UpdatePricingConfig(r.Context(), cfg); err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, cfg)
}

func (s *Server) apiPaymentSettings(w http.ResponseWriter, r *http.Request) {
	ps, err := s.settings.PaymentSettings(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, ps)
}

func (s *Server) apiPaymentSettingsUpdate(w http.ResponseWriter, r *http.Request) {
	ps, err := s.settings.PaymentSettings(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if !decodeJSON(w, r, ps) {
		return
	}
	if err := s.settings.UpdatePaymentSettings(r.Context(), ps); err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, ps)
}
