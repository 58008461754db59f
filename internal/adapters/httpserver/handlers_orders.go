package httpserver

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/floodbar/internal/adapters/payments/xendit"
	"github.com/phenrril/floodbar/internal/domain"
	"github.com/phenrril/floodbar/internal/usecase"
)

func orderID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

func (s *Server) apiOrderCreate(w http.ResponseWriter, r *http.Request) {
	var in usecase.OrderInput
	if !decodeJSON(w, r, &in) {
		return
	}
	o, err := s.orders.Create(r.Context(), in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, o)
}

func (s *Server) apiOrderGet(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		writeFail(w, http.StatusNotFound, domain.ErrNotFound.Error())
		return
	}
	o, err := s.orders.Get(r.Context(), id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, o)
}

func (s *Server) apiOrdersList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.OrderFilter{
		Status:        domain.OrderStatus(q.Get("status")),
		PaymentStatus: domain.PaymentStatus(q.Get("paymentStatus")),
		Query:         q.Get("q"),
		Page:          queryInt(r, "page", 1),
		PageSize:      queryInt(r, "pageSize", 20),
	}
	list, total, err := s.orders.List(r.Context(), f)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, newPage(list, total, f.Page, f.PageSize))
}

func (s *Server) apiOrderUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		writeFail(w, http.StatusNotFound, domain.ErrNotFound.Error())
		return
	}
	var p domain.OrderPatch
	if !decodeJSON(w, r, &p) {
		return
	}
	o, err := s.orders.Update(r.Context(), id, p)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, o)
}

// webhookXendit answers 200 for unknown orders so Xendit stops retrying;
// only a bad token is rejected.
func (s *Server) webhookXendit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeFail(w, http.StatusBadRequest, "body tidak terbaca")
		return
	}
	cb, err := xendit.ParseCallback(body)
	if err != nil {
		writeFail(w, http.StatusBadRequest, err.Error())
		return
	}
	o, err := s.payments.HandleCallback(r.Context(), r.Header.Get("x-callback-token"), cb)
	if err != nil {
		if errorStatus(err) == http.StatusNotFound {
			log.Warn().Str("invoice_id", cb.InvoiceID).Str("external_id", cb.ExternalID).Msg("callback untuk order tidak dikenal")
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "ignored": true})
			return
		}
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "orderId": o.ID, "paymentStatus": o.PaymentStatus})
}
