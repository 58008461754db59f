package httpserver

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/floodbar/internal/domain"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func rateID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (s *Server) apiRatesSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.RateFilter{
		Query:    q.Get("q"),
		Via:      domain.Via(q.Get("via")),
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "pageSize", 20),
	}
	list, total, err := s.rates.Search(r.Context(), f)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, newPage(list, total, f.Page, f.PageSize))
}

func (s *Server) apiRateCities(w http.ResponseWriter, r *http.Request) {
	cities, err := s.rates.Destinations(r.Context(), r.URL.Query().Get("q"), queryInt(r, "limit", 10))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if cities == nil {
		cities = []string{}
	}
	writeData(w, http.StatusOK, cities)
}

func (s *Server) apiRateUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := rateID(r)
	if !ok {
		writeFail(w, http.StatusBadRequest, "id tidak valid")
		return
	}
	var in domain.ShippingRate
	if !decodeJSON(w, r, &in) {
		return
	}
	rate, err := s.rates.Update(r.Context(), id, &in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, rate)
}

func (s *Server) apiRateDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := rateID(r)
	if !ok {
		writeFail(w, http.StatusBadRequest, "id tidak valid")
		return
	}
	if err := s.rates.Delete(r.Context(), id); err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"deleted": id})
}

func (s *Server) apiRatesClear(w http.ResponseWriter, r *http.Request) {
	n, err := s.rates.Clear(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	log.Warn().Int64("rows", n).Str("request_id", RequestIDFrom(r.Context())).Msg("semua tarif dihapus")
	writeData(w, http.StatusOK, map[string]any{"deleted": n})
}

// apiRatesUpload ingests a tariff export sent as multipart field "file".
// Row-level problems are reported in stats.errors, not as a failed request.
func (s *Server) apiRatesUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.uploadMax)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeFail(w, http.StatusRequestEntityTooLarge, "file terlalu besar")
			return
		}
		writeFail(w, http.StatusBadRequest, "form upload tidak valid")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()
	file, header, err := r.FormFile("file")
	if err != nil {
		writeFail(w, http.StatusBadRequest, "file wajib diunggah")
		return
	}
	defer file.Close()

	stats, err := s.imports.Ingest(r.Context(), header.Filename, file)
	if err != nil {
		log.Warn().Err(err).Str("file", header.Filename).Msg("file tarif tidak terbaca")
		writeFail(w, http.StatusBadRequest, "file tidak dapat dibaca: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "stats": stats})
}

func (s *Server) apiRatesExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.rates.Export(r.Context(), &buf); err != nil {
		writeErr(w, r, err)
		return
	}
	name := "tarif-" + time.Now().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
