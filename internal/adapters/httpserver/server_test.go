package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/floodbar/internal/adapters/payments/xendit"
	"github.com/phenrril/floodbar/internal/adapters/repo/memory"
	"github.com/phenrril/floodbar/internal/domain"
	"github.com/phenrril/floodbar/internal/usecase"
)

const adminKey = "rahasia"

const tariffCSV = `NO;ASAL;TUJUAN;PROVINSI;KABUPATEN;KECAMATAN;WILAYAH;VIA;HARGA ONLINE;HARGA PKS;MIN KG;KG BERIKUTNYA;LEAD TIME;KETERANGAN;CABANG;ALAMAT CABANG;TELEPON CABANG
1;JAKARTA;BANDUNG;Jawa Barat;;;Jawa;DARAT;3.500;3.000;10;;2-3 hari;;;;
2;JAKARTA;;;;;Jawa;DARAT;4.000;3.800;;;3-4 hari;;;;
3;JAKARTA;MEDAN;Sumatera Utara;;;Sumatera;LAUT;7.250;6.900;;;7-10 hari;;;;
`

type env struct {
	h        http.Handler
	settings *memory.SettingsRepo
	rates    *memory.ShippingRateRepo
	orders   *memory.OrderRepo
	gateway  *xendit.Gateway
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		settings: memory.NewSettingsRepo(),
		rates:    memory.NewShippingRateRepo(),
		orders:   memory.NewOrderRepo(),
		gateway:  xendit.NewGateway(xendit.Options{CallbackToken: "cb", SigningKey: "k"}),
	}
	settings := &usecase.SettingsUC{Settings: e.settings}
	e.h = New(Deps{
		Quotes:   &usecase.QuoteUC{Settings: settings},
		Settings: settings,
		Rates:    &usecase.RateUC{Rates: e.rates},
		Imports:  &usecase.RateImportUC{Rates: e.rates},
		Orders:   &usecase.OrderUC{Orders: e.orders, Rates: e.rates, Settings: settings, Gateway: e.gateway},
		Payments: &usecase.PaymentUC{Orders: e.orders, Gateway: e.gateway, Settings: settings},

		AdminAPIKey: adminKey,
	})
	return e
}

func (e *env) do(t *testing.T, method, path string, body any, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("X-Admin-Key", adminKey)
	}
	rr := httptest.NewRecorder()
	e.h.ServeHTTP(rr, req)
	return rr
}

func (e *env) upload(t *testing.T, name, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/shipping-rates/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Admin-Key", adminKey)
	rr := httptest.NewRecorder()
	e.h.ServeHTTP(rr, req)
	return rr
}

type envelope struct {
	Success bool               `json:"success"`
	Error   string             `json:"error"`
	Data    json.RawMessage    `json:"data"`
	Stats   domain.ImportStats `json:"stats"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &e), rr.Body.String())
	return e
}

func TestCalculate(t *testing.T) {
	e := newEnv(t)

	rr := e.do(t, http.MethodPost, "/api/calculate", map[string]any{"width": 60, "height": 100, "quantity": 2}, false)
	require.Equal(t, http.StatusOK, rr.Code)
	env := decode(t, rr)
	assert.True(t, env.Success)

	var q usecase.QuoteResult
	require.NoError(t, json.Unmarshal(env.Data, &q))
	assert.Equal(t, 4500.0, q.Pricing.PricePerCm)
	assert.Equal(t, 270000.0, q.Pricing.TotalPrice)
	assert.Equal(t, 10.0, q.Shipping.FinalWeight)
	assert.Equal(t, 20.0, q.BillingWeight)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestCalculate_MissingDimensions(t *testing.T) {
	e := newEnv(t)
	rr := e.do(t, http.MethodPost, "/api/calculate", map[string]any{"width": 60}, false)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	env := decode(t, rr)
	assert.False(t, env.Success)
	assert.Equal(t, "Lebar dan tinggi wajib diisi", env.Error)

	req := httptest.NewRequest(http.MethodPost, "/api/calculate", strings.NewReader("{"))
	rr = httptest.NewRecorder()
	e.h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCalculate_MissingConfig(t *testing.T) {
	e := newEnv(t)
	e.settings.ClearPricingConfig()
	rr := e.do(t, http.MethodPost, "/api/calculate", map[string]any{"width": 60, "height": 10}, false)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, domain.ErrMissingConfig.Error(), decode(t, rr).Error)
}

func TestAdminRoutesRequireKey(t *testing.T) {
	e := newEnv(t)
	rr := e.do(t, http.MethodGet, "/api/admin/orders", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+adminKey)
	rr = httptest.NewRecorder()
	e.h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestProductConfigUpdate(t *testing.T) {
	e := newEnv(t)
	cfg := domain.DefaultPricingConfig()
	cfg.PriceOver60cm = 6000

	rr := e.do(t, http.MethodPut, "/api/admin/product-config", cfg, true)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = e.do(t, http.MethodPost, "/api/calculate", map[string]any{"width": 100, "height": 10}, false)
	var q usecase.QuoteResult
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &q))
	assert.Equal(t, 600000.0, q.Pricing.BasePrice)

	cfg.PickupCost = -5
	rr = e.do(t, http.MethodPut, "/api/admin/product-config", cfg, true)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProductConfigPartialUpdateKeepsOtherFields(t *testing.T) {
	e := newEnv(t)

	rr := e.do(t, http.MethodPut, "/api/admin/product-config", map[string]any{"pickupCost": 60000}, true)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = e.do(t, http.MethodGet, "/api/product-config", nil, false)
	var got domain.PricingConfig
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &got))
	def := domain.DefaultPricingConfig()
	assert.Equal(t, 60000.0, got.PickupCost)
	assert.Equal(t, def.PriceUnder60cm, got.PriceUnder60cm)
	assert.Equal(t, def.PriceOver60cm, got.PriceOver60cm)
	assert.Equal(t, def.WeightConstant, got.WeightConstant)

	rr = e.do(t, http.MethodPut, "/api/admin/payment-settings", map[string]any{"adminFeePercent": 1.5}, true)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rr = e.do(t, http.MethodGet, "/api/admin/payment-settings", nil, true)
	var ps domain.PaymentSettings
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &ps))
	assert.Equal(t, 1.5, ps.AdminFeePercent)
	assert.Equal(t, domain.DefaultPaymentSettings().AdminFee, ps.AdminFee)
}

func TestUploadAndQueryRates(t *testing.T) {
	e := newEnv(t)

	rr := e.upload(t, "tarif.csv", tariffCSV)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	env := decode(t, rr)
	assert.True(t, env.Success)
	assert.Equal(t, domain.ImportStats{Processed: 3, Added: 2, Updated: 0, Errors: 1, Total: 3}, env.Stats)

	rr = e.upload(t, "tarif.csv", tariffCSV)
	assert.Equal(t, domain.ImportStats{Processed: 3, Added: 0, Updated: 2, Errors: 1, Total: 3}, decode(t, rr).Stats)

	rr = e.do(t, http.MethodGet, "/api/shipping-rates?q=medan", nil, false)
	require.Equal(t, http.StatusOK, rr.Code)
	var p page[domain.ShippingRate]
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &p))
	require.Len(t, p.Items, 1)
	assert.Equal(t, int64(1), p.Total)
	assert.Equal(t, domain.ViaLaut, p.Items[0].Via)

	rr = e.do(t, http.MethodGet, "/api/shipping-rates/cities?q=ba", nil, false)
	var cities []string
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &cities))
	assert.Equal(t, []string{"BANDUNG"}, cities)

	rr = e.do(t, http.MethodGet, "/api/shipping-rates?via=kereta", nil, false)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUploadWithoutFile(t *testing.T) {
	e := newEnv(t)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/admin/shipping-rates/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Admin-Key", adminKey)
	rr := httptest.NewRecorder()
	e.h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRateAdminEndpoints(t *testing.T) {
	e := newEnv(t)
	e.upload(t, "tarif.csv", tariffCSV)
	bandung, err := e.rates.FindByKey(context.Background(), domain.RateKey{Asal: "JAKARTA", Tujuan: "BANDUNG", Via: domain.ViaDarat})
	require.NoError(t, err)

	rr := e.do(t, http.MethodGet, "/api/admin/shipping-rates/export", nil, true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, xlsxContentType, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, rr.Body.Len())

	path := "/api/admin/shipping-rates/" + itoa(bandung.ID)
	rr = e.do(t, http.MethodPut, path, map[string]any{"asal": "JAKARTA", "tujuan": "MEDAN", "via": "LAUT"}, true)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = e.do(t, http.MethodDelete, path, nil, true)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = e.do(t, http.MethodDelete, path, nil, true)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = e.do(t, http.MethodDelete, "/api/admin/shipping-rates", nil, true)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Zero(t, e.rates.Len())
}

func itoa(n uint) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestOrderFlowWithWebhook(t *testing.T) {
	e := newEnv(t)
	e.upload(t, "tarif.csv", tariffCSV)
	bandung, err := e.rates.FindByKey(context.Background(), domain.RateKey{Asal: "JAKARTA", Tujuan: "BANDUNG", Via: domain.ViaDarat})
	require.NoError(t, err)

	rr := e.do(t, http.MethodPost, "/api/orders", map[string]any{
		"customerName":    "Budi",
		"customerEmail":   "budi@example.com",
		"customerPhone":   "0812345",
		"customerAddress": "Jl. Merdeka 1",
		"width":           60,
		"height":          100,
		"quantity":        1,
		"shippingRateId":  bandung.ID,
	}, false)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var o domain.Order
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &o))
	assert.Equal(t, 270000.0+35000+5000, o.GrandTotal)

	rr = e.do(t, http.MethodGet, "/api/orders/"+o.ID.String(), nil, false)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = e.do(t, http.MethodGet, "/api/orders/not-a-uuid", nil, false)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	cb := map[string]any{"id": "inv_x", "external_id": e.gateway.ExternalRef(o.ID), "status": "PAID"}
	req := httptest.NewRequest(http.MethodPost, "/webhooks/xendit", jsonBody(t, cb))
	req.Header.Set("x-callback-token", "wrong")
	rr = httptest.NewRecorder()
	e.h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/webhooks/xendit", jsonBody(t, cb))
	req.Header.Set("x-callback-token", "cb")
	rr = httptest.NewRecorder()
	e.h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	stored, err := e.orders.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, domain.OrderStatusPaid, stored.Status)

	rr = e.do(t, http.MethodPut, "/api/admin/orders/"+o.ID.String(), map[string]any{"status": "pending", "trackingNumber": "JNE123"}, true)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &o))
	assert.Equal(t, domain.OrderStatusPending, o.Status)
	assert.Equal(t, "JNE123", o.TrackingNumber)

	rr = e.do(t, http.MethodPut, "/api/admin/orders/"+o.ID.String(), map[string]any{"status": "lost"}, true)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = e.do(t, http.MethodGet, "/api/admin/orders?status=pending", nil, true)
	var p page[domain.Order]
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &p))
	assert.Equal(t, int64(1), p.Total)
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func TestHealth(t *testing.T) {
	h := New(Deps{Ping: func(context.Context) error { return errors.New("db down") }})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = newEnv(t).do(t, http.MethodGet, "/healthz", nil, false)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }), Recovery, Logging, RequestID)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestPublicRoutesAreRateLimited(t *testing.T) {
	settings := &usecase.SettingsUC{Settings: memory.NewSettingsRepo()}
	orders := &usecase.OrderUC{Orders: memory.NewOrderRepo(), Rates: memory.NewShippingRateRepo(), Settings: settings}
	h := New(Deps{
		Quotes:     &usecase.QuoteUC{Settings: settings},
		Settings:   settings,
		Orders:     orders,
		RateLimits: RateLimits{Global: 100, Calculate: 3, Orders: 2},
	})
	send := func(method, path, body, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.RemoteAddr = ip + ":40000"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, send(http.MethodPost, "/api/calculate", `{"width":60,"height":100}`, "10.0.0.1").Code)
	}
	rr := send(http.MethodPost, "/api/calculate", `{"width":60,"height":100}`, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.False(t, decode(t, rr).Success)

	assert.Equal(t, http.StatusOK, send(http.MethodPost, "/api/calculate", `{"width":60,"height":100}`, "10.0.0.2").Code)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusBadRequest, send(http.MethodPost, "/api/orders", `{}`, "10.0.0.3").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, send(http.MethodPost, "/api/orders", `{}`, "10.0.0.3").Code)
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/api/product-config", "", "10.0.0.3").Code)
}

func TestResponsesAreCompressed(t *testing.T) {
	e := newEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/api/product-config", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	e.h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))
}
