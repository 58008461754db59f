package xendit

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/phenrril/floodbar/internal/domain"
)

const defaultBaseURL = "https://api.xendit.co"

type Gateway struct {
	secretKey     string
	callbackToken string
	signingKey    string
	baseURL       string
	publicURL     string
	httpClient    *http.Client
}

type Options struct {
	SecretKey     string
	CallbackToken string
	// SigningKey signs the external_id so a callback cannot be pointed at
	// another order.
	SigningKey string
	BaseURL    string
	PublicURL  string
	HTTPClient *http.Client
}

func NewGateway(o Options) *Gateway {
	g := &Gateway{
		secretKey:     o.SecretKey,
		callbackToken: o.CallbackToken,
		signingKey:    o.SigningKey,
		baseURL:       strings.TrimRight(o.BaseURL, "/"),
		publicURL:     strings.TrimRight(o.PublicURL, "/"),
		httpClient:    o.HTTPClient,
	}
	if g.signingKey == "" {
		g.signingKey = "dev"
	}
	if g.baseURL == "" {
		g.baseURL = defaultBaseURL
	}
	if g.publicURL == "" {
		g.publicURL = "http://localhost:8080"
	}
	if g.httpClient == nil {
		g.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return g
}

type invoiceItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type invoiceFee struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

type invoiceCustomer struct {
	GivenNames   string `json:"given_names,omitempty"`
	Email        string `json:"email,omitempty"`
	MobileNumber string `json:"mobile_number,omitempty"`
}

type invoiceReq struct {
	ExternalID         string           `json:"external_id"`
	Amount             float64          `json:"amount"`
	PayerEmail         string           `json:"payer_email,omitempty"`
	Description        string           `json:"description"`
	InvoiceDuration    int              `json:"invoice_duration,omitempty"`
	Currency           string           `json:"currency"`
	SuccessRedirectURL string           `json:"success_redirect_url,omitempty"`
	FailureRedirectURL string           `json:"failure_redirect_url,omitempty"`
	Customer           *invoiceCustomer `json:"customer,omitempty"`
	Items              []invoiceItem    `json:"items,omitempty"`
	Fees               []invoiceFee     `json:"fees,omitempty"`
}

type invoiceResp struct {
	ID         string `json:"id"`
	InvoiceURL string `json:"invoice_url"`
	Status     string `json:"status"`
}

type apiError struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

func (g *Gateway) sign(orderID string) string {
	h := hmac.New(sha256.New, []byte(g.signingKey))
	h.Write([]byte(orderID))
	return hex.EncodeToString(h.Sum(nil))[:24]
}

// ExternalRef is the external_id sent to Xendit: "<orderID>|<sig>".
func (g *Gateway) ExternalRef(orderID uuid.UUID) string {
	return fmt.Sprintf("%s|%s", orderID.String(), g.sign(orderID.String()))
}

func (g *Gateway) CreateInvoice(ctx context.Context, o *domain.Order, s *domain.PaymentSettings) (string, string, error) {
	if g.secretKey == "" {
		return "", "", errors.New("xendit secret key kosong (XENDIT_SECRET_KEY)")
	}
	if o == nil {
		return "", "", errors.New("order nil")
	}
	if o.GrandTotal <= 0 {
		return "", "", fmt.Errorf("total order tidak valid: %.0f", o.GrandTotal)
	}

	items := []invoiceItem{{
		Name:     fmt.Sprintf("Flood barrier %.0fx%.0f cm", o.Width, o.Height),
		Quantity: o.Quantity,
		Price:    o.Subtotal / float64(max(o.Quantity, 1)),
	}}
	var fees []invoiceFee
	if o.ShippingCost > 0 {
		fees = append(fees, invoiceFee{Type: "Ongkos kirim " + o.ShippingService, Value: o.ShippingCost})
	}
	if o.AdminFee > 0 {
		fees = append(fees, invoiceFee{Type: "Biaya admin", Value: o.AdminFee})
	}

	duration := 24
	if s != nil && s.InvoiceDurationHours > 0 {
		duration = s.InvoiceDurationHours
	}
	back := g.publicURL + "/orders/" + o.ID.String()
	payload := invoiceReq{
		ExternalID:         g.ExternalRef(o.ID),
		Amount:             o.GrandTotal,
		PayerEmail:         o.CustomerEmail,
		Description:        "Pesanan FloodBar " + o.ID.String(),
		InvoiceDuration:    duration * 3600,
		Currency:           "IDR",
		SuccessRedirectURL: back,
		FailureRedirectURL: back,
		Customer: &invoiceCustomer{
			GivenNames:   o.CustomerName,
			Email:        o.CustomerEmail,
			MobileNumber: o.CustomerPhone,
		},
		Items: items,
		Fees:  fees,
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("serialisasi invoice: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v2/invoices", bytes.NewReader(buf))
	if err != nil {
		return "", "", err
	}
	req.SetBasicAuth(g.secretKey, "")
	req.Header.Set("Content-Type", "application/json")
	res, err := g.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("koneksi ke Xendit: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		var ae apiError
		if err := json.Unmarshal(body, &ae); err == nil && ae.Message != "" {
			if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
				return "", "", fmt.Errorf("kredensial Xendit tidak valid (status %d): %s", res.StatusCode, ae.Message)
			}
			return "", "", fmt.Errorf("xendit %s (status %d): %s", ae.ErrorCode, res.StatusCode, ae.Message)
		}
		return "", "", fmt.Errorf("xendit invoice status %d: %s", res.StatusCode, string(body))
	}
	var inv invoiceResp
	if err := json.NewDecoder(res.Body).Decode(&inv); err != nil {
		return "", "", err
	}
	if inv.ID == "" || inv.InvoiceURL == "" {
		return "", "", errors.New("respons Xendit tidak lengkap")
	}
	return inv.ID, inv.InvoiceURL, nil
}

// VerifyCallback checks the x-callback-token header. With no token
// configured every callback is rejected.
func (g *Gateway) VerifyCallback(token string) bool {
	if g.callbackToken == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(g.callbackToken)) == 1
}

func (g *Gateway) OrderIDFromReference(ref string) (uuid.UUID, bool) {
	parts := strings.Split(ref, "|")
	if len(parts) != 2 {
		return uuid.Nil, false
	}
	if !hmac.Equal([]byte(g.sign(parts[0])), []byte(parts[1])) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

type callbackBody struct {
	ID             string  `json:"id"`
	ExternalID     string  `json:"external_id"`
	Status         string  `json:"status"`
	PaymentMethod  string  `json:"payment_method"`
	PaymentChannel string  `json:"payment_channel"`
	PaidAmount     float64 `json:"paid_amount"`
}

// ParseCallback decodes an invoice callback body.
func ParseCallback(body []byte) (domain.InvoiceCallback, error) {
	var cb callbackBody
	if err := json.Unmarshal(body, &cb); err != nil {
		return domain.InvoiceCallback{}, fmt.Errorf("callback xendit: %w", err)
	}
	if cb.ID == "" && cb.ExternalID == "" {
		return domain.InvoiceCallback{}, errors.New("callback xendit tanpa id")
	}
	method := cb.PaymentMethod
	if cb.PaymentChannel != "" {
		method = strings.TrimSpace(method + " " + cb.PaymentChannel)
	}
	return domain.InvoiceCallback{
		InvoiceID:     cb.ID,
		ExternalID:    cb.ExternalID,
		Status:        cb.Status,
		PaymentMethod: method,
		PaidAmount:    cb.PaidAmount,
	}, nil
}
