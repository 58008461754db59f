package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phenrril/floodbar/internal/domain"
)

// WhatsApp posts through a Fonnte-style gateway: form fields target and
// message, token in the Authorization header.
type WhatsApp struct {
	apiURL     string
	token      string
	adminTo    []string
	httpClient *http.Client
}

// NewWhatsApp returns nil without a token. adminTo is comma separated.
func NewWhatsApp(apiURL, token, adminTo string) *WhatsApp {
	if token == "" || apiURL == "" {
		return nil
	}
	var targets []string
	for _, p := range strings.Split(adminTo, ",") {
		if p = strings.TrimSpace(p); p != "" {
			targets = append(targets, p)
		}
	}
	return &WhatsApp{apiURL: apiURL, token: token, adminTo: targets, httpClient: &http.Client{Timeout: 10 * time.Second}}
}

func (n *WhatsApp) Name() string { return "whatsapp" }

func (n *WhatsApp) Notify(ctx context.Context, e domain.OrderEvent) error {
	text, err := Render(e)
	if err != nil {
		return err
	}
	targets := append([]string{}, n.adminTo...)
	if p := normalizePhone(e.Order.CustomerPhone); p != "" {
		targets = append(targets, p)
	}
	if len(targets) == 0 {
		return fmt.Errorf("whatsapp: tidak ada nomor tujuan")
	}
	var lastErr error
	for _, to := range targets {
		if err := n.send(ctx, to, text); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (n *WhatsApp) send(ctx context.Context, to, text string) error {
	form := url.Values{}
	form.Set("target", to)
	form.Set("message", text)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", n.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whatsapp status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// normalizePhone turns local numbers (0812...) into 62812....
func normalizePhone(p string) string {
	var b strings.Builder
	for _, r := range p {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if strings.HasPrefix(s, "0") {
		s = "62" + s[1:]
	}
	return s
}
