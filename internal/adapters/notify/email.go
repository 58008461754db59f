package notify

import (
	"context"
	"errors"

	"gopkg.in/gomail.v2"

	"github.com/phenrril/floodbar/internal/domain"
)

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	AdminTo  string
}

// Email mails the customer and the shop admin. Updates only go to the
// customer.
type Email struct {
	from    string
	adminTo string
	sender  mailSender
}

// NewEmail returns nil when SMTP is not configured.
func NewEmail(c EmailConfig) *Email {
	if c.Host == "" || c.User == "" {
		return nil
	}
	from := c.From
	if from == "" {
		from = c.User
	}
	return &Email{
		from:    from,
		adminTo: c.AdminTo,
		sender:  gomail.NewDialer(c.Host, c.Port, c.User, c.Password),
	}
}

func (n *Email) Name() string { return "email" }

func (n *Email) Notify(ctx context.Context, e domain.OrderEvent) error {
	body, err := Render(e)
	if err != nil {
		return err
	}
	var msgs []*gomail.Message
	if e.Order.CustomerEmail != "" {
		msgs = append(msgs, n.message(e.Order.CustomerEmail, Subject(e), body))
	}
	if n.adminTo != "" && e.Kind != domain.OrderEventUpdated {
		msgs = append(msgs, n.message(n.adminTo, "[admin] "+Subject(e), body))
	}
	if len(msgs) == 0 {
		return errors.New("email: tidak ada penerima")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.sender.DialAndSend(msgs...)
}

func (n *Email) message(to, subject, body string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return m
}
