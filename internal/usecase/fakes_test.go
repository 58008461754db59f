package usecase

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/mock"

	"github.com/phenrril/floodbar/internal/domain"
)

type gatewayMock struct {
	mock.Mock
}

func (g *gatewayMock) CreateInvoice(ctx context.Context, o *domain.Order, s *domain.PaymentSettings) (string, string, error) {
	args := g.Called(ctx, o, s)
	return args.String(0), args.String(1), args.Error(2)
}

func (g *gatewayMock) VerifyCallback(token string) bool {
	return g.Called(token).Bool(0)
}

func (g *gatewayMock) OrderIDFromReference(ref string) (uuid.UUID, bool) {
	args := g.Called(ref)
	return args.Get(0).(uuid.UUID), args.Bool(1)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent
}

func (p *recordingPublisher) Publish(e domain.OrderEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) kinds() []domain.OrderEventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.OrderEventKind, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}

// captureLog redirects the global logger into a buffer for one test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}
