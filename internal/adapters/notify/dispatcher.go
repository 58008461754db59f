package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/floodbar/internal/domain"
)

// Dispatcher delivers each event to every notifier in the background.
// Failures are logged and never reach the caller.
type Dispatcher struct {
	notifiers []domain.Notifier
	timeout   time.Duration
	wg        sync.WaitGroup
}

// NewDispatcher drops nil entries.
func NewDispatcher(timeout time.Duration, ns ...domain.Notifier) *Dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	d := &Dispatcher{timeout: timeout}
	for _, n := range ns {
		if n != nil {
			d.notifiers = append(d.notifiers, n)
		}
	}
	return d
}

func (d *Dispatcher) Channels() []string {
	out := make([]string, 0, len(d.notifiers))
	for _, n := range d.notifiers {
		out = append(out, n.Name())
	}
	return out
}

func (d *Dispatcher) Publish(e domain.OrderEvent) {
	for _, n := range d.notifiers {
		d.wg.Add(1)
		go func(n domain.Notifier) {
			defer d.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Str("channel", n.Name()).Msg("notifikasi panic")
				}
			}()
			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			defer cancel()
			if err := n.Notify(ctx, e); err != nil {
				log.Warn().Err(err).Str("channel", n.Name()).Str("order_id", e.Order.ID.String()).Str("kind", string(e.Kind)).Msg("notifikasi gagal")
			}
		}(n)
	}
}

// Wait blocks until in-flight deliveries finish or ctx ends.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
