package poller

import (
	"context"
	"log"
	"time"

	"github.com/example/custom-order-service/internal/readmodel"
)

// Fetch retrieves the current view of an order. Implementations return
// (nil, nil) when nothing changed since sinceVersion, such as an HTTP
// client translating a 304 response.
type Fetch func(ctx context.Context, orderID string, sinceVersion int) (*readmodel.OrderReadModel, error)

// UpdateFunc receives each new version of the order view
type UpdateFunc func(o *readmodel.OrderReadModel)

// Poller re-fetches an order view on a fixed interval and invokes the
// update callback only when the version advanced. Fetch errors are
// logged and retried on the next tick.
type Poller struct {
	fetch    Fetch
	interval time.Duration
	onUpdate UpdateFunc
}

const DefaultInterval = 3 * time.Second

func New(fetch Fetch, interval time.Duration, onUpdate UpdateFunc) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		fetch:    fetch,
		interval: interval,
		onUpdate: onUpdate,
	}
}

// Watch polls orderID until ctx is canceled. It fetches once
// immediately, then on every tick. A fetch already in flight when ctx
// is canceled has its result discarded.
func (p *Poller) Watch(ctx context.Context, orderID string) error {
	lastVersion := 0

	poll := func() {
		o, err := p.fetch(ctx, orderID, lastVersion)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("[Poller] Fetch error for order %s: %v", orderID, err)
			}
			return
		}
		if o == nil || o.Version <= lastVersion {
			return
		}
		if ctx.Err() != nil {
			return
		}
		lastVersion = o.Version
		p.onUpdate(o)
	}

	poll()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			poll()
		}
	}
}
