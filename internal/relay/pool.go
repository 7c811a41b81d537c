// Package relay manages write connections to the configured nostr relays.
package relay

import (
	"context"
	"fmt"

	"github.com/nbd-wtf/go-nostr"

	"github.com/postpilot/postpilot-server/internal/logger"
	"github.com/postpilot/postpilot-server/internal/model"
)

// Pool publishes events to a fixed set of relays over a shared connection
// pool. Connections are established lazily and reused across publishes.
type Pool struct {
	pool   *nostr.SimplePool
	relays []string
	logger *logger.Logger
}

// NewPool creates a Pool for the given relay URLs. The context bounds the
// lifetime of the underlying connections.
func NewPool(ctx context.Context, relays []string, logger *logger.Logger) *Pool {
	normalized := make([]string, 0, len(relays))
	for _, u := range relays {
		if u == "" {
			continue
		}
		normalized = append(normalized, nostr.NormalizeURL(u))
	}

	return &Pool{
		pool:   nostr.NewSimplePool(ctx),
		relays: normalized,
		logger: logger,
	}
}

// Publish broadcasts the event to every configured relay. It succeeds when at
// least one relay accepts the event; per-relay failures are logged and
// otherwise ignored. Delivery to the delegate is not confirmed here.
func (p *Pool) Publish(ctx context.Context, evt nostr.Event) error {
	if len(p.relays) == 0 {
		return model.ErrNoRelays
	}

	published := 0
	for _, url := range p.relays {
		r, err := p.pool.EnsureRelay(url)
		if err != nil {
			p.logger.Warn("failed to connect to relay", "relay", url, "error", err)
			continue
		}
		if err := r.Publish(ctx, evt); err != nil {
			p.logger.Warn("relay rejected event", "relay", url, "event_id", evt.ID, "error", err)
			continue
		}
		published++
	}

	if published == 0 {
		return fmt.Errorf("failed to publish event %s to any of %d relays", evt.ID, len(p.relays))
	}

	p.logger.Debug("published event", "event_id", evt.ID, "relays", published)
	return nil
}
