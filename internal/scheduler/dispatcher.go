// Package scheduler produces encrypted deferred-publish requests addressed
// to a well-known delegate identity.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nbd-wtf/go-nostr"

	"github.com/postpilot/postpilot-server/internal/logger"
	"github.com/postpilot/postpilot-server/internal/model"
)

// KindScheduleRequest is the reserved event kind for scheduling requests.
const KindScheduleRequest = 5905

// Publisher broadcasts a signed event onto the relay network.
type Publisher interface {
	Publish(ctx context.Context, evt nostr.Event) error
}

// scheduleRequest is the plaintext form of a scheduling request's content.
// Only the sender and the delegate ever see it.
type scheduleRequest struct {
	Event nostr.Event `json:"event"`
}

// Dispatcher wraps signed content events in encrypted scheduling requests and
// broadcasts them. The inner event is opaque to every intermediary: content
// is NIP-44 encrypted to the delegate, and the wrapper is signed by this
// server's identity so the delegate can authenticate the requester.
type Dispatcher struct {
	keyer          nostr.Keyer
	delegatePubkey string
	publisher      Publisher
	logger         *logger.Logger
}

// NewDispatcher creates a Dispatcher sending to the given delegate pubkey.
func NewDispatcher(keyer nostr.Keyer, delegatePubkey string, publisher Publisher, logger *logger.Logger) *Dispatcher {
	return &Dispatcher{
		keyer:          keyer,
		delegatePubkey: delegatePubkey,
		publisher:      publisher,
		logger:         logger,
	}
}

// Schedule wraps contentEvent in a fresh scheduling request and publishes it.
// Every call mints a new envelope id, so callers may retry on failure without
// risk of the delegate deduplicating a genuine second request. Delivery is
// fire-and-forget: a nil error means the request was accepted by at least one
// relay, not that the delegate received it.
func (d *Dispatcher) Schedule(ctx context.Context, contentEvent nostr.Event) (nostr.Event, error) {
	if d.delegatePubkey == "" {
		return nostr.Event{}, model.ErrNoDelegate
	}
	if d.publisher == nil {
		return nostr.Event{}, model.ErrNoRelays
	}

	plaintext, err := json.Marshal(scheduleRequest{Event: contentEvent})
	if err != nil {
		return nostr.Event{}, fmt.Errorf("failed to serialize schedule request: %w", err)
	}

	ciphertext, err := d.keyer.Encrypt(ctx, string(plaintext), d.delegatePubkey)
	if err != nil {
		return nostr.Event{}, fmt.Errorf("failed to encrypt schedule request: %w", err)
	}

	evt := nostr.Event{
		CreatedAt: nostr.Now(),
		Kind:      KindScheduleRequest,
		Tags: nostr.Tags{
			{"p", d.delegatePubkey},
			{"encrypted"},
		},
		Content: ciphertext,
	}

	if err := d.keyer.SignEvent(ctx, &evt); err != nil {
		return nostr.Event{}, fmt.Errorf("failed to sign schedule request: %w", err)
	}

	if err := d.publisher.Publish(ctx, evt); err != nil {
		return nostr.Event{}, fmt.Errorf("failed to publish schedule request: %w", err)
	}

	d.logger.Info("dispatched schedule request",
		"request_id", evt.ID,
		"inner_event_id", contentEvent.ID,
		"delegate", d.delegatePubkey)

	return evt, nil
}
