package model

import "errors"

var (
	// ErrNotFound is returned when a post does not exist or is owned by a
	// different pubkey. The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("post not found")
	// ErrInvalidStatus is returned for a status outside the known set.
	ErrInvalidStatus = errors.New("invalid post status")
	// ErrInvalidRawEvent is returned when a raw event is not a well-formed
	// signed nostr event.
	ErrInvalidRawEvent = errors.New("invalid raw event")
	// ErrNoDelegate is returned when scheduling is requested but no delegate
	// identity is configured.
	ErrNoDelegate = errors.New("no scheduling delegate configured")
	// ErrNoRelays is returned when publishing is requested with an empty
	// relay set.
	ErrNoRelays = errors.New("no relays configured")
)
