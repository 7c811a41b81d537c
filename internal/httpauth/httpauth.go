// Package httpauth implements NIP-98 HTTP authentication: stateless,
// replay-resistant request authentication built on signed nostr events
// carried in the Authorization header.
//
// A client signs an event of kind 27235 binding the request method, the full
// request URL and, when a body is present, its sha256 hash. The server
// recomputes the binding and verifies the signature, so a captured header is
// useless for any other request and expires with the acceptance window.
package httpauth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nbd-wtf/go-nostr"
)

// Scheme is the Authorization header scheme prefix.
const Scheme = "Nostr"

// KindHTTPAuth is the reserved event kind for HTTP auth events (NIP-98).
const KindHTTPAuth = 27235

// Tag names used in auth events.
const (
	TagURL     = "u"
	TagMethod  = "method"
	TagPayload = "payload"
)

// ErrMalformedHeader is returned by DecodeHeader for values that are not a
// scheme-prefixed base64 JSON event.
var ErrMalformedHeader = errors.New("malformed authorization header")

// EncodeHeader encodes a signed event into an Authorization header value.
func EncodeHeader(evt *nostr.Event) (string, error) {
	raw, err := json.Marshal(evt)
	if err != nil {
		return "", fmt.Errorf("failed to serialize auth event: %w", err)
	}
	return Scheme + " " + base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeHeader decodes an Authorization header value back into an event.
// Any structural failure is reported as ErrMalformedHeader.
func DecodeHeader(value string) (*nostr.Event, error) {
	encoded, ok := strings.CutPrefix(value, Scheme+" ")
	if !ok {
		return nil, fmt.Errorf("%w: missing %q scheme", ErrMalformedHeader, Scheme)
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %w", ErrMalformedHeader, err)
	}

	evt := &nostr.Event{}
	if err := json.Unmarshal(raw, evt); err != nil {
		return nil, fmt.Errorf("%w: invalid event JSON: %w", ErrMalformedHeader, err)
	}

	return evt, nil
}

// tagValue returns the second element of the first tag named name.
func tagValue(tags nostr.Tags, name string) (string, bool) {
	for _, tag := range tags {
		if len(tag) >= 2 && tag[0] == name {
			return tag[1], true
		}
	}
	return "", false
}
