package httpauth

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"time"
)

// Verdict is the outcome of validating one request. It is created fresh per
// request and never cached. Body carries the fully read request body so
// handlers do not consume the stream a second time.
type Verdict struct {
	Valid  bool
	Pubkey string
	Body   []byte
	Error  string
	Status int
}

// Validator decides whether an incoming request is authentically attributable
// to a pubkey. It is a pure function of the request and the clock: it keeps
// no state, performs no I/O beyond reading the request body, and never
// panics past its boundary.
type Validator struct {
	windowSeconds int64
	now           func() time.Time
}

// DefaultWindowSeconds is the acceptance window applied when none is
// configured: an auth event may be at most this many seconds behind or ahead
// of the server clock.
const DefaultWindowSeconds = 60

// NewValidator creates a Validator with the given acceptance window in
// seconds. Non-positive values fall back to DefaultWindowSeconds.
func NewValidator(windowSeconds int64) *Validator {
	if windowSeconds <= 0 {
		windowSeconds = DefaultWindowSeconds
	}
	return &Validator{
		windowSeconds: windowSeconds,
		now:           time.Now,
	}
}

func reject(reason string) Verdict {
	return Verdict{Valid: false, Error: reason, Status: http.StatusUnauthorized}
}

// Validate runs the guard clauses in order, short-circuiting on the first
// failure. The order matters for diagnostics only: every check must hold for
// the request to be valid.
func (v *Validator) Validate(r *http.Request) Verdict {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, Scheme+" ") {
		return reject("missing or invalid auth scheme")
	}

	evt, err := DecodeHeader(header)
	if err != nil {
		return reject("malformed auth header")
	}

	if !evt.CheckID() {
		return reject("invalid signature")
	}
	if ok, err := evt.CheckSignature(); err != nil || !ok {
		return reject("invalid signature")
	}

	if evt.Kind != KindHTTPAuth {
		return reject("wrong event kind")
	}

	skew := v.now().Unix() - int64(evt.CreatedAt)
	if skew > v.windowSeconds || skew < -v.windowSeconds {
		return reject("timestamp out of range")
	}

	method, ok := tagValue(evt.Tags, TagMethod)
	if !ok || !strings.EqualFold(method, r.Method) {
		return reject("method mismatch")
	}

	// Exact string match of the full request URL, query included. The client
	// must sign the URL byte-for-byte as sent; no canonicalization happens on
	// either side.
	u, ok := tagValue(evt.Tags, TagURL)
	if !ok || u != requestURL(r) {
		return reject("url mismatch")
	}

	var body []byte
	if r.Body != nil {
		body, err = io.ReadAll(r.Body)
		if err != nil {
			return reject("unreadable request body")
		}
	}

	payload, hasPayload := tagValue(evt.Tags, TagPayload)
	if len(body) > 0 && !hasPayload {
		return reject("payload hash mismatch")
	}
	if hasPayload {
		// A payload tag with an empty body is accepted only when it hashes
		// the empty body.
		sum := sha256.Sum256(body)
		if payload != hex.EncodeToString(sum[:]) {
			return reject("payload hash mismatch")
		}
	}

	return Verdict{Valid: true, Pubkey: evt.PubKey, Body: body}
}

// requestURL reconstructs the absolute URL of an incoming request. Behind a
// TLS-terminating proxy the scheme comes from X-Forwarded-Proto. The path and
// query come from r.URL so that absolute-form request targets reduce to
// origin-form instead of duplicating the scheme and host.
func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
