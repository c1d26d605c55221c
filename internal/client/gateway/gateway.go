// Package gateway is the only way the client talks to the catalogue
// service. It attaches the session credential to outgoing requests,
// classifies every outcome into a typed error and forces a logout when the
// server stops accepting the credential.
//
// # Classification
//
// Outcomes are checked in this order and the first match wins:
//
//  1. no response at all                 -> *NetworkError
//  2. 2xx with an unparsable body        -> *MalformedResponseError
//  3. 401 or 403                         -> session logged out, *AuthExpiredError
//  4. any other non-2xx                  -> *RejectedError
//  5. 2xx                                -> decoded value, or "no value" for 204/empty
//
// ErrUnavailable and ErrUnauthorized match the first and third kinds with
// errors.Is.
package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/libcat/internal/client/session"
	"github.com/dmitrijs2005/libcat/internal/common"
	"github.com/dmitrijs2005/libcat/internal/logging"
	"github.com/google/uuid"
)

// Credentials is the slice of the session cell the gateway depends on.
type Credentials interface {
	Credential() (string, bool)
	SetCredential(ctx context.Context, token string) session.Session
}

type Gateway struct {
	mu     sync.RWMutex
	base   string
	client *http.Client
	creds  Credentials
	log    logging.Logger
}

type Option func(*Gateway)

// WithBaseURL sets the initial server; see NormalizeBaseURL.
func WithBaseURL(raw string) Option {
	return func(g *Gateway) { g.base, _ = NormalizeBaseURL(raw) }
}

// WithHTTPClient replaces the HTTP client. Its transport is wrapped to add
// request ids.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) {
		cp := *c
		g.client = &cp
	}
}

// WithTimeout bounds each request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.client.Timeout = d }
}

func WithLogger(l logging.Logger) Option {
	return func(g *Gateway) { g.log = l }
}

func New(creds Credentials, opts ...Option) *Gateway {
	g := &Gateway{
		base:   DefaultBaseURL,
		client: &http.Client{Timeout: 15 * time.Second},
		creds:  creds,
		log:    logging.Discard(),
	}
	for _, o := range opts {
		o(g)
	}
	g.client.Transport = &requestIDTransport{base: g.client.Transport}
	return g
}

// BaseURL returns the normalized server URL.
func (g *Gateway) BaseURL() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.base
}

// SetBaseURL switches servers. Invalid input falls back to DefaultBaseURL
// and the normalization error is returned alongside the effective URL.
// Switching to a different server logs the session out, since a credential
// is only meaningful to the server that issued it.
func (g *Gateway) SetBaseURL(ctx context.Context, raw string) (string, error) {
	next, err := NormalizeBaseURL(raw)

	prev := g.BaseURL()
	if prev == next {
		return next, err
	}

	// Log out while the previous server is still current, so a persisted
	// credential is dropped from that server's entry.
	if _, ok := g.creds.Credential(); ok {
		g.creds.SetCredential(ctx, "")
	}

	g.mu.Lock()
	g.base = next
	g.mu.Unlock()

	g.log.Info(ctx, "server changed", "from", prev, "to", next)
	return next, err
}

// Logout drops the credential locally. The service has no logout endpoint.
func (g *Gateway) Logout(ctx context.Context) {
	g.creds.SetCredential(ctx, "")
}

// requestIDTransport tags each request with a fresh X-Request-ID unless the
// caller already set one.
type requestIDTransport struct {
	base http.RoundTripper
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	if req.Header.Get(common.RequestIDHeaderName) != "" {
		return base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set(common.RequestIDHeaderName, uuid.NewString())
	return base.RoundTrip(r)
}
