// Package keyset caches identity-provider signing keys (JWKS) per issuer.
package keyset

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"golang.org/x/sync/singleflight"
)

// ErrKeyFetch wraps any failure to obtain a key set. Callers must treat it
// as "cannot authenticate", never as "allow".
var ErrKeyFetch = errors.New("key set fetch failed")

// ErrInsecureIssuer is returned for non-HTTPS issuer URLs before any
// network I/O happens (SSRF guard).
var ErrInsecureIssuer = errors.New("issuer URL must be https")

const fetchTimeout = 5 * time.Second

type entry struct {
	set     jwk.Set
	expires time.Time
}

// Cache fetches {issuer}/.well-known/jwks.json and caches the result per
// issuer for a bounded TTL. Reads are lock-free once cached; a refresh is
// single-flighted per issuer so a cache miss under concurrency triggers one
// network fetch. Entries are replaced as a unit, never patched.
type Cache struct {
	ttl    time.Duration
	client *http.Client

	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
}

type Option func(*Cache)

// WithHTTPClient overrides the fetch client (custom TLS roots, tests).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Cache) { c.client = client }
}

// New builds a Cache. ttl <= 0 means entries live for the process lifetime.
func New(ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		ttl:     ttl,
		client:  &http.Client{Timeout: fetchTimeout},
		entries: map[string]entry{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the signing key set for issuerURL, fetching on miss or expiry.
func (c *Cache) Get(ctx context.Context, issuerURL string) (jwk.Set, error) {
	if !strings.HasPrefix(strings.ToLower(issuerURL), "https://") {
		return nil, fmt.Errorf("%w: %s", ErrInsecureIssuer, issuerURL)
	}
	c.mu.RLock()
	if e, ok := c.entries[issuerURL]; ok && c.fresh(e) {
		c.mu.RUnlock()
		return e.set, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(issuerURL, func() (any, error) {
		// Re-check under the flight: a concurrent caller may have filled it.
		c.mu.RLock()
		if e, ok := c.entries[issuerURL]; ok && c.fresh(e) {
			c.mu.RUnlock()
			return e.set, nil
		}
		c.mu.RUnlock()

		url := strings.TrimRight(issuerURL, "/") + "/.well-known/jwks.json"
		set, err := jwk.Fetch(ctx, url, jwk.WithHTTPClient(c.client))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyFetch, err)
		}
		c.mu.Lock()
		c.entries[issuerURL] = entry{set: set, expires: time.Now().Add(c.ttl)}
		c.mu.Unlock()
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(jwk.Set), nil
}

func (c *Cache) fresh(e entry) bool {
	if c.ttl <= 0 {
		return true
	}
	return time.Now().Before(e.expires)
}
