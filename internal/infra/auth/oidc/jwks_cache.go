package oidc

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"sync"
	"time"
)

const (
	defaultJWKSCacheTTL     = 5 * time.Minute
	defaultJWKSFetchTimeout = 5 * time.Second
	defaultJWKSRetries      = 3
	defaultJWKSRetryDelay   = 200 * time.Millisecond
)

// jwksCache holds the provider's signing keys for a short TTL. A miss
// or expired cache triggers a synchronous refetch; concurrent refetches
// collapse onto one fetch via the mutex.
type jwksCache struct {
	url          string
	httpClient   *http.Client
	ttl          time.Duration
	fetchTimeout time.Duration
	now          func() time.Time

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time
}

type jwksResponse struct {
	Keys []jwkKey `json:"keys"`
}

type jwkKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func newJWKSCache(url string, httpClient *http.Client) *jwksCache {
	return &jwksCache{
		url:          url,
		httpClient:   httpClient,
		ttl:          defaultJWKSCacheTTL,
		fetchTimeout: defaultJWKSFetchTimeout,
		now:          time.Now,
		keys:         map[string]*rsa.PublicKey{},
	}
}

func (c *jwksCache) getKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if kid == "" {
		return nil, errors.New("kid is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Before(c.expiresAt) {
		if key, ok := c.keys[kid]; ok {
			return key, nil
		}
	}
	if err := c.refresh(ctx); err != nil {
		return nil, err
	}
	key, ok := c.keys[kid]
	if !ok {
		return nil, errors.New("jwks key not found")
	}
	return key, nil
}

// refresh runs with c.mu held.
func (c *jwksCache) refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	delay := defaultJWKSRetryDelay
	var lastErr error
	for attempt := 0; attempt < defaultJWKSRetries; attempt++ {
		if attempt > 0 {
			if err := sleepWithContext(ctx, delay); err != nil {
				return err
			}
			delay *= 2
		}
		keys, err := c.fetchOnce(ctx)
		if err == nil {
			c.keys = keys
			c.expiresAt = c.now().Add(c.ttl)
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return lastErr
}

func (c *jwksCache) fetchOnce(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New("jwks fetch failed")
	}
	var payload jwksResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	keys := make(map[string]*rsa.PublicKey, len(payload.Keys))
	for _, key := range payload.Keys {
		if key.Kty != "RSA" || key.Kid == "" {
			continue
		}
		pub, err := jwkToRSAPublicKey(key)
		if err != nil {
			continue
		}
		keys[key.Kid] = pub
	}
	if len(keys) == 0 {
		return nil, errors.New("jwks contains no usable keys")
	}
	return keys, nil
}

func jwkToRSAPublicKey(key jwkKey) (*rsa.PublicKey, error) {
	if key.N == "" || key.E == "" {
		return nil, errors.New("missing rsa params")
	}
	nBytes, err := base64.RawURLEncoding.DecodeString(key.N)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(key.E)
	if err != nil {
		return nil, err
	}
	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	if e <= 0 {
		return nil, errors.New("invalid rsa exponent")
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
