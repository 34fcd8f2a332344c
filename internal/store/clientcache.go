package store

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoCredential is returned when no credential exists for the user+provider.
var ErrNoCredential = errors.New("no credential on file")

// Cache entries always expire ahead of the underlying token so a cached
// client is never handed out with a token about to lapse mid-call.
const (
	clientExpiryMargin = 5 * time.Minute
	clientDefaultTTL   = time.Hour
)

// BuildClientFunc constructs an authenticated client from a credential.
type BuildClientFunc func(ctx context.Context, cred *Credential) (interface{}, error)

type clientEntry struct {
	client    interface{}
	expiresAt time.Time
}

// ClientCache caches authenticated provider clients keyed by user+provider.
// Safe for concurrent use.
type ClientCache struct {
	creds CredentialStore
	clock Clock

	mu      sync.Mutex
	entries map[string]*clientEntry
}

func NewClientCache(creds CredentialStore) *ClientCache {
	return &ClientCache{
		creds:   creds,
		clock:   time.Now,
		entries: make(map[string]*clientEntry),
	}
}

// Get returns a cached client or builds one from the stored credential.
// Missing credentials yield ErrNoCredential; build failures are not cached.
func (c *ClientCache) Get(ctx context.Context, phone, provider string, build BuildClientFunc) (interface{}, error) {
	key := phone + "\x00" + provider
	now := c.clock()

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && now.Before(e.expiresAt) {
		c.mu.Unlock()
		return e.client, nil
	}
	delete(c.entries, key)
	c.mu.Unlock()

	cred, err := c.creds.Get(ctx, phone, provider)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, ErrNoCredential
	}

	client, err := build(ctx, cred)
	if err != nil {
		return nil, err
	}

	expiresAt := now.Add(clientDefaultTTL)
	if !cred.ExpiresAt.IsZero() {
		tokenDeadline := cred.ExpiresAt.Add(-clientExpiryMargin)
		if tokenDeadline.Before(expiresAt) {
			expiresAt = tokenDeadline
		}
	}
	if expiresAt.After(now) {
		c.mu.Lock()
		c.entries[key] = &clientEntry{client: client, expiresAt: expiresAt}
		c.mu.Unlock()
	}
	return client, nil
}

// Invalidate drops the cached client, e.g. after a revoked-token error.
func (c *ClientCache) Invalidate(phone, provider string) {
	c.mu.Lock()
	delete(c.entries, phone+"\x00"+provider)
	c.mu.Unlock()
}
