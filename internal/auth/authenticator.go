package auth

import (
	"context"
	"sync"
	"time"

	"road-monitor/internal/config"
)

// KeyResolver looks up dynamically issued API keys. Satisfied by the
// Redis store; nil disables dynamic keys.
type KeyResolver interface {
	GetAPIKey(ctx context.Context, apiKey string) (string, error)
}

type cacheEntry struct {
	clientID  string
	expiresAt time.Time
}

type Authenticator struct {
	localCache sync.Map
	resolver   KeyResolver
	ttl        time.Duration
	staticKeys map[string]bool
}

func NewAuthenticator(cfg *config.Config, resolver KeyResolver) *Authenticator {
	staticKeys := make(map[string]bool, len(cfg.ValidAPIKeys))
	for _, k := range cfg.ValidAPIKeys {
		if k != "" {
			staticKeys[k] = true
		}
	}

	return &Authenticator{
		resolver:   resolver,
		ttl:        time.Duration(cfg.AuthCacheTTLSeconds) * time.Second,
		staticKeys: staticKeys,
	}
}

func (a *Authenticator) Validate(ctx context.Context, apiKey string) bool {
	// Level 0: static config keys
	if a.staticKeys[apiKey] {
		return true
	}

	// Level 1: in-memory cache
	if raw, ok := a.localCache.Load(apiKey); ok {
		entry := raw.(cacheEntry)
		if time.Now().Before(entry.expiresAt) {
			return true
		}
		a.localCache.Delete(apiKey)
	}

	// Level 2: backing store lookup
	if a.resolver == nil {
		return false
	}
	clientID, err := a.resolver.GetAPIKey(ctx, apiKey)
	if err != nil || clientID == "" {
		return false
	}

	// Populate in-memory cache
	a.localCache.Store(apiKey, cacheEntry{
		clientID:  clientID,
		expiresAt: time.Now().Add(a.ttl),
	})

	return true
}
