package clients

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// refreshMargin is how close to expiry a cached credential may get before the
// next caller refreshes it.
const refreshMargin = 60 * time.Second

// TokenProvider yields a bearer credential for the Graph tenant.
type TokenProvider interface {
	GetValid(ctx context.Context) (string, error)
}

// CredentialCache holds one bearer token and refreshes it when within
// refreshMargin of expiry. One instance is shared by every handler goroutine,
// so the read-check-refresh runs under a mutex; a refresh that turns out
// redundant is harmless.
type CredentialCache struct {
	mu     sync.Mutex
	conf   *clientcredentials.Config
	token  string
	expiry time.Time
}

// NewCredentialCache builds a client-credentials cache for the given tenant.
func NewCredentialCache(tenantID, clientID, clientSecret string) (*CredentialCache, error) {
	if tenantID == "" || clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("missing TENANT_ID, CLIENT_ID, or CLIENT_SECRET")
	}
	return &CredentialCache{
		conf: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenantID),
			Scopes:       []string{"https://graph.microsoft.com/.default"},
		},
	}, nil
}

// GetValid returns the cached bearer token, fetching a fresh one when absent
// or within refreshMargin of expiry.
func (c *CredentialCache) GetValid(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.expiry.Add(-refreshMargin)) {
		return c.token, nil
	}
	tok, err := c.conf.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to acquire bearer credential: %w", err)
	}
	c.token = tok.AccessToken
	c.expiry = tok.Expiry
	return c.token, nil
}
