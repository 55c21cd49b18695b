package skydropx

import (
	"context"
	"sync"
	"time"

	pkgerrors "github.com/tienda-mx/storefront-backend/pkg/errors"
)

const fallbackTokenTTL = 3600 * time.Second

// tokenSource caches one bearer token for the process lifetime and refreshes
// it lazily once expired. The expiry check is re-run under the lock so two
// callers racing past an expired token trigger at most one refresh each.
type tokenSource struct {
	mu     sync.Mutex
	token  string
	expiry time.Time
	now    func() time.Time
}

func newTokenSource() *tokenSource {
	return &tokenSource{now: time.Now}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// getToken returns the cached bearer token, exchanging client credentials for
// a fresh one when the cache is empty or expired.
func (c *Client) getToken(ctx context.Context) (string, error) {
	c.tokens.mu.Lock()
	defer c.tokens.mu.Unlock()

	if c.tokens.token != "" && c.tokens.now().Before(c.tokens.expiry) {
		return c.tokens.token, nil
	}

	payload := map[string]string{
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"grant_type":    "client_credentials",
	}

	var resp tokenResponse
	if err := c.do(ctx, "POST", "/api/v1/oauth/token", payload, &resp, false); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "skydropx token exchange failed")
	}
	if resp.AccessToken == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "skydropx token exchange returned no access token")
	}

	ttl := fallbackTokenTTL
	if resp.ExpiresIn > 0 {
		ttl = time.Duration(resp.ExpiresIn) * time.Second
	}

	c.tokens.token = resp.AccessToken
	c.tokens.expiry = c.tokens.now().Add(ttl)
	return c.tokens.token, nil
}
