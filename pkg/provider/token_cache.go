package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const tokenValidity = 10 * time.Minute

type (
	// TokenCache holds the short-lived bearer token for the premise
	// platform, refreshing it through a password-grant request once the
	// current one expires. Concurrent callers may race to refresh; token
	// issuance is idempotent on the identity provider's side, so the last
	// writer wins and every caller ends up with some valid token.
	TokenCache struct {
		tokenURL string
		clientID string
		username string
		password string

		httpClient *http.Client
		now        func() time.Time

		mu     sync.Mutex
		token  string
		expiry time.Time
	}

	tokenResponse struct {
		AccessToken string `json:"access_token"`
	}
)

func NewTokenCache(tokenURL, clientID, username, password string) *TokenCache {
	return &TokenCache{
		tokenURL:   tokenURL,
		clientID:   clientID,
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
}

// Get returns the cached token when it is still valid. This is the common
// case and costs only a time comparison under the lock.
func (c *TokenCache) Get(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && c.now().Before(c.expiry) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	token, err := c.refresh(ctx)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.token = token
	c.expiry = c.now().Add(tokenValidity)
	c.mu.Unlock()

	return token, nil
}

func (c *TokenCache) refresh(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type": {"password"},
		"client_id":  {c.clientID},
		"username":   {c.username},
		"password":   {c.password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", newProviderError(err, "building token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", newProviderError(err, "failed to obtain authentication token")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", newProviderError(nil, "failed to obtain authentication token: %s - %s", resp.Status, string(body))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", newProviderError(err, "decoding token response")
	}
	if tr.AccessToken == "" {
		return "", newProviderError(nil, "token response missing access_token")
	}
	return tr.AccessToken, nil
}
