package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(t, "ocr-client", r.PostForm.Get("client_id"))
		assert.Equal(t, "svc-user", r.PostForm.Get("username"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh-token"}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestTokenCacheReusesValidToken(t *testing.T) {
	var calls int32
	server := newTokenServer(t, &calls)

	cache := NewTokenCache(server.URL, "ocr-client", "svc-user", "secret")

	first, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", first)

	second, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.EqualValues(t, 1, calls)
}

func TestTokenCacheRefreshesExpiredToken(t *testing.T) {
	var calls int32
	server := newTokenServer(t, &calls)

	cache := NewTokenCache(server.URL, "ocr-client", "svc-user", "secret")

	_, err := cache.Get(context.Background())
	require.NoError(t, err)

	// Move the clock past the cached token's validity window.
	cache.now = func() time.Time { return time.Now().Add(tokenValidity + time.Minute) }

	_, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls)
}

func TestTokenCacheConcurrentGets(t *testing.T) {
	var calls int32
	server := newTokenServer(t, &calls)

	cache := NewTokenCache(server.URL, "ocr-client", "svc-user", "secret")

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := cache.Get(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "fresh-token", token)
		}()
	}
	wg.Wait()

	// Racing callers may each refresh, but never more than once apiece.
	refreshes := atomic.LoadInt32(&calls)
	assert.GreaterOrEqual(t, refreshes, int32(1))
	assert.LessOrEqual(t, refreshes, int32(2))

	// Once a valid token is cached, further gets add no refresh.
	token, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
	assert.Equal(t, refreshes, atomic.LoadInt32(&calls))
}

func TestTokenCacheRefreshFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	cache := NewTokenCache(server.URL, "ocr-client", "svc-user", "wrong")

	_, err := cache.Get(context.Background())
	require.Error(t, err)

	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Contains(t, providerErr.Reason, "authentication token")
}
