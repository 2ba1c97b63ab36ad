package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticTokenCache(token string) *TokenCache {
	return &TokenCache{
		token:  token,
		expiry: time.Now().Add(time.Hour),
		now:    time.Now,
	}
}

type premisePlatform struct {
	rejectFirstPut bool

	registerPuts int32
	registerGets int32
	blobPuts     int32
	predicts     int32

	mu    sync.Mutex
	paths []string
}

func (p *premisePlatform) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/files/users/") && r.Method == http.MethodPut:
			atomic.AddInt32(&p.registerPuts, 1)
			p.mu.Lock()
			p.paths = append(p.paths, r.URL.Path)
			p.mu.Unlock()
			require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			if p.rejectFirstPut {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{
				"presigned_put_url": "http://" + r.Host + "/blob",
			})
		case strings.HasPrefix(r.URL.Path, "/files/users/") && r.Method == http.MethodGet:
			atomic.AddInt32(&p.registerGets, 1)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"presigned_put_url": "http://" + r.Host + "/blob",
			})
		case r.URL.Path == "/blob" && r.Method == http.MethodPut:
			atomic.AddInt32(&p.blobPuts, 1)
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/qwen/predict" && r.Method == http.MethodPost:
			atomic.AddInt32(&p.predicts, 1)
			require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

			var req predictRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Inputs, 2)
			assert.Equal(t, "prompt", req.Inputs[0].Name)
			assert.Equal(t, "str", req.Inputs[0].Datatype)
			assert.Equal(t, "FILE", req.Inputs[1].Datatype)
			assert.Equal(t, "image/jpeg", req.Inputs[1].ContentType)
			require.Len(t, req.OutputFields, 1)
			assert.Equal(t, "echo", req.OutputFields[0].Name)

			_ = json.NewEncoder(w).Encode(map[string]any{
				"outputs": []map[string]string{{"data": modelReceipt}},
			})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestPremiseProviderExtract(t *testing.T) {
	platform := &premisePlatform{}
	server := httptest.NewServer(platform.handler(t))
	t.Cleanup(server.Close)

	provider := NewPremiseProvider(server.URL, staticTokenCache("tok"))
	receipt, err := provider.Extract(context.Background(), "user/img/receipt.jpg", []byte("fake image"))
	require.NoError(t, err)
	assert.Equal(t, "Corner Shop", receipt.StoreName)

	assert.EqualValues(t, 1, platform.registerPuts)
	assert.EqualValues(t, 0, platform.registerGets)
	assert.EqualValues(t, 1, platform.blobPuts)
	assert.EqualValues(t, 1, platform.predicts)

	// The platform path is derived from the storage key, slashes flattened.
	require.Len(t, platform.paths, 1)
	assert.Equal(t, "/files/users/user_img_receipt.jpg", platform.paths[0])
}

func TestPremiseProviderStableFileKey(t *testing.T) {
	platform := &premisePlatform{}
	server := httptest.NewServer(platform.handler(t))
	t.Cleanup(server.Close)

	provider := NewPremiseProvider(server.URL, staticTokenCache("tok"))
	_, err := provider.Extract(context.Background(), "user/img/receipt.jpg", []byte("fake image"))
	require.NoError(t, err)
	_, err = provider.Extract(context.Background(), "user/img/receipt.jpg", []byte("fake image"))
	require.NoError(t, err)

	// A retried extraction hits the same path, so the platform's
	// already-exists answer stays recoverable.
	require.Len(t, platform.paths, 2)
	assert.Equal(t, platform.paths[0], platform.paths[1])
}

func TestPremiseProviderExistingFileFallback(t *testing.T) {
	platform := &premisePlatform{rejectFirstPut: true}
	server := httptest.NewServer(platform.handler(t))
	t.Cleanup(server.Close)

	provider := NewPremiseProvider(server.URL, staticTokenCache("tok"))
	_, err := provider.Extract(context.Background(), "user/img/receipt.jpg", []byte("fake image"))
	require.NoError(t, err)

	assert.EqualValues(t, 1, platform.registerPuts)
	assert.EqualValues(t, 1, platform.registerGets)
	assert.EqualValues(t, 1, platform.blobPuts)
}

func TestPremiseProviderPredictFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/files/users/"):
			_ = json.NewEncoder(w).Encode(map[string]string{
				"presigned_put_url": "http://" + r.Host + "/blob",
			})
		case r.URL.Path == "/blob":
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "model crashed", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)

	provider := NewPremiseProvider(server.URL, staticTokenCache("tok"))
	_, err := provider.Extract(context.Background(), "user/img/receipt.jpg", []byte("fake image"))
	require.Error(t, err)

	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Contains(t, providerErr.Reason, "predict failed")
}
