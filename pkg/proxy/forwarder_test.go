package proxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardSuccess(t *testing.T) {
	var seen *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Upstream", "yes")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	f := New()
	res := f.Forward(context.Background(), srv.URL, Request{
		Method: http.MethodPost,
		Path:   "/things",
		Query:  url.Values{"limit": {"5"}},
		Headers: map[string]string{
			"X-Custom": "keep",
		},
		Body: map[string]any{"name": "box"},
	}, time.Second, AuthConfig{})

	require.True(t, res.Success)
	assert.Equal(t, http.StatusCreated, res.Status)
	assert.Equal(t, map[string]any{"ok": true}, res.Body)
	assert.Equal(t, "yes", res.Headers["X-Upstream"])
	assert.GreaterOrEqual(t, res.DurationMs, int64(0))

	require.NotNil(t, seen)
	assert.Equal(t, "/things", seen.URL.Path)
	assert.Equal(t, "5", seen.URL.Query().Get("limit"))
	assert.Equal(t, "keep", seen.Header.Get("X-Custom"))
}

func TestForwardUpstreamErrorStatusIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	res := New().Forward(context.Background(), srv.URL, Request{
		Method: http.MethodGet,
		Path:   "/broken",
	}, time.Second, AuthConfig{})

	require.True(t, res.Success, "an upstream 500 is still a completed call")
	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.Equal(t, "boom", res.Body)
}

func TestForwardHeaderHygiene(t *testing.T) {
	var seen http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	inbound := map[string]string{
		"X-Api-Key":     "secret",
		"Host":          "mocktail.local",
		"Authorization": "Bearer caller-token",
		"Connection":    "keep-alive",
		"X-Custom":      "keep",
	}

	t.Run("no pass through strips authorization", func(t *testing.T) {
		res := New().Forward(context.Background(), srv.URL, Request{
			Method:  http.MethodGet,
			Path:    "/",
			Headers: inbound,
		}, time.Second, AuthConfig{PassThrough: false})

		require.True(t, res.Success)
		assert.Empty(t, seen.Get("X-Api-Key"))
		assert.Empty(t, seen.Get("Authorization"))
		assert.Empty(t, seen.Get("Connection"))
		assert.Equal(t, "keep", seen.Get("X-Custom"))
	})

	t.Run("static header substitution", func(t *testing.T) {
		res := New().Forward(context.Background(), srv.URL, Request{
			Method:  http.MethodGet,
			Path:    "/",
			Headers: inbound,
		}, time.Second, AuthConfig{PassThrough: false, StaticHeader: "Bearer static-token"})

		require.True(t, res.Success)
		assert.Equal(t, "Bearer static-token", seen.Get("Authorization"))
	})

	t.Run("pass through keeps caller token", func(t *testing.T) {
		res := New().Forward(context.Background(), srv.URL, Request{
			Method:  http.MethodGet,
			Path:    "/",
			Headers: inbound,
		}, time.Second, AuthConfig{PassThrough: true})

		require.True(t, res.Success)
		assert.Equal(t, "Bearer caller-token", seen.Get("Authorization"))
	})
}

func TestForwardGetDropsBody(t *testing.T) {
	var length int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		length = r.ContentLength
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res := New().Forward(context.Background(), srv.URL, Request{
		Method: http.MethodGet,
		Path:   "/",
		Body:   map[string]any{"ignored": true},
	}, time.Second, AuthConfig{})

	require.True(t, res.Success)
	assert.LessOrEqual(t, length, int64(0))
}

func TestForwardInvalidURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
	}{
		{"no scheme", "not-a-url"},
		{"bad scheme", "ftp://example.com"},
		{"empty host", "http://"},
		{"garbage", "http://exa mple.com/%zz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := New().Forward(context.Background(), tt.baseURL, Request{
				Method: http.MethodGet,
				Path:   "/x",
			}, time.Second, AuthConfig{})

			require.False(t, res.Success)
			assert.Equal(t, ErrorInvalidURL, res.Error)
			assert.NotEmpty(t, res.Message)
			assert.GreaterOrEqual(t, res.DurationMs, int64(0))
		})
	}
}

func TestForwardTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	res := New().Forward(context.Background(), srv.URL, Request{
		Method: http.MethodGet,
		Path:   "/slow",
	}, 30*time.Millisecond, AuthConfig{})

	require.False(t, res.Success)
	assert.Equal(t, ErrorTimeout, res.Error)
}

func TestForwardConnectionError(t *testing.T) {
	// Port reserved but nothing listening.
	res := New().Forward(context.Background(), "http://127.0.0.1:1", Request{
		Method: http.MethodGet,
		Path:   "/",
	}, time.Second, AuthConfig{})

	require.False(t, res.Success)
	assert.Equal(t, ErrorConnection, res.Error)
	assert.NotEmpty(t, res.Message)
}
