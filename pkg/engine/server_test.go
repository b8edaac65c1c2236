package engine

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johanstenius/mocktail-sub000/internal/storage"
	"github.com/johanstenius/mocktail-sub000/pkg/bucket"
	"github.com/johanstenius/mocktail-sub000/pkg/mock"
	"github.com/johanstenius/mocktail-sub000/pkg/ratelimit"
)

func testServer(t *testing.T, opts ...ServerOption) *httptest.Server {
	t.Helper()
	store := storage.NewInMemoryProjectStore()
	require.NoError(t, store.Set(petsProject()))

	e := New(store, bucket.NewStore())
	e.sleep = func(time.Duration) {}

	srv := NewServer(":0", e, opts...)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func TestServerMockRoute(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/petshop/pets/7")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, map[string]any{"id": "7", "name": "Max"}, body)
}

func TestServerUnknownProject(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/nope/pets/7")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 404, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "project_not_found", body["error"])
}

func TestServerHealth(t *testing.T) {
	ts := testServer(t)

	for _, path := range []string{"/__mocktail/health", "/__mocktail/ready"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, 200, resp.StatusCode, path)
	}
}

func TestServerQuota(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.Quota{Limit: 2, Window: time.Minute})
	ts := testServer(t, WithLimiter(limiter))

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := http.Get(ts.URL + "/petshop/pets/1")
		require.NoError(t, err)
		resp.Body.Close()
		statuses = append(statuses, resp.StatusCode)
	}

	assert.Equal(t, []int{200, 200, 429}, statuses)
}

func TestServerParsesJSONBody(t *testing.T) {
	store := storage.NewInMemoryProjectStore()
	require.NoError(t, store.Set(&mock.Project{
		ID: "p",
		Endpoints: []*mock.Endpoint{{
			ID:     "ep",
			Method: "POST",
			Path:   "/echo",
			Variants: []*mock.Variant{{
				ID: "v", IsDefault: true, Status: 200,
				BodyType: mock.BodyTemplate,
				Body:     `{"echo":"{{request.body.word}}"}`,
			}},
		}},
	}))

	e := New(store, bucket.NewStore())
	ts := httptest.NewServer(NewServer(":0", e).Router())
	t.Cleanup(ts.Close)

	resp, err := http.Post(ts.URL+"/p/echo", "application/json", strings.NewReader(`{"word":"hi"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "hi", body["echo"])
}

func TestServerNoBodyStatus(t *testing.T) {
	store := storage.NewInMemoryProjectStore()
	require.NoError(t, store.Set(&mock.Project{
		ID: "p",
		Endpoints: []*mock.Endpoint{{
			ID:     "ep",
			Method: "DELETE",
			Path:   "/things/:id",
			Variants: []*mock.Variant{{
				ID: "v", IsDefault: true, Status: 204,
				Body: map[string]any{"ignored": true},
			}},
		}},
	}))

	e := New(store, bucket.NewStore())
	ts := httptest.NewServer(NewServer(":0", e).Router())
	t.Cleanup(ts.Close)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/p/things/1", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 204, resp.StatusCode)
	assert.Equal(t, int64(0), resp.ContentLength)
}
