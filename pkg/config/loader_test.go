package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johanstenius/mocktail-sub000/pkg/mock"
)

const sampleYAML = `
server:
  addr: ":9090"
logging:
  level: debug
  format: json
quota:
  limit: 100
  windowSeconds: 30
projects:
  - id: petshop
    name: Pet Shop
    upstream:
      baseUrl: https://api.example.com
      timeoutMs: 1000
    endpoints:
      - id: ep1
        method: GET
        path: /pets/:id
        variants:
          - id: v1
            isDefault: true
            status: 200
            bodyType: static
            body:
              id: ":id"
              name: Max
    buckets:
      pets:
        - id: 1
          name: Rex
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFileYAML(t *testing.T) {
	cfg, err := LoadFromFile(writeTemp(t, "config.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 100, cfg.Quota.Limit)
	assert.Equal(t, 30*time.Second, cfg.Quota.Window())

	require.Len(t, cfg.Projects, 1)
	p := cfg.Projects[0]
	assert.Equal(t, "petshop", p.ID)
	require.NotNil(t, p.Upstream)
	assert.Equal(t, "https://api.example.com", p.Upstream.BaseURL)
	assert.Equal(t, time.Second, p.Upstream.Timeout())

	require.Len(t, p.Endpoints, 1)
	ep := p.Endpoints[0]
	assert.Equal(t, "GET", ep.Method)
	assert.Equal(t, "/pets/:id", ep.Path)
	require.Len(t, ep.Variants, 1)
	assert.True(t, ep.Variants[0].IsDefault)

	require.Contains(t, p.Buckets, "pets")
	assert.Len(t, p.Buckets["pets"], 1)
}

func TestLoadFromFileDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeTemp(t, "minimal.yaml", "projects: []\n"))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Server.Addr, cfg.Server.Addr)
	assert.Equal(t, def.Server.RequestLogCapacity, cfg.Server.RequestLogCapacity)
	assert.Equal(t, def.Server.NotifyDebounceMs, cfg.Server.NotifyDebounceMs)
	assert.Equal(t, def.Logging.Level, cfg.Logging.Level)
	assert.Equal(t, def.Logging.Format, cfg.Logging.Format)
}

func TestLoadFromFileJSON(t *testing.T) {
	cfg, err := LoadFromFile(writeTemp(t, "config.json", `{"server":{"addr":":7070"}}`))
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
}

func TestLoadFromFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := LoadFromFile(writeTemp(t, "empty.yaml", ""))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("bad yaml", func(t *testing.T) {
		_, err := LoadFromFile(writeTemp(t, "bad.yaml", "server: [unclosed"))
		assert.ErrorIs(t, err, ErrInvalidYAML)
	})

	t.Run("bad json", func(t *testing.T) {
		_, err := LoadFromFile(writeTemp(t, "bad.json", "{not json"))
		assert.ErrorIs(t, err, ErrInvalidJSON)
	})
}

func TestValidateSemantics(t *testing.T) {
	endpoint := func(variants ...*mock.Variant) *mock.Endpoint {
		return &mock.Endpoint{
			ID:       "ep",
			Method:   "GET",
			Path:     "/x",
			Variants: variants,
		}
	}

	t.Run("duplicate project ids", func(t *testing.T) {
		cfg := Default()
		cfg.Projects = []ProjectConfig{
			{Project: mock.Project{ID: "p", Name: "a"}},
			{Project: mock.Project{ID: "p", Name: "b"}},
		}
		assert.ErrorContains(t, Validate(cfg), "duplicate project id")
	})

	t.Run("endpoint without variants", func(t *testing.T) {
		cfg := Default()
		cfg.Projects = []ProjectConfig{
			{Project: mock.Project{ID: "p", Name: "a", Endpoints: []*mock.Endpoint{endpoint()}}},
		}
		assert.Error(t, Validate(cfg))
	})

	t.Run("two default variants", func(t *testing.T) {
		cfg := Default()
		cfg.Projects = []ProjectConfig{
			{Project: mock.Project{ID: "p", Name: "a", Endpoints: []*mock.Endpoint{endpoint(
				&mock.Variant{ID: "v1", IsDefault: true, Status: 200},
				&mock.Variant{ID: "v2", IsDefault: true, Status: 404},
			)}}},
		}
		assert.Error(t, Validate(cfg))
	})
}
