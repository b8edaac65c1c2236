package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johanstenius/mocktail-sub000/internal/storage"
	"github.com/johanstenius/mocktail-sub000/pkg/bucket"
	"github.com/johanstenius/mocktail-sub000/pkg/config"
	"github.com/johanstenius/mocktail-sub000/pkg/mock"
)

func TestConfigLoaderLoad(t *testing.T) {
	cfg := config.Default()
	cfg.Projects = []config.ProjectConfig{
		{
			Project: mock.Project{
				ID:   "petshop",
				Name: "Pet Shop",
				Endpoints: []*mock.Endpoint{{
					Method: "GET",
					Path:   "/pets/:id",
					Variants: []*mock.Variant{{
						IsDefault: true,
						Status:    200,
						Body:      "ok",
					}},
				}},
			},
			Buckets: map[string][]any{
				"pets": {map[string]any{"id": float64(1)}},
			},
		},
	}

	store := storage.NewInMemoryProjectStore()
	buckets := bucket.NewStore()
	require.NoError(t, NewConfigLoader(store, buckets).Load(cfg))

	p := store.Get("petshop")
	require.NotNil(t, p)
	require.Len(t, p.Endpoints, 1)
	assert.NotEmpty(t, p.Endpoints[0].ID, "endpoints get generated ids")
	assert.Equal(t, "petshop", p.Endpoints[0].ProjectID)
	assert.NotEmpty(t, p.Endpoints[0].Variants[0].ID, "variants get generated ids")

	items, ok := buckets.Items("petshop", "pets")
	require.True(t, ok)
	assert.Len(t, items, 1)
}
