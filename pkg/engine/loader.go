package engine

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/johanstenius/mocktail-sub000/internal/storage"
	"github.com/johanstenius/mocktail-sub000/pkg/bucket"
	"github.com/johanstenius/mocktail-sub000/pkg/config"
	"github.com/johanstenius/mocktail-sub000/pkg/logging"
)

// ConfigLoader populates the project store and bucket store from a loaded
// configuration.
type ConfigLoader struct {
	store   storage.ProjectStore
	buckets *bucket.Store
	log     *slog.Logger
}

// NewConfigLoader creates a config loader.
func NewConfigLoader(store storage.ProjectStore, buckets *bucket.Store) *ConfigLoader {
	return &ConfigLoader{
		store:   store,
		buckets: buckets,
		log:     logging.Nop(),
	}
}

// SetLogger sets the logger.
func (cl *ConfigLoader) SetLogger(log *slog.Logger) {
	if log != nil {
		cl.log = log
	}
}

// Load registers every project and seeds its buckets. Endpoints and
// variants without IDs get generated ones so log entries can reference
// them.
func (cl *ConfigLoader) Load(cfg *config.Config) error {
	for i := range cfg.Projects {
		pc := &cfg.Projects[i]
		project := &pc.Project

		for _, ep := range project.Endpoints {
			if ep.ID == "" {
				ep.ID = uuid.NewString()
			}
			ep.ProjectID = project.ID
			for _, v := range ep.Variants {
				if v.ID == "" {
					v.ID = uuid.NewString()
				}
			}
		}

		if err := cl.store.Set(project); err != nil {
			return fmt.Errorf("register project %q: %w", project.ID, err)
		}

		for name, items := range pc.Buckets {
			cl.buckets.Seed(project.ID, name, items)
		}

		cl.log.Info("project loaded",
			"project", project.ID,
			"endpoints", len(project.Endpoints),
			"buckets", len(pc.Buckets))
	}
	return nil
}
