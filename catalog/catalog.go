// Package catalog loads model descriptors from disk.
//
// A descriptor is a YAML or JSON document shaped like models.Model, or an
// OpenAPI 3 document whose operations become the model's endpoints.
package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"modelhub-sdk/models"
)

// Catalog is an ordered, concurrency-safe set of models keyed by id
type Catalog struct {
	mu     sync.RWMutex
	models map[string]*models.Model
	order  []string
}

// New creates a catalog holding the given models
func New(list ...*models.Model) (*Catalog, error) {
	c := &Catalog{models: make(map[string]*models.Model)}
	for _, m := range list {
		if err := c.Add(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add registers a model. Ids must be unique.
func (c *Catalog) Add(m *models.Model) error {
	if err := Validate(m); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.models[m.ID]; exists {
		return fmt.Errorf("duplicate model id %q", m.ID)
	}
	c.models[m.ID] = m
	c.order = append(c.order, m.ID)
	return nil
}

// Get returns the model with the given id
func (c *Catalog) Get(id string) (*models.Model, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.models[id]
	return m, ok
}

// Models returns every model in insertion order
func (c *Catalog) Models() []*models.Model {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*models.Model, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.models[id])
	}
	return out
}

// List returns the marketplace summary of every model
func (c *Catalog) List() []*models.ModelListItem {
	all := c.Models()
	items := make([]*models.ModelListItem, 0, len(all))
	for _, m := range all {
		item := &models.ModelListItem{
			ID:        m.ID,
			Name:      m.Name,
			Endpoints: len(m.Endpoints),
		}
		if m.Description != "" {
			description := m.Description
			item.Description = &description
		}
		items = append(items, item)
	}
	return items
}

// Len returns the number of models
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Validate checks the fields a sandbox relies on and normalizes methods.
// A model may have no endpoints: the sandbox refuses it, the catalog does not.
func Validate(m *models.Model) error {
	if m == nil {
		return fmt.Errorf("model is nil")
	}
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("model id is required")
	}
	for i := range m.Endpoints {
		ep := &m.Endpoints[i]
		if ep.Path == "" {
			return fmt.Errorf("model %s: endpoint %d has no path", m.ID, i)
		}
		if ep.Method == "" {
			ep.Method = "POST"
		}
		ep.Method = strings.ToUpper(ep.Method)
	}
	return nil
}

// LoadFile reads one descriptor. OpenAPI documents are recognised by their
// top-level "openapi" field; anything else decodes as a models.Model.
func LoadFile(ctx context.Context, path string) (*models.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var probe struct {
		OpenAPI string `yaml:"openapi"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if probe.OpenAPI != "" {
		id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		m, err := FromOpenAPI(ctx, data, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		return m, nil
	}

	var m models.Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := Validate(&m); err != nil {
		return nil, fmt.Errorf("invalid descriptor %s: %w", path, err)
	}
	return &m, nil
}

// LoadDir loads every .yaml, .yml and .json file in dir concurrently.
// Models are added in file name order.
func LoadDir(ctx context.Context, dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml", ".json":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	loaded := make([]*models.Model, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, file := range files {
		g.Go(func() error {
			m, err := LoadFile(gctx, file)
			if err != nil {
				return err
			}
			loaded[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return New(loaded...)
}
