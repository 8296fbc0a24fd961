package main

import (
	"context"
	"fmt"
	"net/url"

	"modelhub-sdk/catalog"
	"modelhub-sdk/cmd/modelhub/internal/config"
	"modelhub-sdk/cmd/modelhub/internal/ui/components"
	"modelhub-sdk/cmd/modelhub/internal/utils"
	"modelhub-sdk/models"
	"modelhub-sdk/quota"
	"modelhub-sdk/sandbox"
)

// modelSource is where the CLI finds models: the marketplace or a local catalog
type modelSource interface {
	List(ctx context.Context) ([]*models.ModelListItem, error)
	Get(ctx context.Context, modelID string) (*models.Model, error)
}

// catalogSource serves models from descriptors on disk
type catalogSource struct {
	catalog *catalog.Catalog
}

func (s catalogSource) List(ctx context.Context) ([]*models.ModelListItem, error) {
	return s.catalog.List(), nil
}

func (s catalogSource) Get(ctx context.Context, modelID string) (*models.Model, error) {
	m, ok := s.catalog.Get(modelID)
	if !ok {
		return nil, fmt.Errorf("model %q not found in catalog", modelID)
	}
	return m, nil
}

// app holds what every view and subcommand shares
type app struct {
	cfg    config.Config
	source modelSource
	store  quota.Store
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{cfg: cfg}

	if cfg.CatalogDir != "" {
		cat, err := catalog.LoadDir(ctx, cfg.CatalogDir)
		if err != nil {
			return nil, err
		}
		utils.LogDebug("loaded %d models from %s", cat.Len(), cfg.CatalogDir)
		a.source = catalogSource{catalog: cat}
	} else {
		a.source = cfg.NewClient().Models
	}

	store, err := cfg.OpenQuota(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open quota store: %w", err)
	}
	a.store = store

	return a, nil
}

// origin is the configured origin, or the marketplace's when models come
// from the marketplace
func (a *app) origin() string {
	if a.cfg.Origin != "" {
		return a.cfg.Origin
	}
	if a.cfg.CatalogDir != "" {
		return ""
	}
	u, err := url.Parse(a.cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// session is what the header shows about the current configuration
func (a *app) session() components.Session {
	source := a.cfg.CatalogDir
	if source == "" {
		source = a.cfg.BaseURL
	}
	driver := a.cfg.QuotaDriver
	if driver == "" {
		driver = "file"
	}
	return components.Session{
		Source: source,
		Quota:  driver,
		Origin: a.origin(),
	}
}

func (a *app) newController(opts ...sandbox.ControllerOption) *sandbox.Controller {
	base := []sandbox.ControllerOption{
		sandbox.WithLogger(utils.Logger()),
		sandbox.WithOrigin(a.origin()),
	}
	return sandbox.NewController(a.store, append(base, opts...)...)
}

// reconfigureQuota swaps the quota store, closing the previous one
func (a *app) reconfigureQuota(ctx context.Context, driver, dsn string) error {
	next := a.cfg
	next.QuotaDriver = driver
	next.QuotaDSN = dsn

	store, err := next.OpenQuota(ctx)
	if err != nil {
		return err
	}

	if a.store != nil {
		a.store.Close()
	}
	a.store = store
	a.cfg = next
	return nil
}

func (a *app) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
