package actions

import (
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rendis/addonkit/internal/validation"
	"github.com/rendis/addonkit/pkg/schema"
)

// Registry discovers the units of one category directory and serves them by
// name. Discovery runs at most once, on first use; a directory-level failure
// is cached and returned by every later call.
type Registry struct {
	fsys      fs.FS
	dir       string
	catalog   *Catalog
	validator *validation.JSONSchemaValidator
	logger    *slog.Logger

	mu         sync.Mutex
	discovered atomic.Bool
	actions    map[string]Action
	order      []string
	err        error
}

// NewRegistry creates a Registry over dir inside fsys. Nothing is read until
// the first lookup. A nil catalog, validator or logger gets a default; the
// default validator is built by the discovery pass.
func NewRegistry(fsys fs.FS, dir string, catalog *Catalog, validator *validation.JSONSchemaValidator, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if catalog == nil {
		catalog = NewCatalog()
	}
	return &Registry{
		fsys:      fsys,
		dir:       dir,
		catalog:   catalog,
		validator: validator,
		logger:    logger.With(slog.String("dir", dir)),
	}
}

// Dir returns the directory the registry discovers from.
func (r *Registry) Dir() string { return r.dir }

// Discover scans the directory if it has not been scanned yet.
func (r *Registry) Discover() error {
	if r.discovered.Load() {
		return r.err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.discovered.Load() {
		return r.err
	}

	r.actions, r.order, r.err = r.scan()
	r.discovered.Store(true)
	return r.err
}

func (r *Registry) scan() (map[string]Action, []string, error) {
	if r.validator == nil {
		v, err := validation.NewJSONSchemaValidator()
		if err != nil {
			r.logger.Error("unit discovery failed", slog.String("error", err.Error()))
			return nil, nil, schema.NewError(schema.ErrCodeDiscovery, "build manifest validator").WithCause(err)
		}
		r.validator = v
	}

	entries, err := fs.ReadDir(r.fsys, r.dir)
	if err != nil {
		r.logger.Error("unit discovery failed", slog.String("error", err.Error()))
		return nil, nil, schema.NewErrorf(schema.ErrCodeDiscovery, "read unit directory %q: %s", r.dir, err.Error()).
			WithCause(err)
	}

	acts := make(map[string]Action)
	var order []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, ok := unitName(e.Name())
		if !ok {
			continue
		}

		p := path.Join(r.dir, e.Name())
		m, err := loadManifest(r.fsys, p, name, r.validator)
		if err != nil {
			loadErr := schema.NewErrorf(schema.ErrCodeDiscoveryLoad, "load %s: %s", p, err.Error()).
				WithUnit(name).
				WithCause(err)
			r.logger.Warn("skipping unit", slog.String("unit", name), slog.String("error", loadErr.Error()))
			continue
		}
		if m.Entrypoint != name {
			r.logger.Debug("skipping unit: entrypoint mismatch",
				slog.String("unit", name), slog.String("entrypoint", m.Entrypoint))
			continue
		}
		fn, ok := r.catalog.Lookup(name)
		if !ok {
			r.logger.Debug("skipping unit: no handler", slog.String("unit", name))
			continue
		}

		u, err := newUnit(name, m, fn, r.validator)
		if err != nil {
			r.logger.Warn("skipping unit", slog.String("unit", name), slog.String("error", err.Error()))
			continue
		}
		if _, exists := acts[name]; !exists {
			order = append(order, name)
		}
		acts[name] = u
	}

	r.logger.Info("units discovered", slog.Int("count", len(order)), slog.Any("names", order))
	return acts, order, nil
}

// Get retrieves an action by name, discovering on first use.
func (r *Registry) Get(name string) (Action, error) {
	if err := r.Discover(); err != nil {
		return nil, err
	}
	action, ok := r.actions[name]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeActionUnavailable, "action %q not registered", name).
			WithDetails(map[string]any{"dir": r.dir})
	}
	return action, nil
}

// Names returns the discovered unit names in discovery order.
func (r *Registry) Names() ([]string, error) {
	if err := r.Discover(); err != nil {
		return nil, err
	}
	return slices.Clone(r.order), nil
}

// List returns info for all discovered actions in discovery order.
func (r *Registry) List() ([]ActionInfo, error) {
	if err := r.Discover(); err != nil {
		return nil, err
	}
	infos := make([]ActionInfo, 0, len(r.order))
	for _, name := range r.order {
		a := r.actions[name]
		s := a.Schema()
		infos = append(infos, ActionInfo{
			Name:          name,
			Description:   s.Description,
			Version:       s.Version,
			RequiresInput: a.RequiresInput(),
		})
	}
	return infos, nil
}

// Has checks if an action was discovered.
func (r *Registry) Has(name string) bool {
	if r.Discover() != nil {
		return false
	}
	_, ok := r.actions[name]
	return ok
}

// Count returns the number of discovered actions.
func (r *Registry) Count() int {
	if r.Discover() != nil {
		return 0
	}
	return len(r.order)
}
