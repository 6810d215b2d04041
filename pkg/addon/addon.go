// Package addon is the host-facing entry point: it discovers the units of
// every category, runs them against a validated configuration and reports
// on the addon's health.
package addon

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/rendis/addonkit/internal/actions"
	"github.com/rendis/addonkit/internal/builtin"
	"github.com/rendis/addonkit/internal/logging"
	"github.com/rendis/addonkit/internal/secrets"
	"github.com/rendis/addonkit/internal/validation"
	"github.com/rendis/addonkit/pkg/config"
	"github.com/rendis/addonkit/pkg/schema"
)

// Category names. Each is a subdirectory of the addon root.
const (
	CategoryActions       = "actions"
	CategoryConfiguration = "configuration"
	CategoryMemory        = "memory"
	CategoryServices      = "services"
	CategoryStorage       = "storage"
	CategoryTools         = "tools"
	CategoryUtils         = "utils"
)

// Categories returns the fixed category set in self-test order.
func Categories() []string {
	return []string{
		CategoryActions,
		CategoryConfiguration,
		CategoryMemory,
		CategoryServices,
		CategoryStorage,
		CategoryTools,
		CategoryUtils,
	}
}

// Addon owns one discovery Registry per category.
type Addon struct {
	fsys     fs.FS
	catalog  *actions.Catalog
	logger   *slog.Logger
	resolver secrets.Resolver

	registries map[string]*actions.Registry
}

// Option configures an Addon.
type Option func(*Addon)

// WithFS sets the addon root. Defaults to the embedded builtin units.
func WithFS(fsys fs.FS) Option {
	return func(a *Addon) { a.fsys = fsys }
}

// WithCatalog sets the handlers units bind to. Defaults to the builtin
// handlers.
func WithCatalog(c *actions.Catalog) Option {
	return func(a *Addon) { a.catalog = c }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Addon) { a.logger = logger }
}

// WithSecretResolver sets how secret references are resolved. Defaults to
// environment variables.
func WithSecretResolver(r SecretResolver) Option {
	return func(a *Addon) { a.resolver = r }
}

// New creates an Addon. Nothing is read from the filesystem until the first
// lookup.
func New(opts ...Option) (*Addon, error) {
	a := &Addon{}
	for _, opt := range opts {
		opt(a)
	}
	if a.fsys == nil {
		a.fsys = builtin.FS()
	}
	if a.catalog == nil {
		a.catalog = builtin.NewCatalog()
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.resolver == nil {
		a.resolver = secrets.EnvResolver{}
	}

	validator, err := validation.NewJSONSchemaValidator()
	if err != nil {
		return nil, err
	}

	a.registries = make(map[string]*actions.Registry, len(Categories()))
	for _, cat := range Categories() {
		a.registries[cat] = actions.NewRegistry(a.fsys, cat, a.catalog, validator, a.logger)
	}
	return a, nil
}

// Registry returns the registry of a category.
func (a *Addon) Registry(category string) (*actions.Registry, error) {
	reg, ok := a.registries[category]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "unknown category %q", category).
			WithDetails(map[string]any{"available": Categories()})
	}
	return reg, nil
}

// Resolve returns the unit name of category.
func (a *Addon) Resolve(category, name string) (Action, error) {
	reg, err := a.Registry(category)
	if err != nil {
		return nil, err
	}
	return reg.Get(name)
}

// Action returns the unit name of the actions category.
func (a *Addon) Action(name string) (Action, error) {
	return a.Resolve(CategoryActions, name)
}

// ListAvailable returns the unit names of category in discovery order.
func (a *Addon) ListAvailable(category string) ([]string, error) {
	reg, err := a.Registry(category)
	if err != nil {
		return nil, err
	}
	return reg.Names()
}

// List returns the units of category with their metadata.
func (a *Addon) List(category string) ([]ActionInfo, error) {
	reg, err := a.Registry(category)
	if err != nil {
		return nil, err
	}
	return reg.List()
}

// Run validates params against the action's input schema and executes it.
// cfg may be nil; a disabled cfg is refused. Every refusal is logged before
// it is returned.
func (a *Addon) Run(ctx context.Context, name string, cfg config.Schema, params map[string]any) (*ActionOutput, error) {
	ctx = logging.WithCategory(ctx, CategoryActions)
	ctx = logging.WithUnit(ctx, name)
	if cfg != nil {
		ctx = logging.WithAddonID(ctx, cfg.Base().ID)
	}
	log := logging.LogWith(ctx, a.logger)
	ctx = logging.WithLogger(ctx, log)

	if cfg != nil && !cfg.Base().Enabled {
		err := schema.NewErrorf(schema.ErrCodeAddonDisabled, "addon %q is disabled", cfg.Base().ID).WithUnit(name)
		return nil, refuse(log, "addon disabled", err)
	}

	act, err := a.Action(name)
	if err != nil {
		return nil, refuse(log, "action unavailable", err)
	}
	if params == nil {
		params = map[string]any{}
	}
	if err := act.Validate(params); err != nil {
		return nil, refuse(log, "action input rejected", err)
	}

	log.Debug("running action")
	out, err := act.Execute(ctx, ActionInput{Params: params, Config: cfg})
	if err != nil {
		log.Warn("action failed", slog.String("code", schema.ErrCodeExecution), slog.String("error", err.Error()))
		return nil, schema.NewErrorf(schema.ErrCodeExecution, "action %q failed: %s", name, err.Error()).
			WithUnit(name).
			WithCause(err)
	}
	return out, nil
}

func refuse(log *slog.Logger, msg string, err error) error {
	attrs := []any{}
	var aErr *schema.AddonError
	if errors.As(err, &aErr) {
		attrs = append(attrs, slog.String("code", aErr.Code))
		if len(aErr.Details) > 0 {
			attrs = append(attrs, slog.Any("details", aErr.Details))
		}
	}
	attrs = append(attrs, slog.String("error", err.Error()))
	log.Warn(msg, attrs...)
	return err
}

// ResolveSecret resolves the secret declared under key in cfg's secrets map.
// The reference carries cfg's ID, so scoped resolvers such as the vault only
// return secrets stored for this addon.
func (a *Addon) ResolveSecret(ctx context.Context, cfg config.Schema, key string) ([]byte, error) {
	if cfg == nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "config is nil")
	}
	base := cfg.Base()
	name, ok := base.Secrets[key]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "secret %q is not configured", key).
			WithDetails(map[string]any{"declared": cfg.RequiredSecrets().Keys()})
	}
	val, err := a.resolver.Resolve(ctx, SecretRef{AddonID: base.ID, Key: key, Name: name})
	if err != nil {
		var aErr *schema.AddonError
		if errors.As(err, &aErr) {
			return nil, err
		}
		return nil, schema.NewErrorf(schema.ErrCodeVault, "resolve secret %q: %s", key, err.Error()).WithCause(err)
	}
	return val, nil
}
