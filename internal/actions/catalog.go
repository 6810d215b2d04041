package actions

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rendis/addonkit/pkg/schema"
)

// HandlerFunc is the compiled-in body of a unit. Its result is JSON-encoded
// into ActionOutput.Data.
type HandlerFunc func(ctx context.Context, input ActionInput) (any, error)

// Catalog holds the compiled Go handlers that unit manifests bind to by name.
// A manifest without a matching handler is never registered.
type Catalog struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		handlers: make(map[string]HandlerFunc),
	}
}

// Register adds a handler under name. Returns error on duplicate name.
func (c *Catalog) Register(name string, fn HandlerFunc) error {
	if name == "" {
		return schema.NewError(schema.ErrCodeValidation, "handler name is empty")
	}
	if fn == nil {
		return schema.NewErrorf(schema.ErrCodeValidation, "handler %q is nil", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.handlers[name]; exists {
		return schema.NewErrorf(schema.ErrCodeConflict, "handler %q already registered", name)
	}

	slog.Debug("registering handler", slog.String("name", name))
	c.handlers[name] = fn
	return nil
}

// MustRegister is Register for package init wiring; it panics on error.
func (c *Catalog) MustRegister(name string, fn HandlerFunc) {
	if err := c.Register(name, fn); err != nil {
		panic(err)
	}
}

// Lookup returns the handler registered under name.
func (c *Catalog) Lookup(name string) (HandlerFunc, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn, ok := c.handlers[name]
	return fn, ok && fn != nil
}

// Len returns the number of registered handlers.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.handlers)
}
