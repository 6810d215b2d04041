// Package builtin ships the default addon units: one manifest per unit under
// units/<category>, bound to the handlers in this package.
package builtin

import (
	"embed"
	"io/fs"

	"github.com/rendis/addonkit/internal/actions"
)

//go:embed units
var unitsFS embed.FS

// Root is the directory inside the embedded tree holding one subdirectory per
// category.
const Root = "units"

// FS returns the embedded units rooted at the category directories.
func FS() fs.FS {
	sub, err := fs.Sub(unitsFS, Root)
	if err != nil {
		panic(err) // Root is a constant valid path
	}
	return sub
}

// Register adds every builtin handler to c.
func Register(c *actions.Catalog) error {
	for name, fn := range handlers() {
		if err := c.Register(name, fn); err != nil {
			return err
		}
	}
	return nil
}

// NewCatalog returns a catalog holding the builtin handlers.
func NewCatalog() *actions.Catalog {
	c := actions.NewCatalog()
	if err := Register(c); err != nil {
		panic(err) // handler names are unique constants
	}
	return c
}
