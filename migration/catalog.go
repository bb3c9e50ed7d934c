package migration

import (
	"fmt"
	"sync"
)

// Catalog is an in-process Factory over migrations written in Go. Each
// definition is registered under its fully-qualified identifier, usually
// from an init function in the package that declares it.
type Catalog struct {
	mu   sync.RWMutex
	defs map[string]Migration
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{defs: make(map[string]Migration)}
}

// Register adds a definition under identifier. Registering the same
// identifier twice fails with ErrDuplicateVersion.
func (c *Catalog) Register(identifier string, def Migration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.defs[identifier]; exists {
		return fmt.Errorf("catalog: register %q: %w", identifier, ErrDuplicateVersion)
	}
	c.defs[identifier] = def
	return nil
}

// MustRegister is Register for init-time use; it panics on error.
func (c *Catalog) MustRegister(identifier string, def Migration) {
	if err := c.Register(identifier, def); err != nil {
		panic(err)
	}
}

// Identifiers returns all registered identifiers in unspecified order.
func (c *Catalog) Identifiers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.defs))
	for id := range c.defs {
		ids = append(ids, id)
	}
	return ids
}

// CreateMigration implements Factory.
func (c *Catalog) CreateMigration(identifier string) (Migration, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.defs[identifier]
	if !ok {
		return nil, fmt.Errorf("catalog: %q: %w", identifier, ErrMigrationNotFound)
	}
	return def, nil
}

// DefaultCatalog is the global catalog that package-level registration
// helpers write to.
var DefaultCatalog = NewCatalog()

// MustRegister adds a definition to DefaultCatalog, panicking on a
// duplicate identifier. Intended for init functions.
func MustRegister(identifier string, def Migration) {
	DefaultCatalog.MustRegister(identifier, def)
}
