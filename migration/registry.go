package migration

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Directory is a namespace bound to a filesystem path that the registry
// scans for migrations on first use.
type Directory struct {
	Namespace string
	Path      string
}

// Registry collects migrations from an explicit identifier list and from
// lazily scanned directories, rejects duplicate versions, and yields a
// stably sorted view in comparator order.
//
// Directory scanning runs at most once per instance, triggered by the
// first call to Has, Get or Migrations. If the scan fails, the error is
// recorded and returned by every subsequent read; the scan is never
// retried. Callers that need a fully populated registry must build a
// fresh one and validate it before sharing it.
//
// All methods are safe for concurrent use.
type Registry struct {
	finder  Finder
	factory Factory
	cmp     Comparator
	dirs    []Directory

	mu        sync.Mutex
	byVersion map[string]AvailableMigration
	ordered   []AvailableMigration
	sorted    bool

	loadOnce sync.Once
	loadErr  error
}

// RegistryOption configures a Registry at construction time.
type RegistryOption func(*Registry) error //nolint:revive // RegistryOption is clearer than Option at call sites

// WithMigrations registers the given identifiers eagerly, in order, during
// NewRegistry. A failing identifier aborts construction.
func WithMigrations(identifiers ...string) RegistryOption {
	return func(r *Registry) error {
		for _, id := range identifiers {
			if _, err := r.Register(id); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithDirectory adds a directory to scan on first read. Directories are
// scanned in the order the options are given.
func WithDirectory(namespace, path string) RegistryOption {
	return func(r *Registry) error {
		r.dirs = append(r.dirs, Directory{Namespace: namespace, Path: path})
		return nil
	}
}

// NewRegistry builds a registry over the given collaborators. The finder
// may be nil when no directories are configured.
func NewRegistry(finder Finder, factory Factory, cmp Comparator, opts ...RegistryOption) (*Registry, error) {
	if factory == nil {
		return nil, errors.New("migration: factory is required")
	}
	if cmp == nil {
		return nil, errors.New("migration: comparator is required")
	}

	r := &Registry{
		finder:    finder,
		factory:   factory,
		cmp:       cmp,
		byVersion: make(map[string]AvailableMigration),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if len(r.dirs) > 0 && r.finder == nil {
		return nil, errors.New("migration: a finder is required when directories are configured")
	}
	return r, nil
}

// Register resolves identifier through the factory and inserts the
// resulting migration. It fails with ErrMigrationNotFound when the
// identifier does not resolve and with ErrDuplicateVersion when the
// version is already present.
func (r *Registry) Register(identifier string) (AvailableMigration, error) {
	def, err := r.factory.CreateMigration(identifier)
	if err != nil {
		if !errors.Is(err, ErrMigrationNotFound) {
			err = fmt.Errorf("%w: %v", ErrMigrationNotFound, err)
		}
		return AvailableMigration{}, fmt.Errorf("register %q: %w", identifier, err)
	}

	am := AvailableMigration{Version: NewVersion(identifier), Migration: def}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := am.Version.String()
	if _, exists := r.byVersion[key]; exists {
		return AvailableMigration{}, fmt.Errorf("register %q: %w", identifier, ErrDuplicateVersion)
	}
	r.byVersion[key] = am
	r.ordered = append(r.ordered, am)
	if r.sorted {
		// Late registrations keep the collection in comparator order.
		r.sortLocked()
	}
	return am, nil
}

// Has reports whether a migration with the given version string is
// registered. A missing version is reported as false, never as an error.
func (r *Registry) Has(version string) (bool, error) {
	if err := r.load(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byVersion[version]
	return ok, nil
}

// Get returns the migration registered under the given version, or an
// error wrapping ErrMigrationNotFound when it is absent.
func (r *Registry) Get(version Version) (AvailableMigration, error) {
	if err := r.load(); err != nil {
		return AvailableMigration{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	am, ok := r.byVersion[version.String()]
	if !ok {
		return AvailableMigration{}, fmt.Errorf("get %q: %w", version.String(), ErrMigrationNotFound)
	}
	return am, nil
}

// Migrations returns a snapshot of all registered migrations in comparator
// order. Entries the comparator treats as equal keep their registration
// order.
func (r *Registry) Migrations() ([]AvailableMigration, error) {
	if err := r.load(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.ordered), nil
}

func (r *Registry) load() error {
	r.loadOnce.Do(func() {
		r.loadErr = r.scan()
	})
	return r.loadErr
}

func (r *Registry) scan() error {
	for _, dir := range r.dirs {
		identifiers, err := r.finder.FindMigrations(dir.Path, dir.Namespace)
		if err != nil {
			return fmt.Errorf("scan directory %q (namespace %q): %w", dir.Path, dir.Namespace, err)
		}
		zap.S().Debugw("discovered migrations",
			"namespace", dir.Namespace, "path", dir.Path, "count", len(identifiers))

		for _, id := range identifiers {
			if _, err := r.Register(id); err != nil {
				return err
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sortLocked()
	r.sorted = true
	return nil
}

func (r *Registry) sortLocked() {
	slices.SortStableFunc(r.ordered, func(a, b AvailableMigration) int {
		return r.cmp.Compare(a.Version, b.Version)
	})
}
