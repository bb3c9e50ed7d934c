package script

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/docteurklein/migrations/migration"
)

// Source discovers script files under directories and lazily loads them by
// identifier. It implements both migration.Finder and migration.Factory,
// so a single Source can back a registry's directory scanning end to end.
type Source struct {
	mu    sync.Mutex
	files map[string]string // identifier -> file path
}

func NewSource() *Source {
	return &Source{files: make(map[string]string)}
}

// FindMigrations walks path for *.json files and returns their
// identifiers, qualified with namespace. filepath.WalkDir visits entries
// in lexical order, so discovery order is deterministic per directory.
func (s *Source) FindMigrations(path, namespace string) ([]string, error) {
	var identifiers []string

	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}

		id := identifier(namespace, d.Name())
		s.mu.Lock()
		s.files[id] = p
		s.mu.Unlock()

		identifiers = append(identifiers, id)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %q: %w", path, err)
	}

	return identifiers, nil
}

// CreateMigration implements migration.Factory. Only identifiers reported
// by a previous FindMigrations call resolve; everything else is
// ErrMigrationNotFound.
func (s *Source) CreateMigration(id string) (migration.Migration, error) {
	s.mu.Lock()
	path, ok := s.files[id]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("script: %q: %w", id, migration.ErrMigrationNotFound)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: read %q: %w", path, err)
	}

	m, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("script: %q: %w", path, err)
	}
	return m, nil
}

func identifier(namespace, filename string) string {
	stem := strings.TrimSuffix(filename, ".json")
	if namespace == "" {
		return stem
	}
	return namespace + "/" + stem
}
