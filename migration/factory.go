package migration

import (
	"errors"
	"fmt"
)

type multiFactory []Factory

// Factories combines several factories into one. CreateMigration asks each
// factory in order and moves on when one reports ErrMigrationNotFound;
// any other error stops the chain.
func Factories(factories ...Factory) Factory {
	return multiFactory(factories)
}

func (m multiFactory) CreateMigration(identifier string) (Migration, error) {
	for _, f := range m {
		def, err := f.CreateMigration(identifier)
		if err == nil {
			return def, nil
		}
		if !errors.Is(err, ErrMigrationNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%q: %w", identifier, ErrMigrationNotFound)
}
