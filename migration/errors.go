package migration

import "errors"

var (
	// ErrMigrationNotFound is returned when an identifier does not resolve
	// to a loadable definition, or a lookup targets an unregistered version.
	ErrMigrationNotFound = errors.New("migration not found")

	// ErrDuplicateVersion is returned when a second registration is
	// attempted for an already-present version.
	ErrDuplicateVersion = errors.New("duplicate migration version")

	// ErrFailedToLock is returned when the engine cannot acquire the
	// migration lock because another run holds it.
	ErrFailedToLock = errors.New("failed to acquire migration lock: another migration may be in progress")
)
