package migration

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Migration is a single executable unit of database change. The registry
// treats it as opaque; only the engine calls into it.
type Migration interface {
	// Description returns a human-readable description of what this migration does.
	Description() string

	// Up executes the migration, applying changes to the database.
	Up(ctx context.Context, db *mongo.Database) error

	// Down rolls back the migration, undoing changes made by Up.
	Down(ctx context.Context, db *mongo.Database) error
}

// Finder discovers migration identifiers under a directory path.
type Finder interface {
	// FindMigrations returns the identifiers reachable under path, qualified
	// with namespace. Per-call ordering must be deterministic.
	FindMigrations(path, namespace string) ([]string, error)
}

// Factory resolves an identifier to a loaded migration definition.
type Factory interface {
	// CreateMigration returns the definition for identifier, or an error
	// wrapping ErrMigrationNotFound when the identifier does not resolve.
	CreateMigration(identifier string) (Migration, error)
}

// Comparator defines the total order among versions. Compare returns a
// negative value when a sorts before b, zero when they are equal, and a
// positive value when a sorts after b. It must be consistent across
// repeated calls with the same pair.
type Comparator interface {
	Compare(a, b Version) int
}

// ComparatorFunc adapts a plain function to the Comparator interface.
type ComparatorFunc func(a, b Version) int

func (f ComparatorFunc) Compare(a, b Version) int { return f(a, b) }

// MigrationRecord represents a migration record stored in the database.
type MigrationRecord struct { //nolint:revive // MigrationRecord is clearer than Record in this context
	Version     string    `bson:"version"`
	Description string    `bson:"description"`
	AppliedAt   time.Time `bson:"applied_at"`
	Checksum    string    `bson:"checksum,omitempty"`
}

// MigrationStatus shows whether a migration has been applied and when.
type MigrationStatus struct { //nolint:revive // MigrationStatus is clearer than Status in this context
	Version     string     `json:"version"`
	Description string     `json:"description"`
	Applied     bool       `json:"applied"`
	AppliedAt   *time.Time `json:"applied_at,omitempty"`
}

// Direction represents the migration direction (up or down).
type Direction int

const (
	// DirectionUp indicates applying migrations forward
	DirectionUp Direction = iota
	// DirectionDown indicates rolling back migrations
	DirectionDown
)

// String returns a string representation of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	default:
		return "unknown"
	}
}
