package migration

import (
	"context"
	"crypto/sha256"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

const (
	defaultLockID  = "migration_engine_lock"
	collLock       = "migrations_lock"
	collMigrations = "schema_migrations"
)

// Engine applies and rolls back the migrations a Registry holds, tracking
// applied versions in a collection. Execution order is the registry's
// comparator order.
type Engine struct {
	db       *mongo.Database
	registry *Registry
	coll     string
}

func NewEngine(db *mongo.Database, migrationsCollection string, registry *Registry) *Engine {
	if migrationsCollection == "" {
		migrationsCollection = collMigrations
	}
	return &Engine{
		db:       db,
		registry: registry,
		coll:     migrationsCollection,
	}
}

func (e *Engine) GetStatus(ctx context.Context) ([]MigrationStatus, error) {
	migrations, err := e.registry.Migrations()
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}

	applied, err := e.getAppliedMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("read applied migrations: %w", err)
	}

	status := make([]MigrationStatus, len(migrations))
	for i, m := range migrations {
		version := m.Version.String()
		rec, isApplied := applied[version]
		status[i] = MigrationStatus{
			Version:     version,
			Description: m.Migration.Description(),
			Applied:     isApplied,
		}
		if isApplied {
			status[i].AppliedAt = &rec.AppliedAt
		}
	}

	return status, nil
}

func (e *Engine) Up(ctx context.Context, target string) error {
	return e.run(ctx, DirectionUp, target)
}

func (e *Engine) Down(ctx context.Context, target string) error {
	return e.run(ctx, DirectionDown, target)
}

// Force marks a migration as applied without executing it.
func (e *Engine) Force(ctx context.Context, version string) error {
	m, err := e.registry.Get(NewVersion(version))
	if err != nil {
		return err
	}

	applied, err := e.getAppliedMap(ctx)
	if err != nil {
		return fmt.Errorf("read applied migrations: %w", err)
	}

	if _, isApplied := applied[version]; isApplied {
		// Already applied, nothing to do.
		return nil
	}

	coll := e.db.Collection(e.coll)
	if _, err := coll.InsertOne(ctx, e.newRecord(m)); err != nil {
		return fmt.Errorf("record version %s: %w", version, err)
	}
	return nil
}

// Plan returns the versions run would execute, in execution order.
func (e *Engine) Plan(ctx context.Context, dir Direction, target string) ([]string, error) {
	applied, err := e.getAppliedMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("plan migrations: %w", err)
	}
	return e.planExecution(dir, target, applied)
}

func (e *Engine) run(ctx context.Context, dir Direction, target string) error {
	if err := e.acquireLock(ctx); err != nil {
		return err
	}
	defer e.releaseLock(context.Background())

	applied, err := e.getAppliedMap(ctx)
	if err != nil {
		return err
	}

	plan, err := e.planExecution(dir, target, applied)
	if err != nil {
		return err
	}

	for _, version := range plan {
		m, err := e.registry.Get(NewVersion(version))
		if err != nil {
			return err
		}

		if dir == DirectionUp {
			if rec, ok := applied[version]; ok {
				if err := e.validateChecksum(m, rec); err != nil {
					return err
				}
			}
		}

		zap.S().Infow("executing migration", "version", version, "direction", dir.String())
		start := time.Now()
		if err := e.perform(ctx, m, dir); err != nil {
			return fmt.Errorf("run migration %s: %w", version, err)
		}
		zap.S().Infow("migration finished", "version", version, "elapsed", time.Since(start))
	}

	return nil
}

func (e *Engine) planExecution(dir Direction, target string, applied map[string]MigrationRecord) ([]string, error) {
	migrations, err := e.registry.Migrations()
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}

	versions := make([]string, len(migrations))
	for i, m := range migrations {
		versions[i] = m.Version.String()
	}
	if dir == DirectionDown {
		slices.Reverse(versions)
	}

	var plan []string
	for _, v := range versions {
		_, isApplied := applied[v]

		if dir == DirectionUp && !isApplied {
			plan = append(plan, v)
		} else if dir == DirectionDown && isApplied {
			plan = append(plan, v)
		}

		if target != "" && v == target {
			break
		}
	}
	return plan, nil
}

func (e *Engine) perform(ctx context.Context, m AvailableMigration, dir Direction) error {
	coll := e.db.Collection(e.coll)
	version := m.Version.String()

	if dir == DirectionUp {
		if err := m.Migration.Up(ctx, e.db); err != nil {
			return err
		}
		_, err := coll.InsertOne(ctx, e.newRecord(m))
		return err
	}

	if err := m.Migration.Down(ctx, e.db); err != nil {
		return err
	}
	_, err := coll.DeleteOne(ctx, bson.M{"version": version})
	return err
}

func (e *Engine) getAppliedMap(ctx context.Context) (map[string]MigrationRecord, error) {
	coll := e.db.Collection(e.coll)
	cursor, err := coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"version": 1}))
	if err != nil {
		return nil, err
	}

	var records []MigrationRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}

	applied := make(map[string]MigrationRecord, len(records))
	for _, r := range records {
		applied[r.Version] = r
	}
	return applied, nil
}

func (e *Engine) validateChecksum(m AvailableMigration, record MigrationRecord) error {
	if record.Checksum != e.calculateChecksum(m) {
		return fmt.Errorf(
			"checksum mismatch for %s: expected %s, got %s",
			m.Version.String(), record.Checksum, e.calculateChecksum(m),
		)
	}
	return nil
}

func (e *Engine) calculateChecksum(m AvailableMigration) string {
	data := fmt.Sprintf("%s:%s", m.Version.String(), m.Migration.Description())
	return fmt.Sprintf("%x", sha256.Sum256([]byte(data)))
}

func (e *Engine) newRecord(m AvailableMigration) MigrationRecord {
	return MigrationRecord{
		Version:     m.Version.String(),
		Description: m.Migration.Description(),
		AppliedAt:   time.Now().UTC(),
		Checksum:    e.calculateChecksum(m),
	}
}

func (e *Engine) acquireLock(ctx context.Context) error {
	coll := e.db.Collection(collLock)

	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "acquired_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(600),
	})
	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "lock_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	_, err := coll.InsertOne(ctx, bson.M{
		"lock_id":     defaultLockID,
		"acquired_at": time.Now().UTC(),
	})

	if mongo.IsDuplicateKeyError(err) {
		return ErrFailedToLock
	}
	return err
}

func (e *Engine) releaseLock(ctx context.Context) {
	coll := e.db.Collection(collLock)
	_, _ = coll.DeleteOne(ctx, bson.M{"lock_id": defaultLockID})
}

func (e *Engine) ForceUnlock(ctx context.Context) error {
	coll := e.db.Collection(collLock)
	_, err := coll.DeleteMany(ctx, bson.M{"lock_id": defaultLockID})
	return err
}
