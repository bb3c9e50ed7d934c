package mcp

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"

	"github.com/docteurklein/migrations/internal/config"
	"github.com/docteurklein/migrations/migration"
)

type fakeMigration struct {
	desc string
}

func (m fakeMigration) Description() string                         { return m.desc }
func (m fakeMigration) Up(context.Context, *mongo.Database) error   { return nil }
func (m fakeMigration) Down(context.Context, *mongo.Database) error { return nil }

func testRegistry(t *testing.T) *migration.Registry {
	t.Helper()

	catalog := migration.NewCatalog()
	catalog.MustRegister("core/20240101_000000_init", fakeMigration{desc: "initial schema"})
	catalog.MustRegister("core/20240102_000000_seed", fakeMigration{desc: "seed data"})

	r, err := migration.NewRegistry(nil, catalog, migration.CompareByTimestamp,
		migration.WithMigrations(
			"core/20240102_000000_seed",
			"core/20240101_000000_init",
		))
	require.NoError(t, err)
	return r
}

func TestNewServerValidation(t *testing.T) {
	registry := testRegistry(t)

	_, err := NewServer(nil, registry, zap.NewNop())
	require.Error(t, err)

	_, err = NewServer(&config.Config{}, nil, zap.NewNop())
	require.Error(t, err)

	srv, err := NewServer(&config.Config{}, registry, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, srv)
}

func TestHandleListNeedsNoConnection(t *testing.T) {
	srv, err := NewServer(&config.Config{}, testRegistry(t), zap.NewNop())
	require.NoError(t, err)

	res, out, err := srv.handleList(context.Background(), nil, emptyArgs{})
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Contains(t, out.Message, "core/20240101_000000_init")
	assert.Contains(t, out.Message, "initial schema")

	// Comparator order, not registration order.
	initIdx := strings.Index(out.Message, "core/20240101_000000_init")
	seedIdx := strings.Index(out.Message, "core/20240102_000000_seed")
	assert.Less(t, initIdx, seedIdx)
}

func TestFormatStatusTable(t *testing.T) {
	assert.Equal(t, "No migrations found.", formatStatusTable(nil))

	at := time.Now().Add(-2 * time.Hour)
	out := formatStatusTable([]migration.MigrationStatus{
		{Version: "core/001", Description: "first", Applied: true, AppliedAt: &at},
		{Version: "core/002", Description: "second"},
	})

	assert.Contains(t, out, "[✓]")
	assert.Contains(t, out, "[ ]")
	assert.Contains(t, out, "core/001")
	assert.Contains(t, out, "2 hours ago")
}
