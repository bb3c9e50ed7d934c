package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogRegisterAndCreate(t *testing.T) {
	c := NewCatalog()
	def := noopMigration{desc: "create users"}

	require.NoError(t, c.Register("core/001_users", def))

	got, err := c.CreateMigration("core/001_users")
	require.NoError(t, err)
	assert.Equal(t, "create users", got.Description())

	assert.Equal(t, []string{"core/001_users"}, c.Identifiers())
}

func TestCatalogDuplicate(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Register("core/001", noopMigration{}))

	err := c.Register("core/001", noopMigration{})
	require.ErrorIs(t, err, ErrDuplicateVersion)
}

func TestCatalogMissing(t *testing.T) {
	c := NewCatalog()
	_, err := c.CreateMigration("nope")
	require.ErrorIs(t, err, ErrMigrationNotFound)
}

func TestCatalogMustRegisterPanics(t *testing.T) {
	c := NewCatalog()
	c.MustRegister("core/001", noopMigration{})
	assert.Panics(t, func() {
		c.MustRegister("core/001", noopMigration{})
	})
}
