package migration

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoriesChain(t *testing.T) {
	first := NewCatalog()
	first.MustRegister("a", noopMigration{desc: "from first"})
	second := NewCatalog()
	second.MustRegister("a", noopMigration{desc: "from second"})
	second.MustRegister("b", noopMigration{desc: "only second"})

	f := Factories(first, second)

	got, err := f.CreateMigration("a")
	require.NoError(t, err)
	assert.Equal(t, "from first", got.Description(), "first factory wins")

	got, err = f.CreateMigration("b")
	require.NoError(t, err)
	assert.Equal(t, "only second", got.Description())

	_, err = f.CreateMigration("c")
	require.ErrorIs(t, err, ErrMigrationNotFound)
}

type failingFactory struct{ err error }

func (f failingFactory) CreateMigration(string) (Migration, error) { return nil, f.err }

func TestFactoriesStopOnRealError(t *testing.T) {
	boom := errors.New("io failure")
	healthy := NewCatalog()
	healthy.MustRegister("a", noopMigration{})

	f := Factories(failingFactory{err: boom}, healthy)

	_, err := f.CreateMigration("a")
	require.ErrorIs(t, err, boom)
}
