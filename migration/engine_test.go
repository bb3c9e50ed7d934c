package migration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	r, err := NewRegistry(nil, &stubFactory{}, CompareByName,
		WithMigrations("core/001", "core/002", "core/003"))
	require.NoError(t, err)
	return NewEngine(nil, "", r)
}

func applied(versions ...string) map[string]MigrationRecord {
	m := make(map[string]MigrationRecord, len(versions))
	for _, v := range versions {
		m[v] = MigrationRecord{Version: v, AppliedAt: time.Now().UTC()}
	}
	return m
}

func TestPlanExecution(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name    string
		dir     Direction
		target  string
		applied map[string]MigrationRecord
		want    []string
	}{
		{
			name:    "up from scratch",
			dir:     DirectionUp,
			applied: applied(),
			want:    []string{"core/001", "core/002", "core/003"},
		},
		{
			name:    "up skips applied",
			dir:     DirectionUp,
			applied: applied("core/001"),
			want:    []string{"core/002", "core/003"},
		},
		{
			name:    "up stops at target",
			dir:     DirectionUp,
			target:  "core/002",
			applied: applied(),
			want:    []string{"core/001", "core/002"},
		},
		{
			name:    "down reverses applied",
			dir:     DirectionDown,
			applied: applied("core/001", "core/002"),
			want:    []string{"core/002", "core/001"},
		},
		{
			name:    "down stops at target",
			dir:     DirectionDown,
			target:  "core/002",
			applied: applied("core/001", "core/002", "core/003"),
			want:    []string{"core/003", "core/002"},
		},
		{
			name:    "down with nothing applied",
			dir:     DirectionDown,
			applied: applied(),
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := e.planExecution(tt.dir, tt.target, tt.applied)
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan)
		})
	}
}

func TestPlanExecutionPropagatesLoadError(t *testing.T) {
	factory := &stubFactory{missing: map[string]bool{"core/broken": true}}
	finder := &stubFinder{byPath: map[string][]string{"/m": {"broken"}}}

	r, err := NewRegistry(finder, factory, CompareByName, WithDirectory("core", "/m"))
	require.NoError(t, err)

	e := NewEngine(nil, "", r)
	_, err = e.planExecution(DirectionUp, "", applied())
	require.ErrorIs(t, err, ErrMigrationNotFound)
}

func TestChecksum(t *testing.T) {
	e := newTestEngine(t)
	m, err := e.registry.Get(NewVersion("core/001"))
	require.NoError(t, err)

	rec := e.newRecord(m)
	assert.Equal(t, "core/001", rec.Version)
	require.NoError(t, e.validateChecksum(m, rec))

	rec.Checksum = "tampered"
	err = e.validateChecksum(m, rec)
	require.ErrorContains(t, err, "checksum mismatch")
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "up", DirectionUp.String())
	assert.Equal(t, "down", DirectionDown.String())
	assert.Equal(t, "unknown", Direction(42).String())
}
