package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersion(t *testing.T) {
	tests := []struct {
		identifier string
		namespace  string
		name       string
	}{
		{"core/20240101_000000_init", "core", "20240101_000000_init"},
		{"billing/v2/001_seed", "billing/v2", "001_seed"},
		{"20240101_000000_init", "", "20240101_000000_init"},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.identifier, func(t *testing.T) {
			v := NewVersion(tt.identifier)
			assert.Equal(t, tt.identifier, v.String())
			assert.Equal(t, tt.namespace, v.Namespace())
			assert.Equal(t, tt.name, v.Name())
		})
	}
}

func TestVersionEqual(t *testing.T) {
	assert.True(t, NewVersion("a/1").Equal(NewVersion("a/1")))
	assert.False(t, NewVersion("a/1").Equal(NewVersion("a/2")))
}
