package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestParse(t *testing.T) {
	raw := []byte(`{
		"description": "create users collection",
		"up": [
			{"create": "users"},
			{"createIndexes": "users", "indexes": [{"key": {"email": 1}, "name": "idx_users_email", "unique": true}]}
		],
		"down": [{"drop": "users"}]
	}`)

	m, err := Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "create users collection", m.Description())
	require.Len(t, m.up, 2)
	require.Len(t, m.down, 1)

	// The command name must stay the first key of the document.
	assert.Equal(t, "create", m.up[0][0].Key)
	assert.Equal(t, "createIndexes", m.up[1][0].Key)
	assert.Equal(t, "drop", m.down[0][0].Key)
}

func TestParseKeepsKeyOrder(t *testing.T) {
	raw := []byte(`{
		"description": "ordered",
		"up": [{"createIndexes": "users", "indexes": []}]
	}`)

	m, err := Parse(raw)
	require.NoError(t, err)

	cmd := m.up[0]
	require.Len(t, cmd, 2)
	assert.Equal(t, "createIndexes", cmd[0].Key)
	assert.Equal(t, "indexes", cmd[1].Key)
}

func TestParseNumberConversion(t *testing.T) {
	raw := []byte(`{
		"description": "numbers",
		"up": [{"collMod": "users", "size": 1024, "ratio": 0.5}]
	}`)

	m, err := Parse(raw)
	require.NoError(t, err)

	cmd := m.up[0]
	assert.Equal(t, int64(1024), cmd[1].Value)
	assert.Equal(t, 0.5, cmd[2].Value)
}

func TestParseNestedValues(t *testing.T) {
	raw := []byte(`{
		"description": "nested",
		"up": [{"createIndexes": "users", "indexes": [{"key": {"email": 1}, "unique": true, "comment": null}]}]
	}`)

	m, err := Parse(raw)
	require.NoError(t, err)

	indexes, ok := m.up[0][1].Value.(bson.A)
	require.True(t, ok)
	require.Len(t, indexes, 1)

	idx, ok := indexes[0].(bson.D)
	require.True(t, ok)
	assert.Equal(t, "key", idx[0].Key)

	key, ok := idx[0].Value.(bson.D)
	require.True(t, ok)
	assert.Equal(t, bson.D{{Key: "email", Value: int64(1)}}, key)
	assert.Equal(t, true, idx[1].Value)
	assert.Nil(t, idx[2].Value)
}

func TestParseRejections(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{`},
		{"missing description", `{"up": [{"create": "users"}]}`},
		{"missing up", `{"description": "x"}`},
		{"empty up", `{"description": "x", "up": []}`},
		{"command not an object", `{"description": "x", "up": ["create users"]}`},
		{"empty command", `{"description": "x", "up": [{}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			require.Error(t, err)
		})
	}
}
