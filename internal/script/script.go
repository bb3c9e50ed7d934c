// Package script loads migrations from JSON script files. A script names
// its description and the database commands to run for each direction:
//
//	{
//	  "description": "create users collection",
//	  "up":   [{"create": "users"}],
//	  "down": [{"drop": "users"}]
//	}
//
// Command documents are passed to db.RunCommand verbatim, preserving key
// order, since the first key of a MongoDB command document selects the
// command.
package script

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

var validate = validator.New()

type document struct {
	Description string            `json:"description" validate:"required"`
	Up          []json.RawMessage `json:"up" validate:"required,min=1"`
	Down        []json.RawMessage `json:"down"`
}

// Migration is a parsed script, executable through the migration engine.
type Migration struct {
	description string
	up          []bson.D
	down        []bson.D
}

// Parse decodes and validates a raw script.
func Parse(raw []byte) (*Migration, error) {
	var doc document
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}

	up, err := commands(doc.Up)
	if err != nil {
		return nil, fmt.Errorf("up commands: %w", err)
	}
	down, err := commands(doc.Down)
	if err != nil {
		return nil, fmt.Errorf("down commands: %w", err)
	}

	return &Migration{description: doc.Description, up: up, down: down}, nil
}

func (m *Migration) Description() string { return m.description }

func (m *Migration) Up(ctx context.Context, db *mongo.Database) error {
	return runAll(ctx, db, m.up)
}

func (m *Migration) Down(ctx context.Context, db *mongo.Database) error {
	return runAll(ctx, db, m.down)
}

func runAll(ctx context.Context, db *mongo.Database, cmds []bson.D) error {
	for _, cmd := range cmds {
		if err := db.RunCommand(ctx, cmd).Err(); err != nil {
			return fmt.Errorf("command %q: %w", cmd[0].Key, err)
		}
	}
	return nil
}

func commands(raw []json.RawMessage) ([]bson.D, error) {
	cmds := make([]bson.D, 0, len(raw))
	for i, r := range raw {
		res := gjson.ParseBytes(r)
		if !res.IsObject() {
			return nil, fmt.Errorf("command %d: not a JSON object", i)
		}
		d, ok := toBSON(res).(bson.D)
		if !ok || len(d) == 0 {
			return nil, fmt.Errorf("command %d: empty command document", i)
		}
		cmds = append(cmds, d)
	}
	return cmds, nil
}

// toBSON converts a gjson value into the bson equivalent, keeping object
// key order. Whole numbers become int64 so command flags round-trip the
// way the server expects.
func toBSON(res gjson.Result) any {
	switch {
	case res.IsObject():
		d := bson.D{}
		res.ForEach(func(k, v gjson.Result) bool {
			d = append(d, bson.E{Key: k.String(), Value: toBSON(v)})
			return true
		})
		return d
	case res.IsArray():
		values := res.Array()
		a := make(bson.A, 0, len(values))
		for _, v := range values {
			a = append(a, toBSON(v))
		}
		return a
	case res.Type == gjson.Number:
		f := res.Float()
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	case res.Type == gjson.String:
		return res.String()
	case res.Type == gjson.True:
		return true
	case res.Type == gjson.False:
		return false
	default:
		return nil
	}
}
