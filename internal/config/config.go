package config

import (
	"fmt"
	"net/url"
	"os"
	"sort"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/docteurklein/migrations/migration"
)

// Config carries everything the toolkit needs to reach MongoDB and to
// locate migrations. Values come from the environment, optionally seeded
// from .env files.
type Config struct {
	MongoURL             string `env:"MONGO_URL" envDefault:"mongodb://localhost:27017" validate:"required,url"`
	Database             string `env:"MONGO_DATABASE" validate:"required"`
	MigrationsCollection string `env:"MIGRATIONS_COLLECTION" envDefault:"schema_migrations"`

	// MigrationDirs maps namespaces to script directories,
	// e.g. MIGRATIONS_DIRS="core=./migrations/core,billing=./migrations/billing".
	MigrationDirs map[string]string `env:"MIGRATIONS_DIRS" envSeparator:"," envKeyValSeparator:"="`

	// Migrations lists identifiers to register eagerly, on top of whatever
	// the directories contain.
	Migrations []string `env:"MIGRATIONS" envSeparator:","`

	Timeout     int  `env:"MONGO_TIMEOUT" envDefault:"30" validate:"gt=0"`
	MaxPoolSize int  `env:"MONGO_MAX_POOL_SIZE" envDefault:"10" validate:"gt=0"`
	MinPoolSize int  `env:"MONGO_MIN_POOL_SIZE" envDefault:"1" validate:"gte=0"`
	SSLEnabled  bool `env:"MONGO_SSL" envDefault:"false"`
	SSLInsecure bool `env:"MONGO_SSL_INSECURE" envDefault:"false"`
}

var validate = validator.New()

// Load reads the given .env files (missing files are fine), then parses
// and validates the environment.
func Load(dotenvFiles ...string) (*Config, error) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) GetConnectionString() string { return c.MongoURL }

// Directories returns the configured script directories sorted by
// namespace, so scan order stays stable across runs regardless of map
// iteration order.
func (c *Config) Directories() []migration.Directory {
	namespaces := make([]string, 0, len(c.MigrationDirs))
	for ns := range c.MigrationDirs {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	dirs := make([]migration.Directory, 0, len(namespaces))
	for _, ns := range namespaces {
		dirs = append(dirs, migration.Directory{Namespace: ns, Path: c.MigrationDirs[ns]})
	}
	return dirs
}

// Redacted returns the config as a map with credentials masked, suitable
// for logging.
func (c *Config) Redacted() map[string]any {
	return map[string]any{
		"mongo_url":             maskURL(c.MongoURL),
		"database":              c.Database,
		"migrations_collection": c.MigrationsCollection,
		"migration_dirs":        c.MigrationDirs,
		"migrations":            c.Migrations,
		"timeout":               c.Timeout,
		"max_pool_size":         c.MaxPoolSize,
		"min_pool_size":         c.MinPoolSize,
		"ssl_enabled":           c.SSLEnabled,
		"ssl_insecure":          c.SSLInsecure,
	}
}

func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), "****")
	}
	return u.String()
}
