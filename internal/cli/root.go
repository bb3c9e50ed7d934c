package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/docteurklein/migrations/internal/config"
	"github.com/docteurklein/migrations/internal/jsonutil"
	"github.com/docteurklein/migrations/internal/logging"
	"github.com/docteurklein/migrations/internal/script"
	"github.com/docteurklein/migrations/migration"
)

type contextKey string

const (
	ctxConfigKey   contextKey = "config"
	ctxRegistryKey contextKey = "registry"
)

var (
	configFile string
	debugMode  bool
	logFile    string
	showConfig bool

	appVersion, commit, date = "dev", "none", "unknown"
)

var ErrShowConfigDisplayed = errors.New("configuration displayed")

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "migrations",
		Short:             "Versioned MongoDB migration toolkit",
		Version:           fmt.Sprintf("%s (commit: %s, build date: %s)", appVersion, commit, date),
		PersistentPreRunE: setupDependencies,
		PersistentPostRun: teardown,
		SilenceUsage:      true, // Prevents printing help on execution errors
	}

	pFlags := cmd.PersistentFlags()
	pFlags.StringVarP(&configFile, "config", "c", "", "Path to a .env config file")
	pFlags.BoolVar(&debugMode, "debug", false, "Enable debug logging")
	pFlags.StringVar(&logFile, "log-file", "", "Path to write logs to a file")
	pFlags.BoolVar(&showConfig, "show-config", false, "Print the effective configuration (with secrets masked) and exit")

	cmd.AddCommand(newMCPCmd(), versionCmd)

	return cmd
}

func setupDependencies(cmd *cobra.Command, _ []string) error {
	if _, err := logging.New(debugMode, logFile); err != nil {
		return fmt.Errorf("logger init: %w", err)
	}

	if isOffline(cmd) {
		return nil
	}

	cfg, err := loadConfigFromFlags(configFile)
	if err != nil {
		return err
	}
	if showConfig {
		if err := jsonutil.Encode(cmd.OutOrStdout(), cfg.Redacted()); err != nil {
			return err
		}
		return ErrShowConfigDisplayed
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	ctx := context.WithValue(cmd.Context(), ctxConfigKey, cfg)
	ctx = context.WithValue(ctx, ctxRegistryKey, registry)
	cmd.SetContext(ctx)
	return nil
}

func isOffline(cmd *cobra.Command) bool {
	offlineNames := map[string]bool{"help": true, "version": true, "completion": true}
	return offlineNames[cmd.Name()]
}

// buildRegistry wires the default catalog and the script directories from
// the configuration into one registry. Script files resolve through the
// same source that discovered them.
func buildRegistry(cfg *config.Config) (*migration.Registry, error) {
	source := script.NewSource()
	factory := migration.Factories(migration.DefaultCatalog, source)

	opts := make([]migration.RegistryOption, 0, len(cfg.MigrationDirs)+1)
	if len(cfg.Migrations) > 0 {
		opts = append(opts, migration.WithMigrations(cfg.Migrations...))
	}
	for _, d := range cfg.Directories() {
		opts = append(opts, migration.WithDirectory(d.Namespace, d.Path))
	}

	return migration.NewRegistry(source, factory, migration.CompareByTimestamp, opts...)
}

func loadConfigFromFlags(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("config load failed: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.Load(".env", ".env.local")
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	return cfg, nil
}

func getConfig(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(ctxConfigKey).(*config.Config)
	if !ok {
		return nil, fmt.Errorf("internal error: config not found in context")
	}
	return cfg, nil
}

func getRegistry(ctx context.Context) (*migration.Registry, error) {
	reg, ok := ctx.Value(ctxRegistryKey).(*migration.Registry)
	if !ok {
		return nil, fmt.Errorf("internal error: registry not found in context")
	}
	return reg, nil
}

func teardown(_ *cobra.Command, _ []string) {
	_ = zap.L().Sync()
}

func Execute() error {
	err := newRootCmd().Execute()
	if errors.Is(err, ErrShowConfigDisplayed) {
		return nil
	}
	return err
}
