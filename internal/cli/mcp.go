package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/docteurklein/migrations/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve migration tools over the Model Context Protocol on stdio",
		RunE:  runMCP,
	}
}

func runMCP(cmd *cobra.Command, _ []string) error {
	cfg, err := getConfig(cmd.Context())
	if err != nil {
		return err
	}
	registry, err := getRegistry(cmd.Context())
	if err != nil {
		return err
	}

	srv, err := mcp.NewServer(cfg, registry, zap.L())
	if err != nil {
		return fmt.Errorf("mcp server init: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Close(ctx); err != nil {
			zap.S().Warnw("mcp server close", "error", err)
		}
	}()

	return srv.Start()
}
