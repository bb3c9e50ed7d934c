// Package mcp exposes the migration toolkit over the Model Context
// Protocol, so agent tooling can inspect and drive migrations without a
// terminal session.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"github.com/docteurklein/migrations/internal/config"
	"github.com/docteurklein/migrations/migration"
)

type Server struct {
	mu        sync.Mutex
	mcpServer *mcp.Server
	registry  *migration.Registry
	engine    *migration.Engine
	client    *mongo.Client
	config    *config.Config
	cancel    context.CancelFunc
	logger    *zap.Logger
}

func NewServer(cfg *config.Config, registry *migration.Registry, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if logger == nil {
		logger = zap.L()
	}

	s := mcp.NewServer(&mcp.Implementation{
		Name:    "migrations",
		Version: "1.0.0",
	}, nil)

	srv := &Server{
		mcpServer: s,
		registry:  registry,
		config:    cfg,
		logger:    logger,
	}

	srv.registerTools()
	return srv, nil
}

func (s *Server) ensureConnection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		if err := s.client.Ping(ctx, nil); err == nil {
			return nil
		}
	}

	opts := options.Client().
		ApplyURI(s.config.GetConnectionString()).
		SetMaxPoolSize(uint64(s.config.MaxPoolSize)).
		SetMinPoolSize(uint64(s.config.MinPoolSize)).
		SetConnectTimeout(time.Duration(s.config.Timeout) * time.Second)

	client, err := mongo.Connect(opts)
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	s.client = client
	db := client.Database(s.config.Database)
	s.engine = migration.NewEngine(db, s.config.MigrationsCollection, s.registry)

	s.logger.Info("connected to mongodb", zap.String("database", s.config.Database))
	return nil
}

// Start serves the MCP protocol on stdio until interrupted.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		stop()
		return fmt.Errorf("mcp server already running")
	}
	s.cancel = stop
	s.mu.Unlock()

	defer func() {
		stop()
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
	}()

	s.logger.Info("starting mcp server")
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	return s.mcpServer.Run(ctx, &mcp.IOTransport{
		Reader: io.NopCloser(r),
		Writer: nopWriteCloser{Writer: w},
	})
}

func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	client := s.client
	s.client = nil
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	var errs []error
	if client != nil {
		if err := client.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to disconnect mongo client: %w", err))
		}
	}

	return errors.Join(errs...)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
