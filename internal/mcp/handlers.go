package mcp

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docteurklein/migrations/internal/jsonutil"
	"github.com/docteurklein/migrations/migration"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "migration_status",
		Description: "Check applied and pending migrations.",
	}, s.handleStatus)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "migration_list",
		Description: "List all known migrations in execution order, as JSON.",
	}, s.handleList)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "migration_plan",
		Description: "Preview which migrations would run, without executing them.",
	}, s.handlePlan)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "migration_up",
		Description: "Apply pending migrations.",
	}, s.handleUp)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "migration_down",
		Description: "Roll back migrations.",
	}, s.handleDown)
}

func newMessageResult(text string) (*mcp.CallToolResult, messageOutput) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, messageOutput{Message: text}
}

func (s *Server) handleStatus(
	ctx context.Context, _ *mcp.CallToolRequest, _ emptyArgs,
) (*mcp.CallToolResult, messageOutput, error) {
	if err := s.ensureConnection(ctx); err != nil {
		return nil, messageOutput{}, err
	}
	status, err := s.engine.GetStatus(ctx)
	if err != nil {
		return nil, messageOutput{}, err
	}
	res, out := newMessageResult(formatStatusTable(status))
	return res, out, nil
}

func (s *Server) handleList(
	_ context.Context, _ *mcp.CallToolRequest, _ emptyArgs,
) (*mcp.CallToolResult, messageOutput, error) {
	migrations, err := s.registry.Migrations()
	if err != nil {
		return nil, messageOutput{}, err
	}

	type entry struct {
		Version     string `json:"version"`
		Namespace   string `json:"namespace,omitempty"`
		Description string `json:"description"`
	}
	entries := make([]entry, len(migrations))
	for i, m := range migrations {
		entries[i] = entry{
			Version:     m.Version.String(),
			Namespace:   m.Version.Namespace(),
			Description: m.Migration.Description(),
		}
	}

	raw, err := jsonutil.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, messageOutput{}, err
	}
	res, out := newMessageResult(string(raw))
	return res, out, nil
}

func (s *Server) handlePlan(
	ctx context.Context, _ *mcp.CallToolRequest, args planArgs,
) (*mcp.CallToolResult, messageOutput, error) {
	if err := s.ensureConnection(ctx); err != nil {
		return nil, messageOutput{}, err
	}

	dir := migration.DirectionUp
	if strings.EqualFold(args.Direction, "down") {
		dir = migration.DirectionDown
	}

	plan, err := s.engine.Plan(ctx, dir, args.Version)
	if err != nil {
		return nil, messageOutput{}, err
	}

	if len(plan) == 0 {
		res, out := newMessageResult("Nothing to do.")
		return res, out, nil
	}
	res, out := newMessageResult(fmt.Sprintf("Would run (%s):\n- %s", dir, strings.Join(plan, "\n- ")))
	return res, out, nil
}

func (s *Server) handleUp(
	ctx context.Context, _ *mcp.CallToolRequest, args versionArgs,
) (*mcp.CallToolResult, messageOutput, error) {
	if err := s.ensureConnection(ctx); err != nil {
		return nil, messageOutput{}, err
	}
	if err := s.engine.Up(ctx, args.Version); err != nil {
		return nil, messageOutput{}, fmt.Errorf("migration up failed: %w", err)
	}
	res, out := newMessageResult("✅ Migrations applied successfully.")
	return res, out, nil
}

func (s *Server) handleDown(
	ctx context.Context, _ *mcp.CallToolRequest, args versionArgs,
) (*mcp.CallToolResult, messageOutput, error) {
	if err := s.ensureConnection(ctx); err != nil {
		return nil, messageOutput{}, err
	}
	if err := s.engine.Down(ctx, args.Version); err != nil {
		return nil, messageOutput{}, fmt.Errorf("migration down failed: %w", err)
	}
	res, out := newMessageResult("✅ Rollback completed successfully.")
	return res, out, nil
}

func formatStatusTable(status []migration.MigrationStatus) string {
	if len(status) == 0 {
		return "No migrations found."
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATE\tVERSION\tAPPLIED\tDESCRIPTION")

	for _, s := range status {
		state := "[ ]"
		applied := "-"
		if s.Applied {
			state = "[✓]"
			if s.AppliedAt != nil {
				applied = humanize.Time(*s.AppliedAt)
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", state, s.Version, applied, s.Description)
	}
	tw.Flush()
	return buf.String()
}
