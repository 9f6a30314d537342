package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/brandlens/internal/dashboard"
	"github.com/kalambet/brandlens/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store     *storage.Store
	Dashboard *dashboard.Service
	Runner    ObjectiveRunner
}

// NewMCPServer creates an MCP server exposing the evaluation pipeline
// as tools: agents can run objectives and read dashboard aggregates.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"brandlens",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("brandlens — run competitive-positioning evaluations against LLM backends and inspect the results."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("run_objective",
			mcp.WithDescription("Execute an evaluation objective against its configured LLM models and return the created evaluation rows."),
			mcp.WithString("objective_id", mcp.Description("ID of the objective to run"), mcp.Required()),
		),
		mcpRunObjective(deps),
	)

	s.AddTool(
		mcp.NewTool("list_partners",
			mcp.WithDescription("List configured partners, optionally filtered by a case-insensitive name search."),
			mcp.WithString("search", mcp.Description("Substring to match against partner names")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
		),
		mcpListPartners(deps),
	)

	s.AddTool(
		mcp.NewTool("dashboard_stats",
			mcp.WithDescription("Return headline dashboard numbers: partner/objective/evaluation counts and the mention success rate."),
		),
		mcpDashboardStats(deps),
	)

	s.AddTool(
		mcp.NewTool("recent_evaluations",
			mcp.WithDescription("Return the most recently evaluated objectives with completion counts and average scores."),
			mcp.WithNumber("limit", mcp.Description("Maximum number of objectives (default 5)")),
		),
		mcpRecentEvaluations(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"brandlens://dashboard/stats",
			"Dashboard Statistics",
			mcp.WithResourceDescription("Current dashboard statistics as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceStats(deps),
	)

	return s
}

func mcpRunObjective(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		objectiveID, err := req.RequireString("objective_id")
		if err != nil {
			return mcpError("objective_id is required"), nil
		}

		evals, err := deps.Runner.Run(ctx, objectiveID)
		if errors.Is(err, storage.ErrNotFound) {
			return mcpError(fmt.Sprintf("objective %s not found", objectiveID)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("run failed: %v", err)), nil
		}

		views := make([]evaluationView, len(evals))
		for i, e := range evals {
			views[i] = toEvaluationView(e)
		}
		b, err := json.Marshal(views)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal evaluations: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpListPartners(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		search := req.GetString("search", "")
		limit := req.GetInt("limit", 20)
		if limit <= 0 {
			limit = 20
		}
		if limit > 100 {
			limit = 100
		}

		partners, err := deps.Store.ListPartners(storage.PartnerFilters{Search: search}, limit, 0)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list partners: %v", err)), nil
		}

		if len(partners) == 0 {
			return mcpText("[]"), nil
		}

		views := make([]partnerView, len(partners))
		for i, p := range partners {
			views[i] = toPartnerView(p)
		}
		b, err := json.Marshal(views)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal partners: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpDashboardStats(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := deps.Dashboard.Stats()
		if err != nil {
			return mcpError(fmt.Sprintf("failed to compute stats: %v", err)), nil
		}
		b, err := json.Marshal(stats)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal stats: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpRecentEvaluations(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", 5)
		if limit <= 0 {
			limit = 5
		}
		if limit > 50 {
			limit = 50
		}

		recent, err := deps.Dashboard.RecentEvaluations(limit)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to fetch recent evaluations: %v", err)), nil
		}
		if len(recent) == 0 {
			return mcpText("[]"), nil
		}
		b, err := json.Marshal(recent)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal recent evaluations: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceStats(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		stats, err := deps.Dashboard.Stats()
		if err != nil {
			return nil, fmt.Errorf("failed to compute stats: %w", err)
		}

		b, err := json.Marshal(stats)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal stats: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
