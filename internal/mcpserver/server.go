// Package mcpserver exposes BotSee operations as MCP tools over stdio so
// coding agents can drive competitive-intelligence runs directly.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/RivalSee/botsee-skill/internal/api"
	"github.com/RivalSee/botsee-skill/internal/history"
)

// Deps holds what the tool handlers need. History may be nil; recording
// is best-effort.
type Deps struct {
	Client  *api.Client
	History *history.Store
	Version string
}

// New creates an MCP server with all BotSee tools registered.
func New(deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"botsee",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithInstructions("BotSee AI competitive intelligence: sites, analyses, and generated reports."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("account_status",
			mcp.WithDescription("Show the BotSee account's remaining credit balance and site count."),
		),
		mcpAccountStatus(deps),
	)

	s.AddTool(
		mcp.NewTool("list_sites",
			mcp.WithDescription("List all sites registered for analysis."),
		),
		mcpListSites(deps),
	)

	s.AddTool(
		mcp.NewTool("run_analysis",
			mcp.WithDescription("Start a competitive analysis for a site and wait for it to finish."),
			mcp.WithString("site_uuid", mcp.Description("Site UUID to analyze"), mcp.Required()),
		),
		mcpRunAnalysis(deps),
	)

	s.AddTool(
		mcp.NewTool("get_results",
			mcp.WithDescription("Fetch results of a completed analysis."),
			mcp.WithString("analysis_uuid", mcp.Description("Analysis UUID"), mcp.Required()),
			mcp.WithString("kind", mcp.Description("Result kind: competitors, keywords, or sources (default competitors)")),
		),
		mcpGetResults(deps),
	)

	return s
}

func mcpAccountStatus(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		usage, err := deps.Client.Usage(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("fetching usage: %v", err)), nil
		}
		account, err := deps.Client.Account(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("fetching account: %v", err)), nil
		}

		b, err := json.Marshal(map[string]any{
			"balance":    usage.Balance,
			"site_count": account.SiteCount,
			"company":    account.CompanyName,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal status: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpListSites(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sites, err := deps.Client.ListSites(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("listing sites: %v", err)), nil
		}
		if len(sites) == 0 {
			return mcpText("[]"), nil
		}
		b, err := json.Marshal(sites)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal sites: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpRunAnalysis(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		siteUUID, err := req.RequireString("site_uuid")
		if err != nil {
			return mcpError("site_uuid is required"), nil
		}

		analysis, err := deps.Client.StartAnalysis(ctx, siteUUID)
		if err != nil {
			return mcpError(fmt.Sprintf("starting analysis: %v", err)), nil
		}

		if deps.History != nil {
			deps.History.RecordAnalysis(history.AnalysisRecord{
				UUID:      analysis.UUID,
				SiteUUID:  siteUUID,
				Status:    "pending",
				StartedAt: time.Now(),
			})
		}

		poller := &api.Poller{
			Client:  deps.Client,
			Timeout: api.AnalysisPollTimeout,
			Backoff: &api.Backoff{Initial: time.Second, Max: 30 * time.Second},
		}
		if _, err := poller.Wait(ctx, "/analysis/"+analysis.UUID, "analysis.status", "completed", "failed"); err != nil {
			// Only server-reported terminal states reach the ledger; a
			// timed-out run stays pending.
			var term *api.TerminalStateError
			if deps.History != nil && errors.As(err, &term) {
				deps.History.SetAnalysisStatus(analysis.UUID, term.Status)
			}
			return mcpError(fmt.Sprintf("analysis %s did not complete: %v", analysis.UUID, err)), nil
		}
		if deps.History != nil {
			deps.History.SetAnalysisStatus(analysis.UUID, "completed")
		}

		report, err := deps.Client.Competitors(ctx, analysis.UUID)
		if err != nil {
			return mcpError(fmt.Sprintf("fetching competitors: %v", err)), nil
		}

		b, err := json.Marshal(map[string]any{
			"analysis_uuid": analysis.UUID,
			"summary":       report.OverallSummary,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpGetResults(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		analysisUUID, err := req.RequireString("analysis_uuid")
		if err != nil {
			return mcpError("analysis_uuid is required"), nil
		}
		kind := req.GetString("kind", "competitors")

		var payload any
		switch kind {
		case "competitors":
			payload, err = deps.Client.Competitors(ctx, analysisUUID)
		case "keywords":
			payload, err = deps.Client.Keywords(ctx, analysisUUID)
		case "sources":
			payload, err = deps.Client.Sources(ctx, analysisUUID)
		default:
			return mcpError(fmt.Sprintf("unknown result kind %q", kind)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("fetching %s: %v", kind, err)), nil
		}

		b, err := json.Marshal(payload)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal %s: %v", kind, err)), nil
		}
		return mcpText(string(b)), nil
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
