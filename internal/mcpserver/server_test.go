package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/RivalSee/botsee-skill/internal/api"
	"github.com/RivalSee/botsee-skill/internal/history"
)

func newTestDeps(t *testing.T, responses map[string]string) Deps {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}
		w.WriteHeader(404)
		w.Write([]byte(`{"error":"not found"}`))
	}))
	t.Cleanup(srv.Close)

	store, err := history.Open(":memory:")
	if err != nil {
		t.Fatalf("opening history: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return Deps{
		Client:  api.New(srv.URL, "test-key", "test"),
		History: store,
		Version: "test",
	}
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func TestAccountStatusTool(t *testing.T) {
	deps := newTestDeps(t, map[string]string{
		"GET /v1/usage":   `{"balance":75}`,
		"GET /v1/account": `{"company_name":"Example Inc","site_count":2}`,
	})

	result, err := mcpAccountStatus(deps)(context.Background(), makeCallToolRequest("account_status", nil))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}

	var status struct {
		Balance   int    `json:"balance"`
		SiteCount int    `json:"site_count"`
		Company   string `json:"company"`
	}
	if err := json.Unmarshal([]byte(toolText(t, result)), &status); err != nil {
		t.Fatalf("decoding tool output: %v", err)
	}
	if status.Balance != 75 {
		t.Errorf("balance = %d, want 75", status.Balance)
	}
	if status.Company != "Example Inc" {
		t.Errorf("company = %q, want Example Inc", status.Company)
	}
}

func TestListSitesToolEmpty(t *testing.T) {
	deps := newTestDeps(t, map[string]string{
		"GET /v1/sites": `{"sites":[]}`,
	})

	result, err := mcpListSites(deps)(context.Background(), makeCallToolRequest("list_sites", nil))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got := toolText(t, result); got != "[]" {
		t.Errorf("output = %q, want []", got)
	}
}

func TestRunAnalysisToolRequiresSiteUUID(t *testing.T) {
	deps := newTestDeps(t, nil)

	result, err := mcpRunAnalysis(deps)(context.Background(), makeCallToolRequest("run_analysis", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for missing site_uuid")
	}
}

func TestRunAnalysisToolCompletes(t *testing.T) {
	deps := newTestDeps(t, map[string]string{
		"POST /v1/analysis":                `{"analysis":{"uuid":"a-1","status":"pending"}}`,
		"GET /v1/analysis/a-1":             `{"analysis":{"uuid":"a-1","status":"completed"}}`,
		"GET /v1/analysis/a-1/competitors": `{"by_customer_type":[],"overall_summary":{"total_unique_competitors":7,"total_responses_analyzed":20}}`,
	})

	result, err := mcpRunAnalysis(deps)(context.Background(), makeCallToolRequest("run_analysis", map[string]interface{}{
		"site_uuid": "s-1",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}
	if !strings.Contains(toolText(t, result), `"analysis_uuid":"a-1"`) {
		t.Errorf("output = %q, want analysis uuid", toolText(t, result))
	}

	recs, err := deps.History.RecentAnalyses(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Status != "completed" {
		t.Errorf("history = %+v, want one completed record", recs)
	}
}

func TestGetResultsToolUnknownKind(t *testing.T) {
	deps := newTestDeps(t, nil)

	result, err := mcpGetResults(deps)(context.Background(), makeCallToolRequest("get_results", map[string]interface{}{
		"analysis_uuid": "a-1",
		"kind":          "sonnets",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for unknown kind")
	}
}

func TestGetResultsToolKeywords(t *testing.T) {
	deps := newTestDeps(t, map[string]string{
		"GET /v1/analysis/a-1/keywords": `{"keywords":[{"keyword":"crm","frequency":12}]}`,
	})

	result, err := mcpGetResults(deps)(context.Background(), makeCallToolRequest("get_results", map[string]interface{}{
		"analysis_uuid": "a-1",
		"kind":          "keywords",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}

	var keywords []api.Keyword
	if err := json.Unmarshal([]byte(toolText(t, result)), &keywords); err != nil {
		t.Fatalf("decoding tool output: %v", err)
	}
	if len(keywords) != 1 || keywords[0].Keyword != "crm" {
		t.Errorf("keywords = %+v", keywords)
	}
}
