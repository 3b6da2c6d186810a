package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/RivalSee/botsee-skill/internal/api"
	"github.com/RivalSee/botsee-skill/internal/config"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":"not found"}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *api.Client {
	return api.New(ts.server.URL, "sk_test", "2.0.0")
}

var ctx = context.Background()

func TestSignupCompletionPersistsKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	ts := newTestServer(t, map[string]string{
		"GET /v1/signup/tok-1/status": `{"status":"completed","api_key":"sk_live_9999","contact_email":"dev@example.com"}`,
	})
	client := api.New(ts.server.URL, "", "2.0.0")

	pending := &config.PendingSignup{SetupToken: "tok-1", SetupURL: "https://botsee.io/setup/tok-1"}
	if err := config.SavePendingSignup(*pending); err != nil {
		t.Fatalf("saving pending: %v", err)
	}

	if err := awaitSignup(ctx, client, pending); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := config.LoadUser()
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if cfg == nil || cfg.APIKey != "sk_live_9999" {
		t.Fatalf("expected saved key sk_live_9999, got %+v", cfg)
	}
	if cfg.ContactEmail != "dev@example.com" {
		t.Errorf("contact_email = %q, want dev@example.com", cfg.ContactEmail)
	}

	p, err := config.LoadPendingSignup()
	if err != nil {
		t.Fatalf("loading pending: %v", err)
	}
	if p != nil {
		t.Error("expected pending signup to be removed after completion")
	}
}

func TestSignupExpiredClearsPending(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	ts := newTestServer(t, map[string]string{
		"GET /v1/signup/tok-2/status": `{"status":"expired"}`,
	})
	client := api.New(ts.server.URL, "", "2.0.0")

	pending := &config.PendingSignup{SetupToken: "tok-2", SetupURL: "https://botsee.io/setup/tok-2"}
	if err := config.SavePendingSignup(*pending); err != nil {
		t.Fatalf("saving pending: %v", err)
	}

	err := awaitSignup(ctx, client, pending)
	if err == nil {
		t.Fatal("expected error for expired signup")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Errorf("error = %q, want it to mention 'expired'", err.Error())
	}

	p, err := config.LoadPendingSignup()
	if err != nil {
		t.Fatalf("loading pending: %v", err)
	}
	if p != nil {
		t.Error("expected pending signup to be removed after expiry")
	}
}

func TestSignupCompletedWithoutKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	ts := newTestServer(t, map[string]string{
		"GET /v1/signup/tok-3/status": `{"status":"completed"}`,
	})
	client := api.New(ts.server.URL, "", "2.0.0")

	err := awaitSignup(ctx, client, &config.PendingSignup{SetupToken: "tok-3"})
	if err == nil {
		t.Fatal("expected error when completed status carries no api_key")
	}
	if !strings.Contains(err.Error(), "no API key") {
		t.Errorf("error = %q, want it to mention 'no API key'", err.Error())
	}
}

func TestSetupCommand_RejectsOutOfRangeCounts(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"setup", "example.com", "--types", "9"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for out-of-range --types")
	}
	if !strings.Contains(err.Error(), "between 1 and 3") {
		t.Errorf("error = %q, want it to mention 'between 1 and 3'", err.Error())
	}
}

func TestValidateCount(t *testing.T) {
	tests := []struct {
		n, min, max int
		wantErr     bool
	}{
		{1, 1, 3, false},
		{3, 1, 3, false},
		{0, 1, 3, true},
		{4, 1, 3, true},
		{3, 3, 10, false},
		{10, 3, 10, false},
		{2, 3, 10, true},
		{11, 3, 10, true},
	}
	for _, tt := range tests {
		err := validateCount("count", tt.n, tt.min, tt.max)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateCount(%d, %d, %d) error = %v, wantErr %v", tt.n, tt.min, tt.max, err, tt.wantErr)
		}
	}
}

func TestParseUUID(t *testing.T) {
	if _, err := parseUUID("not-a-uuid"); err == nil {
		t.Error("expected error for malformed UUID")
	}
	id, err := parseUUID("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "6ba7b810-9dad-11d1-80b4-00c04fd430c8" {
		t.Errorf("id = %q", id)
	}
}

func TestKeySuffix(t *testing.T) {
	tests := []struct {
		key, want string
	}{
		{"sk_live_12345678", "5678"},
		{"abcd", "abcd"},
		{"ab", "ab"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := keySuffix(tt.key); got != tt.want {
			t.Errorf("keySuffix(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 30); got != "short" {
		t.Errorf("truncate short = %q", got)
	}
	long := strings.Repeat("x", 40)
	got := truncate(long, 30)
	if len(got) != 30 {
		t.Errorf("len = %d, want 30", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated string should end in ellipsis, got %q", got)
	}
}

func TestLatestCompletedAnalysis(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /v1/sites/site-1/analysis": `{"analyses":[
			{"uuid":"a2","status":"failed"},
			{"uuid":"a1","status":"completed"}
		]}`,
	})

	id, err := latestCompletedAnalysis(ctx, ts.client(), "site-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "a1" {
		t.Errorf("id = %q, want a1", id)
	}
}

func TestLatestCompletedAnalysis_NoneCompleted(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /v1/sites/site-1/analysis": `{"analyses":[{"uuid":"a2","status":"failed"}]}`,
	})

	_, err := latestCompletedAnalysis(ctx, ts.client(), "site-1")
	if err == nil {
		t.Fatal("expected error when no analysis has completed")
	}
	if !strings.Contains(err.Error(), "botsee analyze") {
		t.Errorf("error = %q, want it to suggest running analyze", err.Error())
	}
}

func TestRenderReport(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /v1/analysis/an-1/competitors": `{
			"by_customer_type":[{"customer_type_name":"SMB","competitors":[
				{"name":"Rival Inc","appearance_percentage":62.5,"mentions":10}
			]}],
			"overall_summary":{"total_unique_competitors":4,"total_responses_analyzed":16}
		}`,
		"GET /v1/analysis/an-1/keywords": `{"keywords":[{"keyword":"pricing","frequency":7}]}`,
		"GET /v1/analysis/an-1/sources":  `{"sources":[{"url":"https://g2.com/x","mentions":3,"own_company_mentioned":true}]}`,
	})

	if err := renderReport(ctx, ts.client(), "an-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ts.requests) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(ts.requests))
	}
	if ts.requests[0].Auth != "Bearer sk_test" {
		t.Errorf("auth = %q, want Bearer sk_test", ts.requests[0].Auth)
	}
}

func TestSitesCommands_RejectMalformedUUID(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	for _, sub := range []string{"get", "archive", "use"} {
		rootCmd.SetArgs([]string{"sites", sub, "not-a-uuid"})
		err := rootCmd.Execute()
		if err == nil {
			t.Errorf("sites %s: expected error for malformed UUID", sub)
			continue
		}
		if !strings.Contains(err.Error(), "not a valid UUID") {
			t.Errorf("sites %s: error = %q, want UUID validation failure", sub, err.Error())
		}
	}
}

func TestHistoryStatusForError(t *testing.T) {
	terminal := fmt.Errorf("analysis failed: %w", &api.TerminalStateError{Status: "failed"})
	if status, ok := historyStatusForError(terminal); !ok || status != "failed" {
		t.Errorf("terminal error: status = %q, ok = %v, want failed/true", status, ok)
	}

	// Timeouts leave the ledger at pending: the run may still complete.
	timeout := fmt.Errorf("%w after 10m0s", api.ErrPollTimeout)
	if status, ok := historyStatusForError(timeout); ok {
		t.Errorf("timeout error: status = %q, want no recorded status", status)
	}

	if status, ok := historyStatusForError(errors.New("connection error")); ok {
		t.Errorf("transport error: status = %q, want no recorded status", status)
	}
}

func TestPrintErrorWritesToStderr(t *testing.T) {
	oldStderr := os.Stderr
	oldNoColor := noColor
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stderr = w
	noColor = true

	printError("request failed: %d", 500)

	w.Close()
	os.Stderr = oldStderr
	noColor = oldNoColor

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("reading captured stderr: %v", err)
	}
	if got := buf.String(); got != "✗ request failed: 500\n" {
		t.Errorf("output = %q, want %q", got, "✗ request failed: 500\n")
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorGreen, "test message")
	if strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}
	if result != "test message" {
		t.Errorf("result = %q, want %q", result, "test message")
	}

	noColor = false
	result = colorize(colorGreen, "test message")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}
