package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the production BotSee endpoint. Override with
// Client.BaseURL (or the BOTSEE_BASE_URL environment variable at the
// command layer) for staging and tests.
const DefaultBaseURL = "https://botsee.io"

const apiPrefix = "/v1"

// APIError is a non-2xx response from the BotSee API. The message has any
// API-key material stripped before it reaches the caller.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Client talks to the BotSee v1 API. The zero value is not usable; build
// one with New. Not safe for concurrent use: the CLI keeps one request in
// flight at a time.
type Client struct {
	baseURL    string
	apiKey     string
	version    string
	httpClient *http.Client

	// updateNotice holds the newest skill version the server advertised
	// on any response in this session, empty if none.
	updateNotice string
}

// New creates a Client. baseURL falls back to DefaultBaseURL; apiKey may be
// empty for unauthenticated calls (signup). version is sent as SKILL_VER in
// every request body.
func New(baseURL, apiKey, version string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		version:    version,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// UpdateNotice returns the advertised newer client version, if any response
// in this session carried one.
func (c *Client) UpdateNotice() string {
	return c.updateNotice
}

// updateEnvelope picks the update advertisement out of any response body.
type updateEnvelope struct {
	SkillUpdateAvailable string `json:"skill_update_available"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, expect ...int) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := c.encodeBody(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	for _, code := range expect {
		if resp.StatusCode == code {
			c.noteUpdate(raw)
			if out == nil || len(raw) == 0 {
				return nil
			}
			if err := json.Unmarshal(raw, out); err != nil {
				return fmt.Errorf("decoding response: %w", err)
			}
			return nil
		}
	}

	return &APIError{StatusCode: resp.StatusCode, Message: sanitizeError(raw)}
}

// encodeBody marshals the request body and injects the client version as
// SKILL_VER, which the server uses to advertise updates.
func (c *Client) encodeBody(body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshalling request: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("marshalling request: %w", err)
	}
	fields["SKILL_VER"] = c.version
	return json.Marshal(fields)
}

func (c *Client) noteUpdate(raw []byte) {
	var env updateEnvelope
	if json.Unmarshal(raw, &env) == nil && env.SkillUpdateAvailable != "" {
		c.updateNotice = env.SkillUpdateAvailable
	}
}

// sanitizeError turns an HTTP error body into a safe message. Bodies that
// mention the API key are replaced wholesale so key material never echoes
// back to the terminal.
func sanitizeError(raw []byte) string {
	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "request failed"
	}
	text, err := json.Marshal(parsed)
	if err != nil || strings.Contains(strings.ToLower(string(text)), "api_key") {
		return "authentication failed"
	}
	if msg, ok := parsed["error"].(string); ok && msg != "" {
		return msg
	}
	return string(text)
}

// GetJSON issues a GET and returns the raw body together with the HTTP
// status. Unlike do, non-2xx statuses are handed back to the caller; the
// poller decides whether they are terminal.
func (c *Client) GetJSON(ctx context.Context, path string) (json.RawMessage, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiPrefix+path, nil)
	if err != nil {
		return nil, 0, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.noteUpdate(raw)
	}
	return raw, resp.StatusCode, nil
}

// NormalizeDomain ensures a site URL carries an explicit scheme,
// defaulting to https.
func NormalizeDomain(domain string) string {
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return domain
	}
	return "https://" + domain
}

// --- signup ---

// StartSignup creates a new signup token.
func (c *Client) StartSignup(ctx context.Context, req SignupRequest) (*SignupStart, error) {
	var out SignupStart
	if err := c.do(ctx, http.MethodPost, "/signup", req, &out, http.StatusOK, http.StatusCreated); err != nil {
		return nil, err
	}
	if out.SetupToken == "" || out.SetupURL == "" {
		return nil, fmt.Errorf("unexpected signup response: missing setup token or URL")
	}
	return &out, nil
}

// SignupStatusPath returns the status-check path for a signup token.
// The server may hand back an absolute status_url; prefer its path when set.
func SignupStatusPath(statusURL, setupToken string) string {
	if statusURL == "" {
		return "/signup/" + setupToken + "/status"
	}
	if u, err := url.Parse(statusURL); err == nil && u.Path != "" {
		return strings.TrimPrefix(u.Path, apiPrefix)
	}
	return statusURL
}

// --- account ---

// Usage returns the remaining credit balance.
func (c *Client) Usage(ctx context.Context) (*Usage, error) {
	var out Usage
	if err := c.do(ctx, http.MethodGet, "/usage", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Account returns the account details behind the API key.
func (c *Client) Account(ctx context.Context) (*Account, error) {
	var out Account
	if err := c.do(ctx, http.MethodGet, "/account", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- sites ---

func (c *Client) CreateSite(ctx context.Context, siteURL string) (*Site, error) {
	var out siteEnvelope
	body := map[string]string{"url": siteURL}
	if err := c.do(ctx, http.MethodPost, "/sites", body, &out, http.StatusOK, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out.Site, nil
}

func (c *Client) ListSites(ctx context.Context) ([]Site, error) {
	var out sitesEnvelope
	if err := c.do(ctx, http.MethodGet, "/sites", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Sites, nil
}

func (c *Client) GetSite(ctx context.Context, uuid string) (*Site, error) {
	var out siteEnvelope
	if err := c.do(ctx, http.MethodGet, "/sites/"+uuid, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.Site, nil
}

func (c *Client) ArchiveSite(ctx context.Context, uuid string) error {
	return c.do(ctx, http.MethodDelete, "/sites/"+uuid, nil, nil, http.StatusNoContent)
}

// --- customer types ---

func (c *Client) ListCustomerTypes(ctx context.Context, siteUUID string) ([]CustomerType, error) {
	var out customerTypesEnvelope
	if err := c.do(ctx, http.MethodGet, "/sites/"+siteUUID+"/customer-types", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.CustomerTypes, nil
}

func (c *Client) GetCustomerType(ctx context.Context, uuid string) (*CustomerType, error) {
	var out customerTypeEnvelope
	if err := c.do(ctx, http.MethodGet, "/customer-types/"+uuid, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.CustomerType, nil
}

func (c *Client) CreateCustomerType(ctx context.Context, siteUUID, name, description string) (*CustomerType, error) {
	body := map[string]string{"name": name}
	if description != "" {
		body["description"] = description
	}
	var out customerTypeEnvelope
	if err := c.do(ctx, http.MethodPost, "/sites/"+siteUUID+"/customer-types", body, &out, http.StatusOK, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out.CustomerType, nil
}

func (c *Client) GenerateCustomerTypes(ctx context.Context, siteUUID string, count int) ([]CustomerType, error) {
	var out customerTypesEnvelope
	body := map[string]int{"count": count}
	if err := c.do(ctx, http.MethodPost, "/sites/"+siteUUID+"/customer-types/generate", body, &out, http.StatusOK, http.StatusCreated); err != nil {
		return nil, err
	}
	return out.CustomerTypes, nil
}

func (c *Client) UpdateCustomerType(ctx context.Context, uuid string, fields map[string]string) error {
	return c.do(ctx, http.MethodPut, "/customer-types/"+uuid, fields, nil, http.StatusOK, http.StatusNoContent)
}

func (c *Client) ArchiveCustomerType(ctx context.Context, uuid string) error {
	return c.do(ctx, http.MethodDelete, "/customer-types/"+uuid, nil, nil, http.StatusNoContent)
}

// --- personas ---

func (c *Client) ListPersonas(ctx context.Context, typeUUID string) ([]Persona, error) {
	var out personasEnvelope
	if err := c.do(ctx, http.MethodGet, "/customer-types/"+typeUUID+"/personas", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Personas, nil
}

func (c *Client) GetPersona(ctx context.Context, uuid string) (*Persona, error) {
	var out personaEnvelope
	if err := c.do(ctx, http.MethodGet, "/personas/"+uuid, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.Persona, nil
}

func (c *Client) CreatePersona(ctx context.Context, typeUUID, name, description string) (*Persona, error) {
	body := map[string]string{"name": name}
	if description != "" {
		body["description"] = description
	}
	var out personaEnvelope
	if err := c.do(ctx, http.MethodPost, "/customer-types/"+typeUUID+"/personas", body, &out, http.StatusOK, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out.Persona, nil
}

func (c *Client) GeneratePersonas(ctx context.Context, typeUUID string, count int) ([]Persona, error) {
	var out personasEnvelope
	body := map[string]int{"count": count}
	if err := c.do(ctx, http.MethodPost, "/customer-types/"+typeUUID+"/personas/generate", body, &out, http.StatusOK, http.StatusCreated); err != nil {
		return nil, err
	}
	return out.Personas, nil
}

func (c *Client) UpdatePersona(ctx context.Context, uuid string, fields map[string]string) error {
	return c.do(ctx, http.MethodPut, "/personas/"+uuid, fields, nil, http.StatusOK, http.StatusNoContent)
}

func (c *Client) ArchivePersona(ctx context.Context, uuid string) error {
	return c.do(ctx, http.MethodDelete, "/personas/"+uuid, nil, nil, http.StatusNoContent)
}

// --- questions ---

func (c *Client) ListQuestions(ctx context.Context, personaUUID string) ([]Question, error) {
	var out questionsEnvelope
	if err := c.do(ctx, http.MethodGet, "/personas/"+personaUUID+"/questions", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

// GetQuestion fetches a question with its latest results.
func (c *Client) GetQuestion(ctx context.Context, uuid string) (*Question, error) {
	var out questionEnvelope
	if err := c.do(ctx, http.MethodGet, "/questions/"+uuid+"/results", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.Question, nil
}

func (c *Client) CreateQuestion(ctx context.Context, personaUUID, text string) (*Question, error) {
	body := map[string]string{"text": text}
	var out questionEnvelope
	if err := c.do(ctx, http.MethodPost, "/personas/"+personaUUID+"/questions", body, &out, http.StatusOK, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out.Question, nil
}

func (c *Client) GenerateQuestions(ctx context.Context, personaUUID string, count int) ([]Question, error) {
	var out questionsEnvelope
	body := map[string]int{"count": count}
	if err := c.do(ctx, http.MethodPost, "/personas/"+personaUUID+"/questions/generate", body, &out, http.StatusOK, http.StatusCreated); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

func (c *Client) UpdateQuestion(ctx context.Context, uuid, text string) error {
	body := map[string]string{"text": text}
	return c.do(ctx, http.MethodPut, "/questions/"+uuid, body, nil, http.StatusOK, http.StatusNoContent)
}

func (c *Client) DeleteQuestion(ctx context.Context, uuid string) error {
	return c.do(ctx, http.MethodDelete, "/questions/"+uuid, nil, nil, http.StatusNoContent)
}

// --- analysis ---

func (c *Client) StartAnalysis(ctx context.Context, siteUUID string) (*Analysis, error) {
	body := map[string]string{"site_uuid": siteUUID}
	var out analysisEnvelope
	if err := c.do(ctx, http.MethodPost, "/analysis", body, &out, http.StatusOK, http.StatusCreated, http.StatusAccepted); err != nil {
		return nil, err
	}
	if out.Analysis.UUID == "" {
		return nil, fmt.Errorf("unexpected analysis response: missing uuid")
	}
	return &out.Analysis, nil
}

// ListAnalyses returns the most recent analyses for a site, newest first.
func (c *Client) ListAnalyses(ctx context.Context, siteUUID string, limit int) ([]Analysis, error) {
	var out analysesEnvelope
	path := fmt.Sprintf("/sites/%s/analysis?limit=%d", siteUUID, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Analyses, nil
}

func (c *Client) Competitors(ctx context.Context, analysisUUID string) (*CompetitorReport, error) {
	var out CompetitorReport
	if err := c.do(ctx, http.MethodGet, "/analysis/"+analysisUUID+"/competitors", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Keywords(ctx context.Context, analysisUUID string) ([]Keyword, error) {
	var out keywordsEnvelope
	if err := c.do(ctx, http.MethodGet, "/analysis/"+analysisUUID+"/keywords", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Keywords, nil
}

func (c *Client) Sources(ctx context.Context, analysisUUID string) ([]Source, error) {
	var out sourcesEnvelope
	if err := c.do(ctx, http.MethodGet, "/analysis/"+analysisUUID+"/sources", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Sources, nil
}

// Responses returns the raw model responses for an analysis, unshaped.
func (c *Client) Responses(ctx context.Context, analysisUUID string) (json.RawMessage, error) {
	var out struct {
		Responses json.RawMessage `json:"responses"`
	}
	if err := c.do(ctx, http.MethodGet, "/analysis/"+analysisUUID+"/responses", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Responses, nil
}

func (c *Client) GenerateContent(ctx context.Context, analysisUUID string) (*ContentResult, error) {
	var out ContentResult
	if err := c.do(ctx, http.MethodPost, "/analysis/"+analysisUUID+"/content", map[string]string{}, &out, http.StatusOK, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}
