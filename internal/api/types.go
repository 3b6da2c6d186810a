package api

// Response records for the BotSee v1 API. Fields the server may omit are
// tagged omitempty so round-trips through the CLI don't invent values.

// Site is a website registered for analysis.
type Site struct {
	UUID        string `json:"uuid"`
	URL         string `json:"url"`
	ProductName string `json:"product_name,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type siteEnvelope struct {
	Site Site `json:"site"`
}

type sitesEnvelope struct {
	Sites []Site `json:"sites"`
}

// CustomerType is a customer segment attached to a site.
type CustomerType struct {
	UUID        string `json:"uuid"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type customerTypeEnvelope struct {
	CustomerType CustomerType `json:"customer_type"`
}

type customerTypesEnvelope struct {
	CustomerTypes []CustomerType `json:"customer_types"`
}

// Persona is a buyer persona within a customer type.
type Persona struct {
	UUID        string `json:"uuid"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type personaEnvelope struct {
	Persona Persona `json:"persona"`
}

type personasEnvelope struct {
	Personas []Persona `json:"personas"`
}

// Question is a research question asked on behalf of a persona.
type Question struct {
	UUID string `json:"uuid"`
	Text string `json:"text"`
}

type questionEnvelope struct {
	Question Question `json:"question"`
}

type questionsEnvelope struct {
	Questions []Question `json:"questions"`
}

// Analysis is a server-side analysis run. Status moves through
// pending -> completed | failed.
type Analysis struct {
	UUID      string `json:"uuid"`
	SiteUUID  string `json:"site_uuid,omitempty"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type analysisEnvelope struct {
	Analysis Analysis `json:"analysis"`
}

type analysesEnvelope struct {
	Analyses []Analysis `json:"analyses"`
}

// Competitor is one competitor found in analysis responses.
type Competitor struct {
	Name                 string  `json:"name"`
	AppearancePercentage float64 `json:"appearance_percentage"`
	AvgRank              float64 `json:"avg_rank,omitempty"`
	Mentions             int     `json:"mentions"`
}

// CompetitorGroup holds the competitors surfaced for one customer type.
type CompetitorGroup struct {
	CustomerTypeName string       `json:"customer_type_name"`
	Competitors      []Competitor `json:"competitors"`
}

// CompetitorSummary aggregates across all customer types.
type CompetitorSummary struct {
	TotalUniqueCompetitors int `json:"total_unique_competitors"`
	TotalResponsesAnalyzed int `json:"total_responses_analyzed"`
}

// CompetitorReport is the full competitors result for an analysis.
type CompetitorReport struct {
	ByCustomerType []CompetitorGroup `json:"by_customer_type"`
	OverallSummary CompetitorSummary `json:"overall_summary"`
}

// Keyword is a keyword surfaced by an analysis with its frequency.
type Keyword struct {
	Keyword   string `json:"keyword"`
	Frequency int    `json:"frequency"`
}

type keywordsEnvelope struct {
	Keywords []Keyword `json:"keywords"`
}

// Source is a cited URL surfaced by an analysis.
type Source struct {
	URL                 string `json:"url"`
	Mentions            int    `json:"mentions"`
	OwnCompanyMentioned bool   `json:"own_company_mentioned,omitempty"`
}

type sourcesEnvelope struct {
	Sources []Source `json:"sources"`
}

// Account describes the account behind the API key.
type Account struct {
	OwnerName   string `json:"owner_name,omitempty"`
	OwnerEmail  string `json:"owner_email,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	SiteCount   int    `json:"site_count"`
}

// Usage reports the remaining credit balance.
type Usage struct {
	Balance int `json:"balance"`
}

// SignupRequest starts a new signup. All contact fields are optional.
type SignupRequest struct {
	ContactEmail string `json:"contact_email,omitempty"`
	ContactName  string `json:"contact_name,omitempty"`
	CompanyName  string `json:"company_name,omitempty"`
}

// SignupStart is the server's answer to a new signup: a setup token the
// user completes in a browser, plus the address to poll for completion.
type SignupStart struct {
	SetupToken string `json:"setup_token"`
	SetupURL   string `json:"setup_url"`
	StatusURL  string `json:"status_url,omitempty"`
}

// SignupStatus is one poll of a pending signup. APIKey is set once the
// status reaches "completed".
type SignupStatus struct {
	Status       string `json:"status"`
	APIKey       string `json:"api_key,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	CompanyName  string `json:"company_name,omitempty"`
}

// ContentResult is a generated blog post and the credits it consumed.
type ContentResult struct {
	Content     string `json:"content"`
	CreditsUsed int    `json:"credits_used"`
}
