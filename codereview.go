// Package codereview provides domain types for submitting code to an analysis
// service, normalizing its results, and browsing past analyses.
package codereview

import "context"

// AnonymousIdentity is sent when no session is available. It is a valid
// identity, not an error.
const AnonymousIdentity = "anonymous"

// AnalysisRequest is the body of an analysis submission.
type AnalysisRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	FileName string `json:"file_name,omitempty"`
}

// RawIssue is a single issue as reported by the analysis backend.
type RawIssue struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Severity    string  `json:"severity"`   // low, medium, high, critical
	IssueType   string  `json:"issue_type"` // bug, performance, security, style, logic
	LineNumber  *int    `json:"line_number,omitempty"`
	Suggestion  *string `json:"suggestion,omitempty"`
}

// Analysis is the backend's structured review of a snippet.
type Analysis struct {
	Summary       string     `json:"summary"`
	Issues        []RawIssue `json:"issues"`
	OptimizedCode *string    `json:"optimized_code"` // nil when the backend sent null
	IssuesCount   int        `json:"issues_count"`
}

// AnalysisResponse is the success body of an analysis request.
type AnalysisResponse struct {
	Analysis    Analysis `json:"analysis"`
	CodeSnippet string   `json:"code_snippet"`
}

// Analyzer submits code to the analysis API on behalf of an identity.
type Analyzer interface {
	Analyze(ctx context.Context, identity string, req AnalysisRequest) (*AnalysisResponse, error)
}

// Reviewer produces an Analysis for a request. Implementations wrap an LLM.
type Reviewer interface {
	Review(ctx context.Context, req AnalysisRequest) (*Analysis, error)
}

// HistoryFetcher returns all stored analyses for an identity.
type HistoryFetcher interface {
	History(ctx context.Context, identity string) ([]HistoryRecord, error)
}

// RecordDeleter removes a single stored analysis by id.
type RecordDeleter interface {
	Delete(ctx context.Context, id string) error
}

// RecordStore persists analyses. It is the storage backend behind the history
// endpoint and the target of direct deletes.
type RecordStore interface {
	HistoryFetcher
	RecordDeleter
	// Save stores an analysis for identity and returns the new record id.
	Save(ctx context.Context, identity string, req AnalysisRequest, analysis *Analysis) (string, error)
}

// Clipboard provides copy-to-clipboard functionality.
type Clipboard interface {
	Copy(content string) error
}

// HTTPStatuser is implemented by errors that carry an HTTP status code, such
// as upstream LLM API failures and analysis request errors.
type HTTPStatuser interface {
	HTTPStatus() int
}

// SessionStore persists the session issued by the auth backend.
type SessionStore interface {
	SessionAccessor
	// Save stores an access token and returns the session it describes.
	Save(ctx context.Context, accessToken string) (*Session, error)
	// Clear removes the stored session. Clearing when signed out is not an error.
	Clear(ctx context.Context) error
}

// HistoryArchive reads and writes offline copies of the history list.
type HistoryArchive interface {
	Load(path string) ([]HistoryRecord, error)
	Save(path string, records []HistoryRecord) error
}
