package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fwojciec/codereview"
	"go.uber.org/zap"
)

// Compile-time interface verification.
var _ codereview.Reviewer = (*Reviewer)(nil)

// DefaultReviewTimeout is the default timeout for a single review call.
const DefaultReviewTimeout = 60 * time.Second

// Reviewer implements codereview.Reviewer using Google Gemini.
type Reviewer struct {
	client    GenerativeClient
	model     string
	formatter codereview.PromptFormatter
	timeout   time.Duration
	logger    *zap.Logger
}

// ReviewerOption configures a Reviewer.
type ReviewerOption func(*Reviewer)

// WithTimeout sets the timeout for API calls.
func WithTimeout(d time.Duration) ReviewerOption {
	return func(r *Reviewer) {
		r.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ReviewerOption {
	return func(r *Reviewer) {
		r.logger = l
	}
}

// WithFormatter replaces the prompt formatter.
func WithFormatter(f codereview.PromptFormatter) ReviewerOption {
	return func(r *Reviewer) {
		r.formatter = f
	}
}

// NewReviewer creates a new Reviewer.
func NewReviewer(client GenerativeClient, model string, opts ...ReviewerOption) *Reviewer {
	if model == "" {
		model = DefaultModel
	}
	r := &Reviewer{
		client:    client,
		model:     model,
		formatter: &codereview.DefaultFormatter{},
		timeout:   DefaultReviewTimeout,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("gemini")
	return r
}

// Review asks the model to analyze req and decodes its JSON answer.
func (r *Reviewer) Review(ctx context.Context, req codereview.AnalysisRequest) (*codereview.Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	contents := []*Content{{
		Parts: []*Part{{Text: r.formatter.Format(req)}},
	}}

	start := time.Now()
	resp, err := r.client.GenerateContent(ctx, r.model, contents, r.config())
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			r.logger.Warn("API error", zap.Int("status", apiErr.StatusCode), zap.String("model", r.model))
		}
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("gemini: returned nil response")
	}
	r.logger.Debug("review complete",
		zap.String("model", r.model),
		zap.String("language", req.Language),
		zap.Duration("elapsed", time.Since(start)))

	var analysis codereview.Analysis
	if err := json.Unmarshal([]byte(codereview.StripCodeFence(resp.Text)), &analysis); err != nil {
		return nil, fmt.Errorf("gemini: failed to parse response: %w: %w", codereview.ErrInvalidModelOutput, err)
	}
	return &analysis, nil
}

func (r *Reviewer) config() *GenerateContentConfig {
	temp := float32(0.1)
	return &GenerateContentConfig{
		SystemInstruction: &Content{
			Parts: []*Part{{Text: r.formatter.System()}},
		},
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
		ResponseSchema:   AnalysisSchema(),
	}
}

// AnalysisSchema describes the Analysis JSON object for controlled
// generation.
func AnalysisSchema() *Schema {
	issue := &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"issue_type":  {Type: "string", Enum: codereview.RawIssueTypes},
			"severity":    {Type: "string", Enum: codereview.RawSeverities},
			"title":       {Type: "string", Description: "Short title of the issue"},
			"description": {Type: "string", Description: "Detailed explanation"},
			"line_number": {Type: "integer", Nullable: true, Description: "1-based line in the submitted code"},
			"suggestion":  {Type: "string", Nullable: true, Description: "How to fix it"},
		},
		Required:         []string{"issue_type", "severity", "title", "description"},
		PropertyOrdering: []string{"issue_type", "severity", "title", "description", "line_number", "suggestion"},
	}
	return &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"issues":         {Type: "array", Items: issue},
			"optimized_code": {Type: "string", Description: "The full fixed code. Do not truncate."},
			"summary":        {Type: "string", Description: "A brief 2-sentence summary of the code quality."},
			"issues_count":   {Type: "integer"},
		},
		Required:         []string{"issues", "optimized_code", "summary", "issues_count"},
		PropertyOrdering: []string{"issues", "optimized_code", "summary", "issues_count"},
	}
}
