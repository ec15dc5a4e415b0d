package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fwojciec/codereview"
	"go.uber.org/zap"
)

// Compile-time interface verification.
var _ codereview.Reviewer = (*Reviewer)(nil)

// DefaultReviewTimeout is the default timeout for a single review call.
const DefaultReviewTimeout = 60 * time.Second

// Reviewer implements codereview.Reviewer with a chat completion model.
type Reviewer struct {
	client    ChatCompleter
	model     string
	formatter codereview.PromptFormatter
	timeout   time.Duration
	logger    *zap.Logger
}

// ReviewerOption configures a Reviewer.
type ReviewerOption func(*Reviewer)

// WithTimeout sets the timeout for API calls.
func WithTimeout(d time.Duration) ReviewerOption {
	return func(r *Reviewer) { r.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ReviewerOption {
	return func(r *Reviewer) { r.logger = l }
}

// NewReviewer creates a new Reviewer.
func NewReviewer(client ChatCompleter, model string, opts ...ReviewerOption) *Reviewer {
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
	r.logger = r.logger.Named("openai")
	return r
}

// Review asks the model to analyze req and decodes its JSON answer.
func (r *Reviewer) Review(ctx context.Context, req codereview.AnalysisRequest) (*codereview.Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	prompt := r.formatter.System() + "\n" + r.formatter.Format(req)
	text, err := r.client.Complete(ctx, CompletionRequest{
		Model:       r.model,
		Prompt:      prompt,
		Temperature: 0.1,
	})
	if err != nil {
		r.logger.Warn("completion failed", zap.String("model", r.model), zap.Error(err))
		return nil, err
	}

	var analysis codereview.Analysis
	if err := json.Unmarshal([]byte(codereview.StripCodeFence(text)), &analysis); err != nil {
		return nil, fmt.Errorf("openai: failed to parse response: %w: %w", codereview.ErrInvalidModelOutput, err)
	}
	return &analysis, nil
}
