// Package mock provides function-field test doubles for the codereview
// interfaces.
package mock

import (
	"context"

	"github.com/fwojciec/codereview"
)

// Compile-time interface verification.
var (
	_ codereview.Analyzer = (*Analyzer)(nil)
	_ codereview.Reviewer = (*Reviewer)(nil)
)

// Analyzer is a mock implementation of codereview.Analyzer.
type Analyzer struct {
	AnalyzeFn func(ctx context.Context, identity string, req codereview.AnalysisRequest) (*codereview.AnalysisResponse, error)
}

func (a *Analyzer) Analyze(ctx context.Context, identity string, req codereview.AnalysisRequest) (*codereview.AnalysisResponse, error) {
	return a.AnalyzeFn(ctx, identity, req)
}

// Reviewer is a mock implementation of codereview.Reviewer.
type Reviewer struct {
	ReviewFn func(ctx context.Context, req codereview.AnalysisRequest) (*codereview.Analysis, error)
}

func (r *Reviewer) Review(ctx context.Context, req codereview.AnalysisRequest) (*codereview.Analysis, error) {
	return r.ReviewFn(ctx, req)
}
