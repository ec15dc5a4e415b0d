package codereview

import (
	"fmt"
	"strings"
)

// ValidateRequest checks a request before it is sent or reviewed.
func ValidateRequest(req AnalysisRequest) error {
	if strings.TrimSpace(req.Code) == "" {
		return ErrEmptyCode
	}
	return nil
}

// ValidationError describes an issue whose line number does not exist in
// the submitted code.
type ValidationError struct {
	Issue     int // Index of the issue
	Line      int
	LineCount int
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("issue %d: line_number %d is out of range (valid: 1-%d)", e.Issue, e.Line, e.LineCount)
}

// ValidateAnalysis finalizes a reviewer's output for code: nil issues become
// empty, a missing optimized rewrite falls back to code, an empty summary
// gets a default, issues_count is recomputed, and line numbers outside the
// code are cleared. The cleared references are returned so callers can log
// them.
func ValidateAnalysis(code string, a *Analysis) []ValidationError {
	if a.Issues == nil {
		a.Issues = []RawIssue{}
	}
	if a.OptimizedCode == nil || *a.OptimizedCode == "" {
		c := code
		a.OptimizedCode = &c
	}
	if strings.TrimSpace(a.Summary) == "" {
		a.Summary = "Analysis complete."
	}
	a.IssuesCount = len(a.Issues)

	lineCount := strings.Count(code, "\n") + 1
	var errs []ValidationError
	for i := range a.Issues {
		ln := a.Issues[i].LineNumber
		if ln == nil {
			continue
		}
		if *ln < 1 || *ln > lineCount {
			errs = append(errs, ValidationError{Issue: i, Line: *ln, LineCount: lineCount})
			a.Issues[i].LineNumber = nil
		}
	}
	return errs
}
