package codereview

import "fmt"

// AnalysisResult is the display form of a completed analysis. It is built
// once per completed request and replaced wholesale by the next one.
type AnalysisResult struct {
	Issues        []Issue `json:"issues"`
	OptimizedCode string  `json:"optimized_code"`
	Summary       string  `json:"summary"`
}

// Normalize converts a backend response into display form. It never fails:
// unknown issue types and severities take their fallback values, and an empty
// optimized_code falls back to the echoed code_snippet and then to
// originalCode.
func Normalize(raw AnalysisResponse, originalCode string) AnalysisResult {
	issues := make([]Issue, 0, len(raw.Analysis.Issues))
	for _, ri := range raw.Analysis.Issues {
		issues = append(issues, Issue{
			Type:        MapIssueType(ri.IssueType),
			Severity:    MapSeverity(ri.Severity),
			Title:       ri.Title,
			Description: ri.Description,
			Line:        ri.LineNumber,
			Suggestion:  ri.Suggestion,
		})
	}

	optimized := ""
	if raw.Analysis.OptimizedCode != nil {
		optimized = *raw.Analysis.OptimizedCode
	}
	if optimized == "" {
		optimized = raw.CodeSnippet
	}
	if optimized == "" {
		optimized = originalCode
	}

	return AnalysisResult{
		Issues:        issues,
		OptimizedCode: optimized,
		Summary:       raw.Analysis.Summary,
	}
}

// UnrecognizedValue describes a backend value that took a fallback mapping.
type UnrecognizedValue struct {
	Issue int    // Index into the response's issues
	Field string // "issue_type" or "severity"
	Value string
}

func (u UnrecognizedValue) String() string {
	return fmt.Sprintf("issues[%d].%s=%q", u.Issue, u.Field, u.Value)
}

// Unrecognized returns every issue_type and severity in raw that is not one
// of the values the backend is expected to produce.
func Unrecognized(raw AnalysisResponse) []UnrecognizedValue {
	var out []UnrecognizedValue
	for i, ri := range raw.Analysis.Issues {
		if _, ok := mapIssueType(ri.IssueType); !ok {
			out = append(out, UnrecognizedValue{Issue: i, Field: "issue_type", Value: ri.IssueType})
		}
		if _, ok := mapSeverity(ri.Severity); !ok {
			out = append(out, UnrecognizedValue{Issue: i, Field: "severity", Value: ri.Severity})
		}
	}
	return out
}

// CountByType returns the number of issues per display type. Every type in
// IssueTypes is present in the result, including those with zero issues.
func (r AnalysisResult) CountByType() map[IssueType]int {
	counts := make(map[IssueType]int, len(IssueTypes))
	for _, t := range IssueTypes {
		counts[t] = 0
	}
	for _, issue := range r.Issues {
		counts[issue.Type]++
	}
	return counts
}

// CountBySeverity returns the number of issues per display severity.
func (r AnalysisResult) CountBySeverity() map[Severity]int {
	counts := map[Severity]int{SeverityCritical: 0, SeverityWarning: 0, SeverityInfo: 0}
	for _, issue := range r.Issues {
		counts[issue.Severity]++
	}
	return counts
}
