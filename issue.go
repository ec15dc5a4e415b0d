package codereview

// IssueType is the display category of an issue.
type IssueType string

// Display issue types.
const (
	IssueBug          IssueType = "bug"
	IssueSecurity     IssueType = "security"
	IssuePerformance  IssueType = "performance"
	IssueBestPractice IssueType = "best-practice"
)

// IssueTypes lists display types in presentation order.
var IssueTypes = []IssueType{IssueBug, IssueSecurity, IssuePerformance, IssueBestPractice}

// Label returns the plural heading used next to per-type counts.
func (t IssueType) Label() string {
	switch t {
	case IssueBug:
		return "Bugs"
	case IssueSecurity:
		return "Security"
	case IssuePerformance:
		return "Performance"
	default:
		return "Best Practices"
	}
}

// Severity is the display severity of an issue.
type Severity string

// Display severities.
const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Backend issue_type values.
const (
	RawTypeBug         = "bug"
	RawTypePerformance = "performance"
	RawTypeSecurity    = "security"
	RawTypeStyle       = "style"
	RawTypeLogic       = "logic"
)

// Backend severity values.
const (
	RawSeverityLow      = "low"
	RawSeverityMedium   = "medium"
	RawSeverityHigh     = "high"
	RawSeverityCritical = "critical"
)

// RawIssueTypes and RawSeverities are the values the backend is asked to produce.
var (
	RawIssueTypes = []string{RawTypeBug, RawTypePerformance, RawTypeSecurity, RawTypeStyle, RawTypeLogic}
	RawSeverities = []string{RawSeverityLow, RawSeverityMedium, RawSeverityHigh, RawSeverityCritical}
)

// Issue is an issue in display form.
type Issue struct {
	Type        IssueType `json:"type"`
	Severity    Severity  `json:"severity"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Line        *int      `json:"line,omitempty"`
	Suggestion  *string   `json:"suggestion,omitempty"`
}

// MapIssueType converts a backend issue_type to a display type. Unknown values
// map to best-practice.
func MapIssueType(raw string) IssueType {
	t, _ := mapIssueType(raw)
	return t
}

// MapSeverity converts a backend severity to a display severity. Unknown values
// map to info.
func MapSeverity(raw string) Severity {
	s, _ := mapSeverity(raw)
	return s
}

// mapIssueType reports whether raw was one of the known backend values.
func mapIssueType(raw string) (IssueType, bool) {
	switch raw {
	case RawTypeBug:
		return IssueBug, true
	case RawTypeSecurity:
		return IssueSecurity, true
	case RawTypePerformance:
		return IssuePerformance, true
	case RawTypeStyle, RawTypeLogic:
		return IssueBestPractice, true
	default:
		return IssueBestPractice, false
	}
}

func mapSeverity(raw string) (Severity, bool) {
	switch raw {
	case RawSeverityCritical, RawSeverityHigh:
		return SeverityCritical, true
	case RawSeverityMedium:
		return SeverityWarning, true
	case RawSeverityLow:
		return SeverityInfo, true
	default:
		return SeverityInfo, false
	}
}
