package codereview

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// HistoryRecord is one persisted past analysis.
type HistoryRecord struct {
	ID            string    `json:"id"`
	Language      string    `json:"language"`
	FileName      string    `json:"file_name,omitempty"` // empty when absent
	IssuesCount   int       `json:"issues_count"`
	CreatedAt     time.Time `json:"created_at"`
	CodeSnippet   string    `json:"code_snippet"`
	Summary       string    `json:"summary"`
	OptimizedCode string    `json:"optimized_code"`
}

// UnmarshalJSON decodes a record, treating null strings as empty and clamping
// a negative issues_count to zero.
func (r *HistoryRecord) UnmarshalJSON(data []byte) error {
	type plain HistoryRecord
	var aux struct {
		plain
		FileName      *string `json:"file_name"`
		Summary       *string `json:"summary"`
		OptimizedCode *string `json:"optimized_code"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = HistoryRecord(aux.plain)
	r.FileName = deref(aux.FileName)
	r.Summary = deref(aux.Summary)
	r.OptimizedCode = deref(aux.OptimizedCode)
	if r.IssuesCount < 0 {
		r.IssuesCount = 0
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// RecordStatus is the derived display state of a record.
type RecordStatus string

// Record statuses.
const (
	StatusClean     RecordStatus = "clean"
	StatusHasIssues RecordStatus = "has issues"
)

// Status derives the record's display state from its issue count alone.
func (r HistoryRecord) Status() RecordStatus {
	if r.IssuesCount <= 0 {
		return StatusClean
	}
	return StatusHasIssues
}

// DisplayName returns the file name, or "Untitled Snippet" when absent.
func (r HistoryRecord) DisplayName() string {
	if strings.TrimSpace(r.FileName) == "" {
		return "Untitled Snippet"
	}
	return r.FileName
}

// ShortID returns the first 8 characters of the id followed by "...".
func (r HistoryRecord) ShortID() string {
	if utf8.RuneCountInString(r.ID) <= 8 {
		return r.ID
	}
	return string([]rune(r.ID)[:8]) + "..."
}

// IssuesLabel returns "1 Issue" or "N Issues".
func (r HistoryRecord) IssuesLabel() string {
	return IssuesLabel(r.IssuesCount)
}

// OptimizedOrOriginal returns the stored optimized code, or the original
// snippet when none was stored.
func (r HistoryRecord) OptimizedOrOriginal() string {
	if r.OptimizedCode != "" {
		return r.OptimizedCode
	}
	return r.CodeSnippet
}

// IssuesLabel formats an issue count for display.
func IssuesLabel(n int) string {
	if n == 1 {
		return "1 Issue"
	}
	return strconv.Itoa(max(n, 0)) + " Issues"
}

// FilterRecords returns the records whose language or file name contains
// query, case-insensitively. An empty query returns every record. The input
// slice is never modified.
func FilterRecords(records []HistoryRecord, query string) []HistoryRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]HistoryRecord, 0, len(records))
	for _, r := range records {
		if q == "" || r.Matches(q) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether the record's language or file name contains the
// lower-cased query. A record without a file name is matched on language only.
func (r HistoryRecord) Matches(lowerQuery string) bool {
	if strings.Contains(strings.ToLower(r.Language), lowerQuery) {
		return true
	}
	return r.FileName != "" && strings.Contains(strings.ToLower(r.FileName), lowerQuery)
}

// FormatDate renders t as a fixed en-US short date such as "Mar 5, 2025".
// The date is taken in UTC so the output does not depend on the host zone.
func FormatDate(t time.Time) string {
	return t.UTC().Format("Jan 2, 2006")
}

// TruncateSnippet returns the first non-blank line of code, cut to at most
// width runes with a trailing ellipsis when shortened.
func TruncateSnippet(code string, width int) string {
	line := ""
	for l := range strings.SplitSeq(code, "\n") {
		if strings.TrimSpace(l) != "" {
			line = strings.TrimRight(l, " \t\r")
			break
		}
	}
	if width <= 0 {
		return ""
	}
	if utf8.RuneCountInString(line) <= width {
		return line
	}
	if width == 1 {
		return "…"
	}
	return string([]rune(line)[:width-1]) + "…"
}
