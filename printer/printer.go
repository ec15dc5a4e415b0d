// Package printer writes analysis results and history listings for
// non-interactive use, as colored text, JSON or YAML.
package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/fwojciec/codereview"
	"gopkg.in/yaml.v3"
)

// Format is an output format.
type Format string

// Output formats.
const (
	Human Format = "human"
	JSON  Format = "json"
	YAML  Format = "yaml"
)

// ParseFormat returns the Format named by s. An empty name is Human.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", Human:
		return Human, nil
	case JSON, YAML:
		return f, nil
	default:
		return "", fmt.Errorf("printer: unknown output format %q (want human, json or yaml)", s)
	}
}

// Printer writes documents in one format.
type Printer struct {
	w      io.Writer
	format Format
	color  bool
}

// Option configures a Printer.
type Option func(*Printer)

// WithColor enables or disables ANSI colors in human output.
func WithColor(enabled bool) Option {
	return func(p *Printer) { p.color = enabled }
}

// New creates a Printer writing format to w. Colors are on by default.
func New(w io.Writer, format Format, opts ...Option) *Printer {
	p := &Printer{w: w, format: format, color: true}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AnalysisDoc is the machine-readable form of a completed analysis.
type AnalysisDoc struct {
	FileName      string         `json:"file_name,omitempty" yaml:"file_name,omitempty"`
	Language      string         `json:"language" yaml:"language"`
	Summary       string         `json:"summary" yaml:"summary"`
	IssuesCount   int            `json:"issues_count" yaml:"issues_count"`
	Counts        map[string]int `json:"counts" yaml:"counts"`
	Issues        []IssueDoc     `json:"issues" yaml:"issues"`
	OptimizedCode string         `json:"optimized_code" yaml:"optimized_code"`
}

// IssueDoc is the machine-readable form of an issue.
type IssueDoc struct {
	Type        string  `json:"type" yaml:"type"`
	Severity    string  `json:"severity" yaml:"severity"`
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description" yaml:"description"`
	Line        *int    `json:"line,omitempty" yaml:"line,omitempty"`
	Suggestion  *string `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

// NewAnalysisDoc builds the document for a result of req. issuesCount is the
// backend's own count.
func NewAnalysisDoc(req codereview.AnalysisRequest, result codereview.AnalysisResult, issuesCount int) AnalysisDoc {
	counts := make(map[string]int, len(codereview.IssueTypes))
	for t, n := range result.CountByType() {
		counts[string(t)] = n
	}
	issues := make([]IssueDoc, 0, len(result.Issues))
	for _, i := range result.Issues {
		issues = append(issues, IssueDoc{
			Type:        string(i.Type),
			Severity:    string(i.Severity),
			Title:       i.Title,
			Description: i.Description,
			Line:        i.Line,
			Suggestion:  i.Suggestion,
		})
	}
	return AnalysisDoc{
		FileName:      req.FileName,
		Language:      req.Language,
		Summary:       result.Summary,
		IssuesCount:   issuesCount,
		Counts:        counts,
		Issues:        issues,
		OptimizedCode: result.OptimizedCode,
	}
}

// RecordDoc is the machine-readable form of a history record.
type RecordDoc struct {
	ID          string `json:"id" yaml:"id"`
	Date        string `json:"date" yaml:"date"`
	Name        string `json:"name" yaml:"name"`
	Language    string `json:"language" yaml:"language"`
	IssuesCount int    `json:"issues_count" yaml:"issues_count"`
	Status      string `json:"status" yaml:"status"`
	Summary     string `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// Analysis writes a completed analysis.
func (p *Printer) Analysis(req codereview.AnalysisRequest, result codereview.AnalysisResult, issuesCount int) error {
	doc := NewAnalysisDoc(req, result, issuesCount)
	switch p.format {
	case JSON:
		return p.json(doc)
	case YAML:
		return p.yaml(doc)
	}
	p.humanAnalysis(doc)
	return nil
}

// History writes a history listing in the given order.
func (p *Printer) History(records []codereview.HistoryRecord) error {
	docs := make([]RecordDoc, 0, len(records))
	for _, r := range records {
		docs = append(docs, RecordDoc{
			ID:          r.ID,
			Date:        codereview.FormatDate(r.CreatedAt),
			Name:        r.DisplayName(),
			Language:    r.Language,
			IssuesCount: r.IssuesCount,
			Status:      string(r.Status()),
			Summary:     r.Summary,
		})
	}
	switch p.format {
	case JSON:
		return p.json(docs)
	case YAML:
		return p.yaml(docs)
	}
	return p.humanHistory(records)
}

// Session writes the signed-in user, or a hint when nobody is signed in.
func (p *Printer) Session(s *codereview.Session) error {
	type sessionDoc struct {
		UserID    string `json:"user_id" yaml:"user_id"`
		Email     string `json:"email,omitempty" yaml:"email,omitempty"`
		ExpiresAt string `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	}
	var doc *sessionDoc
	if s != nil {
		doc = &sessionDoc{UserID: s.UserID, Email: s.Email}
		if !s.ExpiresAt.IsZero() {
			doc.ExpiresAt = s.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z")
		}
	}
	switch p.format {
	case JSON:
		return p.json(doc)
	case YAML:
		return p.yaml(doc)
	}
	if doc == nil {
		fmt.Fprintln(p.w, "Not signed in.")
		return nil
	}
	p.paint(color.FgCyan, color.Bold).Fprintf(p.w, "Signed in as %s\n", doc.UserID)
	if doc.Email != "" {
		fmt.Fprintf(p.w, "  Email:   %s\n", doc.Email)
	}
	if doc.ExpiresAt != "" {
		fmt.Fprintf(p.w, "  Expires: %s\n", doc.ExpiresAt)
	}
	return nil
}

func (p *Printer) json(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("printer: encode json: %w", err)
	}
	_, err = fmt.Fprintln(p.w, string(out))
	return err
}

func (p *Printer) yaml(v any) error {
	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("printer: encode yaml: %w", err)
	}
	return enc.Close()
}

// paint returns a color that honors the printer's color setting.
func (p *Printer) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if p.color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func (p *Printer) severityColor(sev string) *color.Color {
	switch codereview.Severity(sev) {
	case codereview.SeverityCritical:
		return p.paint(color.FgRed, color.Bold)
	case codereview.SeverityWarning:
		return p.paint(color.FgYellow, color.Bold)
	default:
		return p.paint(color.FgBlue, color.Bold)
	}
}

func (p *Printer) humanAnalysis(doc AnalysisDoc) {
	heading := p.paint(color.FgCyan, color.Bold)
	dim := p.paint(color.FgHiBlack)
	w := p.w

	title := doc.Language
	if doc.FileName != "" {
		title = doc.FileName + " (" + doc.Language + ")"
	}
	heading.Fprintf(w, "ANALYSIS: %s\n", title)
	fmt.Fprintf(w, "%s\n\n", codereview.CompletionNotice(doc.IssuesCount).Description)

	if doc.Summary != "" {
		heading.Fprintln(w, "SUMMARY:")
		fmt.Fprintf(w, "%s\n\n", indent(doc.Summary, "   "))
	}

	parts := make([]string, 0, len(codereview.IssueTypes))
	for _, t := range codereview.IssueTypes {
		parts = append(parts, fmt.Sprintf("%s %d", t.Label(), doc.Counts[string(t)]))
	}
	fmt.Fprintf(w, "   %s\n\n", strings.Join(parts, "  │  "))

	if len(doc.Issues) == 0 {
		p.paint(color.FgGreen, color.Bold).Fprintln(w, "No issues found.")
		fmt.Fprintln(w)
	} else {
		heading.Fprintln(w, "ISSUES:")
		for i, issue := range doc.Issues {
			badge := p.severityColor(issue.Severity).Sprintf("[%s]", strings.ToUpper(issue.Severity))
			where := codereview.IssueType(issue.Type).Label()
			if issue.Line != nil {
				where += fmt.Sprintf(", line %d", *issue.Line)
			}
			fmt.Fprintf(w, "   %d. %s %s %s\n", i+1, badge, issue.Title, dim.Sprintf("(%s)", where))
			if issue.Description != "" {
				fmt.Fprintf(w, "      %s\n", issue.Description)
			}
			if issue.Suggestion != nil && *issue.Suggestion != "" {
				fmt.Fprintf(w, "      Suggestion: %s\n", p.paint(color.FgGreen).Sprint(*issue.Suggestion))
			}
			fmt.Fprintln(w)
		}
	}

	heading.Fprintln(w, "OPTIMIZED CODE:")
	fmt.Fprintln(w, strings.TrimRight(doc.OptimizedCode, "\n"))
	fmt.Fprintln(w, strings.Repeat("─", 80))
	fmt.Fprintf(w, "%s\n", dim.Sprint("Run with -o json or -o yaml for machine-readable output"))
}

func (p *Printer) humanHistory(records []codereview.HistoryRecord) error {
	if len(records) == 0 {
		fmt.Fprintln(p.w, "No analyses yet.")
		return nil
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tNAME\tID\tLANGUAGE\tISSUES")
	for _, r := range records {
		issues := p.paint(color.FgGreen).Sprint(r.IssuesLabel())
		if r.Status() == codereview.StatusHasIssues {
			issues = p.paint(color.FgYellow).Sprint(r.IssuesLabel())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			codereview.FormatDate(r.CreatedAt), r.DisplayName(), r.ShortID(), r.Language, issues)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("printer: write table: %w", err)
	}
	fmt.Fprintf(p.w, "\n%d analyses\n", len(records))
	return nil
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
