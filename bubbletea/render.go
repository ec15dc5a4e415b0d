package bubbletea

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/codereview"
)

// minGutterWidth is the minimum width of each line number column in the gutter.
const minGutterWidth = 3

// tabWidth is the distance between tab stops in the code panes.
const tabWidth = 8

// ExpandTabs replaces tabs with spaces up to the next tab stop. Columns start
// at startCol on the first line and at zero after each newline.
func ExpandTabs(s string, startCol int) string {
	if !strings.ContainsRune(s, '\t') {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + tabWidth)
	col := startCol
	for _, r := range s {
		switch r {
		case '\t':
			pad := tabWidth - col%tabWidth
			sb.WriteString(strings.Repeat(" ", pad))
			col += pad
		case '\n':
			sb.WriteRune(r)
			col = 0
		default:
			sb.WriteRune(r)
			col += lipgloss.Width(string(r))
		}
	}
	return sb.String()
}

// renderConfig holds the shared rendering parameters.
type renderConfig struct {
	styles    codereview.Styles
	palette   codereview.Palette
	renderer  *lipgloss.Renderer
	tokenizer codereview.Tokenizer
	width     int
}

// newStyle creates a new lipgloss style using the configured renderer.
func (c renderConfig) newStyle() lipgloss.Style {
	if c.renderer != nil {
		return c.renderer.NewStyle()
	}
	return lipgloss.NewStyle()
}

// pair creates a lipgloss style from a ColorPair.
func (c renderConfig) pair(cp codereview.ColorPair) lipgloss.Style {
	return styleFromColorPair(cp, c.renderer)
}

// fg creates a style with only a foreground color.
func (c renderConfig) fg(color codereview.Color) lipgloss.Style {
	return c.pair(codereview.ColorPair{Foreground: color})
}

// renderCode renders a snippet with a line number gutter and syntax
// highlighting. Without a tokenizer or for an unknown language the code is
// shown plain.
func renderCode(cfg renderConfig, language, code string) string {
	lines := strings.Split(strings.TrimRight(code, "\n"), "\n")

	var tokens [][]codereview.Token
	if cfg.tokenizer != nil && language != "" {
		tokens = cfg.tokenizer.TokenizeLines(language, ExpandTabs(code, 0))
	}

	gutterWidth := max(digitWidth(len(lines)), minGutterWidth)
	gutterStyle := cfg.pair(cfg.styles.LineNumber)
	text := codereview.ColorPair{Foreground: cfg.palette.Foreground}

	var sb strings.Builder
	for i, line := range lines {
		sb.WriteString(gutterStyle.Render(formatLineNum(i+1, gutterWidth) + " "))
		if tokens != nil && i < len(tokens) {
			sb.WriteString(renderLineWithTokens(" ", tokens[i], text, cfg.renderer, 0))
		} else {
			sb.WriteString(" " + ExpandTabs(line, 0))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderDiff renders the changes from the submitted code to the optimized
// rewrite with a two-column gutter.
func renderDiff(cfg renderConfig, diff *codereview.Diff, language string) string {
	if diff == nil || len(diff.Files) == 0 {
		return cfg.pair(cfg.styles.Context).Render("No changes suggested.") + "\n"
	}

	styles := cfg.styles
	gutterWidth := calculateGutterWidth(diff)
	hunkHeaderStyle := cfg.pair(styles.HunkHeader)
	lineNumStyle := cfg.pair(styles.LineNumber)

	var sb strings.Builder
	for _, file := range diff.Files {
		added, deleted := file.Stats()
		sb.WriteString(hunkHeaderStyle.Render(fmt.Sprintf("── %s → %s  +%d -%d", file.OldPath, file.NewPath, added, deleted)))
		sb.WriteString("\n")

		for _, hunk := range file.Hunks {
			sb.WriteString(hunkHeaderStyle.Render(formatHunkHeader(hunk)))
			sb.WriteString("\n")

			for _, line := range hunk.Lines {
				var colors codereview.ColorPair
				switch line.Type {
				case codereview.LineAdded:
					colors = styles.Added
				case codereview.LineDeleted:
					colors = styles.Deleted
				default:
					colors = styles.Context
				}
				sb.WriteString(formatGutter(line.OldLineNum, line.NewLineNum, gutterWidth, lineNumStyle))

				prefix := linePrefixFor(line.Type)
				content := ExpandTabs(line.Content, 0)

				var tokens []codereview.Token
				if cfg.tokenizer != nil && language != "" {
					if lines := cfg.tokenizer.TokenizeLines(language, content); len(lines) == 1 {
						tokens = lines[0]
					}
				}

				if tokens != nil {
					sb.WriteString(renderLineWithTokens(prefix, tokens, colors, cfg.renderer, cfg.width-lipgloss.Width(formatGutter(0, 0, gutterWidth, lipgloss.NewStyle()))))
				} else {
					sb.WriteString(cfg.pair(colors).Render(prefix + content))
				}
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}

// renderCounts renders the per-type issue counts in display order.
func renderCounts(cfg renderConfig, counts map[codereview.IssueType]int) string {
	label := cfg.fg(cfg.palette.UIForeground)
	value := cfg.fg(cfg.palette.UIAccent).Bold(true)

	parts := make([]string, 0, len(codereview.IssueTypes))
	for _, t := range codereview.IssueTypes {
		parts = append(parts, label.Render(t.Label()+" ")+value.Render(fmt.Sprint(counts[t])))
	}
	return strings.Join(parts, label.Render("  │  "))
}

// renderIssues renders the issue list with a severity badge per issue.
func renderIssues(cfg renderConfig, issues []codereview.Issue) string {
	if len(issues) == 0 {
		return cfg.pair(cfg.styles.Clean).Render("No issues found.") + "\n"
	}

	title := cfg.fg(cfg.palette.Foreground).Bold(true)
	meta := cfg.fg(cfg.palette.UIForeground)
	body := cfg.fg(cfg.palette.Foreground)
	suggestion := cfg.fg(cfg.palette.String)

	var sb strings.Builder
	for i, issue := range issues {
		if i > 0 {
			sb.WriteString("\n")
		}
		badge := cfg.pair(cfg.styles.SeverityStyle(issue.Severity)).Bold(true).Padding(0, 1)
		sb.WriteString(badge.Render(strings.ToUpper(string(issue.Severity))))
		sb.WriteString(" ")
		sb.WriteString(title.Render(issue.Title))

		info := issue.Type.Label()
		if issue.Line != nil {
			info += fmt.Sprintf(" · line %d", *issue.Line)
		}
		sb.WriteString(" ")
		sb.WriteString(meta.Render(info))
		sb.WriteString("\n")

		if issue.Description != "" {
			sb.WriteString(body.Render(wrap("  ", issue.Description, cfg.width)))
			sb.WriteString("\n")
		}
		if issue.Suggestion != nil && *issue.Suggestion != "" {
			sb.WriteString(suggestion.Render(wrap("  → ", *issue.Suggestion, cfg.width)))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// renderNotice renders a notification line.
func renderNotice(cfg renderConfig, n codereview.Notice) string {
	style := cfg.pair(cfg.styles.Clean)
	if n.Error {
		style = cfg.pair(cfg.styles.Deleted)
	}
	return style.Bold(true).Render(n.Title) + "  " + cfg.fg(cfg.palette.Foreground).Render(n.Description)
}

// wrap indents text and word-wraps it to width. A non-positive width
// disables wrapping.
func wrap(indent, text string, width int) string {
	if width <= lipgloss.Width(indent)+10 {
		return indent + text
	}
	limit := width - lipgloss.Width(indent)
	pad := strings.Repeat(" ", lipgloss.Width(indent))

	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && lipgloss.Width(line.String())+1+lipgloss.Width(word) > limit {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteString(" ")
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	for i := range lines {
		if i == 0 {
			lines[i] = indent + lines[i]
		} else {
			lines[i] = pad + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

// renderLineWithTokens renders a line with syntax highlighting.
// Each token gets its syntax foreground color combined with the line background.
func renderLineWithTokens(prefix string, tokens []codereview.Token, colors codereview.ColorPair, renderer *lipgloss.Renderer, width int) string {
	var sb strings.Builder

	newStyle := func() lipgloss.Style {
		if renderer != nil {
			return renderer.NewStyle()
		}
		return lipgloss.NewStyle()
	}

	baseStyle := styleFromColorPair(colors, renderer)
	sb.WriteString(baseStyle.Render(prefix))

	for _, tok := range tokens {
		style := newStyle()
		if colors.Background != "" {
			style = style.Background(lipgloss.Color(colors.Background))
		}
		if tok.Style.Foreground != "" {
			style = style.Foreground(lipgloss.Color(tok.Style.Foreground))
		} else if colors.Foreground != "" {
			style = style.Foreground(lipgloss.Color(colors.Foreground))
		}
		if tok.Style.Bold {
			style = style.Bold(true)
		}
		sb.WriteString(style.Render(tok.Text))
	}

	currentLen := lipgloss.Width(prefix)
	for _, tok := range tokens {
		currentLen += lipgloss.Width(tok.Text)
	}
	if colors.Background != "" && currentLen < width {
		sb.WriteString(baseStyle.Render(strings.Repeat(" ", width-currentLen)))
	}

	return sb.String()
}

// calculateGutterWidth determines the gutter width for a diff based on the
// maximum line number present in any hunk.
func calculateGutterWidth(diff *codereview.Diff) int {
	maxLineNum := 0
	for _, file := range diff.Files {
		for _, hunk := range file.Hunks {
			for _, line := range hunk.Lines {
				maxLineNum = max(maxLineNum, line.OldLineNum, line.NewLineNum)
			}
		}
	}
	return max(digitWidth(maxLineNum), minGutterWidth)
}

// formatGutter formats the gutter column with old and new line numbers.
// Format: "  12  14 " for context lines, blank columns where a side has no line.
func formatGutter(oldLineNum, newLineNum, width int, style lipgloss.Style) string {
	return style.Render(fmt.Sprintf("%s %s ", formatLineNum(oldLineNum, width), formatLineNum(newLineNum, width)))
}

// formatLineNum formats a line number for the gutter.
// Returns right-aligned number or empty space for zero (missing) line numbers.
func formatLineNum(num, width int) string {
	if num == 0 {
		return fmt.Sprintf("%*s", width, "")
	}
	return fmt.Sprintf("%*d", width, num)
}

// styleFromColorPair creates a lipgloss style from a ColorPair.
// If renderer is nil, the default lipgloss renderer is used.
func styleFromColorPair(cp codereview.ColorPair, renderer *lipgloss.Renderer) lipgloss.Style {
	var style lipgloss.Style
	if renderer != nil {
		style = renderer.NewStyle()
	} else {
		style = lipgloss.NewStyle()
	}
	if cp.Foreground != "" {
		style = style.Foreground(lipgloss.Color(cp.Foreground))
	}
	if cp.Background != "" {
		style = style.Background(lipgloss.Color(cp.Background))
	}
	return style
}

// formatHunkHeader formats a hunk header in standard diff format.
func formatHunkHeader(hunk codereview.Hunk) string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", hunk.OldStart, hunk.OldCount, hunk.NewStart, hunk.NewCount)
}

// linePrefixFor returns the appropriate prefix for a line type.
func linePrefixFor(lineType codereview.LineType) string {
	switch lineType {
	case codereview.LineAdded:
		return "+"
	case codereview.LineDeleted:
		return "-"
	default:
		return " "
	}
}

// padLine pads a line with spaces to the specified display width.
// If the line is already wider, it is returned unchanged.
func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth >= width {
		return line
	}
	return line + strings.Repeat(" ", width-lineWidth)
}

// truncate cuts s to width display columns, adding an ellipsis when cut.
func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// digitWidth returns the number of digits needed to display n.
func digitWidth(n int) int {
	if n <= 0 {
		return 1
	}
	width := 0
	for n > 0 {
		width++
		n /= 10
	}
	return width
}
