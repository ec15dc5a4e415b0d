package codereview

// Color is a hex color in "#RRGGBB" form. Empty means terminal default.
type Color string

// ColorPair represents a foreground and background color combination.
type ColorPair struct {
	Foreground Color
	Background Color
}

// Styles contains color pairs for the visual elements of the review screens.
type Styles struct {
	Added      ColorPair // Diff lines added by the optimized rewrite
	Deleted    ColorPair // Diff lines removed by the optimized rewrite
	Context    ColorPair
	HunkHeader ColorPair
	LineNumber ColorPair
	Critical   ColorPair // Severity badges
	Warning    ColorPair
	Info       ColorPair
	Clean      ColorPair // "Clean" history status
	HasIssues  ColorPair // "Has issues" history status
	Selected   ColorPair // Selected history row
}

// Palette holds the semantic colors used for syntax highlighting and chrome.
type Palette struct {
	Background Color
	Foreground Color

	Keyword     Color
	String      Color
	Number      Color
	Comment     Color
	Operator    Color
	Function    Color
	Type        Color
	Constant    Color
	Punctuation Color

	UIBackground Color
	UIForeground Color
	UIAccent     Color
}

// Theme provides styles for rendering the review screens.
type Theme interface {
	Styles() Styles
	Palette() Palette
}

// SeverityStyle returns the color pair used for a severity badge.
func (s Styles) SeverityStyle(sev Severity) ColorPair {
	switch sev {
	case SeverityCritical:
		return s.Critical
	case SeverityWarning:
		return s.Warning
	default:
		return s.Info
	}
}
