package codereview

// Token represents a syntax-highlighted segment of code.
type Token struct {
	Text  string // The text content of this token
	Style Style  // Visual style to apply (colors, bold, etc.)
}

// Style represents the visual styling for a token.
type Style struct {
	Foreground string // Hex color code (e.g., "#ff0000") or empty for default
	Bold       bool
}

// Tokenizer extracts syntax tokens from source code.
type Tokenizer interface {
	// TokenizeLines splits source into per-line tokens for the given language.
	// Returns nil if the language is not supported.
	TokenizeLines(language, source string) [][]Token
}

// LanguageDetector determines the programming language from a file path.
type LanguageDetector interface {
	// DetectFromPath returns one of Languages for path, or an empty string if
	// the file is not in a supported language.
	DetectFromPath(path string) string
}
