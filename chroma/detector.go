package chroma

import (
	"path/filepath"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/fwojciec/codereview"
)

// Compile-time interface verification.
var _ codereview.LanguageDetector = (*Detector)(nil)

// lexerLanguages maps chroma lexer names to codereview language tags.
var lexerLanguages = map[string]string{
	"JavaScript": "javascript",
	"TypeScript": "typescript",
	"TSX":        "typescript",
	"Python":     "python",
	"Java":       "java",
	"Go":         "go",
	"Rust":       "rust",
	"C++":        "cpp",
	"C#":         "csharp",
	"PHP":        "php",
	"Ruby":       "ruby",
}

// Detector detects supported languages using chroma's lexer registry.
type Detector struct{}

// NewDetector creates a new chroma-based language detector.
func NewDetector() *Detector {
	return &Detector{}
}

// DetectFromPath returns the language tag for path, or an empty string if
// the file is not in a supported language.
func (d *Detector) DetectFromPath(path string) string {
	if lexer := lexers.Match(filepath.Base(path)); lexer != nil {
		if tag, ok := lexerLanguages[lexer.Config().Name]; ok {
			return tag
		}
	}
	return codereview.LanguageFromPath(path)
}

// DetectFromSource guesses the language of pasted code, or returns an empty
// string when chroma has no confident match among supported languages.
func (d *Detector) DetectFromSource(source string) string {
	lexer := lexers.Analyse(source)
	if lexer == nil {
		return ""
	}
	return lexerLanguages[lexer.Config().Name]
}
