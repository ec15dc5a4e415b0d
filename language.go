package codereview

import (
	"path/filepath"
	"slices"
	"strings"
)

// Languages lists the language tags accepted by the analysis backend, in
// selector order.
var Languages = []string{
	"javascript", "typescript", "python", "java", "go",
	"rust", "cpp", "csharp", "php", "ruby",
}

// DefaultLanguage is preselected when nothing else is known.
const DefaultLanguage = "javascript"

var extLanguages = map[string]string{
	".js":   "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".py":   "python",
	".java": "java",
	".go":   "go",
	".rs":   "rust",
	".cpp":  "cpp",
	".cc":   "cpp",
	".cs":   "csharp",
	".php":  "php",
	".rb":   "ruby",
}

// LanguageFromPath returns the language tag for a file extension, or an
// empty string when the extension is not recognized.
func LanguageFromPath(path string) string {
	return extLanguages[strings.ToLower(filepath.Ext(path))]
}

// IsLanguage reports whether tag is one of Languages.
func IsLanguage(tag string) bool {
	return slices.Contains(Languages, tag)
}

// NextLanguage returns the language after tag in Languages, wrapping around.
func NextLanguage(tag string) string {
	for i, l := range Languages {
		if l == tag {
			return Languages[(i+1)%len(Languages)]
		}
	}
	return Languages[0]
}
