// Package bubbletea implements the terminal screens for submitting code for
// review and browsing past analyses.
package bubbletea

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/codereview"
	"go.uber.org/zap"
)

// Option configures the screens.
type Option func(*config)

type config struct {
	theme     codereview.Theme
	renderer  *lipgloss.Renderer
	tokenizer codereview.Tokenizer
	detector  codereview.LanguageDetector
	differ    codereview.CodeDiffer
	clipboard codereview.Clipboard
	sessions  codereview.SessionAccessor
	logger    *zap.Logger

	code     string
	fileName string
	language string
}

func newConfig(opts []Option) config {
	cfg := config{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	return cfg
}

// WithTheme sets the color theme.
func WithTheme(t codereview.Theme) Option {
	return func(c *config) { c.theme = t }
}

// WithRenderer sets the lipgloss renderer used for styling.
// This is primarily useful for testing with a specific color profile.
func WithRenderer(r *lipgloss.Renderer) Option {
	return func(c *config) { c.renderer = r }
}

// WithTokenizer enables syntax highlighting.
func WithTokenizer(t codereview.Tokenizer) Option {
	return func(c *config) { c.tokenizer = t }
}

// WithLanguageDetector sets the detector used to preselect a language from
// the file name.
func WithLanguageDetector(d codereview.LanguageDetector) Option {
	return func(c *config) { c.detector = d }
}

// WithDiffer enables the diff view of the optimized code.
func WithDiffer(d codereview.CodeDiffer) Option {
	return func(c *config) { c.differ = d }
}

// WithClipboard enables copying code.
func WithClipboard(cb codereview.Clipboard) Option {
	return func(c *config) { c.clipboard = cb }
}

// WithSessions sets the session accessor. The analysis screen falls back to
// the anonymous identity without one; the history screen then skips the
// sign-in check, which suits offline sources.
func WithSessions(s codereview.SessionAccessor) Option {
	return func(c *config) { c.sessions = s }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithCode preloads the editor with code read from fileName.
func WithCode(code, fileName string) Option {
	return func(c *config) {
		c.code = code
		c.fileName = fileName
	}
}

// WithLanguage preselects a language. Unknown tags are ignored.
func WithLanguage(tag string) Option {
	return func(c *config) { c.language = tag }
}

// sourceDetector is implemented by detectors that can guess a language from
// the code itself.
type sourceDetector interface {
	DetectFromSource(source string) string
}

// initialLanguage picks the preselected language: an explicit tag, then the
// file name, then the code, then DefaultLanguage.
func (c config) initialLanguage() string {
	if codereview.IsLanguage(c.language) {
		return c.language
	}
	if c.fileName != "" {
		lang := ""
		if c.detector != nil {
			lang = c.detector.DetectFromPath(c.fileName)
		} else {
			lang = codereview.LanguageFromPath(c.fileName)
		}
		if codereview.IsLanguage(lang) {
			return lang
		}
	}
	if sd, ok := c.detector.(sourceDetector); ok && c.code != "" {
		if lang := sd.DetectFromSource(c.code); codereview.IsLanguage(lang) {
			return lang
		}
	}
	return codereview.DefaultLanguage
}

func (c config) styles() codereview.Styles {
	if c.theme == nil {
		return codereview.Styles{}
	}
	return c.theme.Styles()
}

func (c config) palette() codereview.Palette {
	if c.theme == nil {
		return codereview.Palette{}
	}
	return c.theme.Palette()
}

func (c config) render(width int) renderConfig {
	return renderConfig{
		styles:    c.styles(),
		palette:   c.palette(),
		renderer:  c.renderer,
		tokenizer: c.tokenizer,
		width:     width,
	}
}
