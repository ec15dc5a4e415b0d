// Package chroma provides syntax highlighting and language detection using
// the chroma library.
package chroma

import (
	"errors"
	"strings"

	chromalib "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/fwojciec/codereview"
)

// Compile-time interface verification.
var _ codereview.Tokenizer = (*Tokenizer)(nil)

// StyleFunc maps chroma token types to codereview styles.
type StyleFunc func(chromalib.TokenType) codereview.Style

// Tokenizer extracts syntax tokens using chroma.
type Tokenizer struct {
	styleFunc StyleFunc
}

// NewTokenizer creates a new chroma-based tokenizer with the given style function.
// Use StyleFromPalette to create a style function from a codereview.Palette.
func NewTokenizer(styleFunc StyleFunc) (*Tokenizer, error) {
	if styleFunc == nil {
		return nil, errors.New("chroma: styleFunc cannot be nil")
	}
	return &Tokenizer{styleFunc: styleFunc}, nil
}

// TokenizeLines tokenizes source code with full context, then splits tokens by line.
// This correctly handles multi-line constructs like /* */ comments and docstrings.
// language is a codereview language tag such as "cpp" or "csharp".
// Returns nil if the language is not supported or an error occurs.
// Returns an empty slice for empty source.
func (t *Tokenizer) TokenizeLines(language, source string) [][]codereview.Token {
	if source == "" {
		return [][]codereview.Token{}
	}

	lexer := lexers.Get(language)
	if lexer == nil {
		return nil
	}
	lexer = chromalib.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return nil
	}

	var all []codereview.Token
	for token := iterator(); token != chromalib.EOF; token = iterator() {
		all = append(all, codereview.Token{
			Text:  token.Value,
			Style: t.styleFunc(token.Type),
		})
	}

	return splitTokensByLine(all)
}

// splitTokensByLine splits a flat list of tokens into per-line token slices.
// Tokens spanning several lines are cut at newline boundaries and keep their
// style on every piece.
func splitTokensByLine(tokens []codereview.Token) [][]codereview.Token {
	if len(tokens) == 0 {
		return [][]codereview.Token{}
	}

	var result [][]codereview.Token
	var line []codereview.Token

	for _, tok := range tokens {
		if !strings.Contains(tok.Text, "\n") {
			line = append(line, tok)
			continue
		}

		parts := strings.Split(tok.Text, "\n")
		for i, part := range parts {
			if part != "" {
				line = append(line, codereview.Token{Text: part, Style: tok.Style})
			}
			if i < len(parts)-1 {
				result = append(result, line)
				line = nil
			}
		}
	}

	if len(line) > 0 {
		result = append(result, line)
	}

	return result
}
