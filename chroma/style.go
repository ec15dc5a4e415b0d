package chroma

import (
	chromalib "github.com/alecthomas/chroma/v2"
	"github.com/fwojciec/codereview"
)

// StyleFromPalette returns a function that maps chroma token types to
// codereview styles based on the provided palette colors.
func StyleFromPalette(p codereview.Palette) StyleFunc {
	return func(tt chromalib.TokenType) codereview.Style {
		switch tt {
		case chromalib.KeywordType:
			return codereview.Style{Foreground: string(p.Type), Bold: true}

		case chromalib.Keyword, chromalib.KeywordConstant, chromalib.KeywordDeclaration,
			chromalib.KeywordNamespace, chromalib.KeywordPseudo, chromalib.KeywordReserved:
			return codereview.Style{Foreground: string(p.Keyword), Bold: true}

		case chromalib.Comment, chromalib.CommentHashbang, chromalib.CommentMultiline,
			chromalib.CommentPreproc, chromalib.CommentPreprocFile, chromalib.CommentSingle,
			chromalib.CommentSpecial:
			return codereview.Style{Foreground: string(p.Comment)}

		case chromalib.String, chromalib.StringAffix, chromalib.StringBacktick, chromalib.StringChar,
			chromalib.StringDelimiter, chromalib.StringDoc, chromalib.StringDouble,
			chromalib.StringEscape, chromalib.StringHeredoc, chromalib.StringInterpol,
			chromalib.StringOther, chromalib.StringRegex, chromalib.StringSingle,
			chromalib.StringSymbol:
			return codereview.Style{Foreground: string(p.String)}

		case chromalib.Number, chromalib.NumberBin, chromalib.NumberFloat, chromalib.NumberHex,
			chromalib.NumberInteger, chromalib.NumberIntegerLong, chromalib.NumberOct:
			return codereview.Style{Foreground: string(p.Number)}

		case chromalib.Operator, chromalib.OperatorWord:
			return codereview.Style{Foreground: string(p.Operator)}

		case chromalib.NameFunction, chromalib.NameFunctionMagic:
			return codereview.Style{Foreground: string(p.Function)}

		case chromalib.NameClass:
			return codereview.Style{Foreground: string(p.Type)}

		case chromalib.NameConstant:
			return codereview.Style{Foreground: string(p.Constant)}

		case chromalib.Punctuation:
			return codereview.Style{Foreground: string(p.Punctuation)}

		default:
			return codereview.Style{}
		}
	}
}
