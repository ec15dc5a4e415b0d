// Package gitdiff computes and parses unified diffs between a submitted
// snippet and its optimized rewrite, using aymanbagabas/go-udiff and
// bluekeyes/go-gitdiff.
package gitdiff

import (
	"io"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/fwojciec/codereview"
)

// Parser parses unified diff content using go-gitdiff.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads diff content and returns the parsed result.
func (p *Parser) Parse(r io.Reader) (*codereview.Diff, error) {
	files, _, err := gitdiff.Parse(r)
	if err != nil {
		return nil, err
	}

	result := &codereview.Diff{
		Files: make([]codereview.FileDiff, 0, len(files)),
	}
	for _, f := range files {
		result.Files = append(result.Files, convertFile(f))
	}

	return result, nil
}

func convertFile(f *gitdiff.File) codereview.FileDiff {
	fd := codereview.FileDiff{
		OldPath: f.OldName,
		NewPath: f.NewName,
		Hunks:   make([]codereview.Hunk, 0, len(f.TextFragments)),
	}
	for _, frag := range f.TextFragments {
		fd.Hunks = append(fd.Hunks, convertFragment(frag))
	}
	return fd
}

func convertFragment(frag *gitdiff.TextFragment) codereview.Hunk {
	hunk := codereview.Hunk{
		OldStart: int(frag.OldPosition),
		OldCount: int(frag.OldLines),
		NewStart: int(frag.NewPosition),
		NewCount: int(frag.NewLines),
	}

	oldLineNum := int(frag.OldPosition)
	newLineNum := int(frag.NewPosition)

	for _, l := range frag.Lines {
		line := codereview.Line{Content: strings.TrimSuffix(l.Line, "\n")}

		switch l.Op {
		case gitdiff.OpContext:
			line.Type = codereview.LineContext
			line.OldLineNum = oldLineNum
			line.NewLineNum = newLineNum
			oldLineNum++
			newLineNum++
		case gitdiff.OpAdd:
			line.Type = codereview.LineAdded
			line.NewLineNum = newLineNum
			newLineNum++
		case gitdiff.OpDelete:
			line.Type = codereview.LineDeleted
			line.OldLineNum = oldLineNum
			oldLineNum++
		}

		hunk.Lines = append(hunk.Lines, line)
	}

	return hunk
}
