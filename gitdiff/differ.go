package gitdiff

import (
	"fmt"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"github.com/fwojciec/codereview"
)

// Compile-time interface verification.
var _ codereview.CodeDiffer = (*Differ)(nil)

// Labels used for the two sides of a snippet diff.
const (
	OriginalLabel  = "original"
	OptimizedLabel = "optimized"
)

// Differ diffs a snippet against its optimized rewrite.
type Differ struct {
	parser *Parser
}

// NewDiffer creates a new Differ.
func NewDiffer() *Differ {
	return &Differ{parser: NewParser()}
}

// Diff returns the changes from original to optimized as a single-file
// diff, or nil when the two are identical.
func (d *Differ) Diff(original, optimized string) (*codereview.Diff, error) {
	if original == optimized {
		return nil, nil
	}
	unified := udiff.Unified(OriginalLabel, OptimizedLabel, original, optimized)
	if unified == "" {
		return nil, nil
	}

	diff, err := d.parser.Parse(strings.NewReader(unified))
	if err != nil {
		return nil, fmt.Errorf("gitdiff: parse snippet diff: %w", err)
	}
	for i := range diff.Files {
		diff.Files[i].OldPath = OriginalLabel
		diff.Files[i].NewPath = OptimizedLabel
	}
	return diff, nil
}
