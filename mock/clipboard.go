package mock

import "github.com/fwojciec/codereview"

// Compile-time interface verification.
var (
	_ codereview.Clipboard  = (*Clipboard)(nil)
	_ codereview.CodeDiffer = (*CodeDiffer)(nil)
)

// Clipboard is a mock implementation of codereview.Clipboard.
type Clipboard struct {
	CopyFn func(content string) error
}

func (c *Clipboard) Copy(content string) error {
	return c.CopyFn(content)
}

// CodeDiffer is a mock implementation of codereview.CodeDiffer.
type CodeDiffer struct {
	DiffFn func(original, optimized string) (*codereview.Diff, error)
}

func (d *CodeDiffer) Diff(original, optimized string) (*codereview.Diff, error) {
	return d.DiffFn(original, optimized)
}
