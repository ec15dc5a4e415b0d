package codereview

// Diff is a parsed unified diff between an original snippet and its optimized
// rewrite.
type Diff struct {
	Files []FileDiff
}

// FileDiff represents changes to a single file.
type FileDiff struct {
	OldPath string
	NewPath string
	Hunks   []Hunk
}

// Stats returns the number of added and deleted lines in the file.
func (f FileDiff) Stats() (added, deleted int) {
	for _, hunk := range f.Hunks {
		for _, line := range hunk.Lines {
			switch line.Type {
			case LineAdded:
				added++
			case LineDeleted:
				deleted++
			}
		}
	}
	return added, deleted
}

// Hunk represents a contiguous block of changes within a file.
type Hunk struct {
	OldStart int // From @@ -X,...
	OldCount int // From @@ -X,Y ...
	NewStart int // From @@ ...,+X
	NewCount int // From @@ ...,+X,Y
	Lines    []Line
}

// Line represents a single line within a hunk.
type Line struct {
	Type       LineType
	Content    string
	OldLineNum int // 0 if line is Added
	NewLineNum int // 0 if line is Deleted
}

// LineType represents the type of a diff line.
type LineType int

// Line types.
const (
	LineContext LineType = iota
	LineAdded
	LineDeleted
)

// CodeDiffer computes the changes between the submitted code and the
// optimized rewrite returned by the analysis backend.
type CodeDiffer interface {
	// Diff returns nil with no error when original and optimized are identical.
	Diff(original, optimized string) (*Diff, error)
}
