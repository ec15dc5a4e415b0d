package jsonl

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/fwojciec/codereview"
)

// Compile-time interface verification.
var (
	_ codereview.HistoryFetcher = (*HistoryFile)(nil)
	_ codereview.RecordDeleter  = (*HistoryFile)(nil)
)

// HistoryFile serves an exported history file as a history source. The file
// holds a single user's records, so the identity is not consulted.
type HistoryFile struct {
	path    string
	archive *Archive
	mu      sync.Mutex
}

// NewHistoryFile creates a HistoryFile for the export at path.
func NewHistoryFile(path string) *HistoryFile {
	return &HistoryFile{path: path, archive: NewArchive()}
}

// History returns the file's records, newest first.
func (h *HistoryFile) History(ctx context.Context, identity string) ([]codereview.HistoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	records, err := h.archive.Load(h.path)
	if err != nil {
		return nil, &codereview.HistoryFetchError{Message: fmt.Sprintf("cannot read %s", h.path), Err: err}
	}
	slices.SortStableFunc(records, func(a, b codereview.HistoryRecord) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	return records, nil
}

// Delete rewrites the file without the record id. Deleting an id that is not
// present succeeds.
func (h *HistoryFile) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return &codereview.DeleteError{ID: id, Err: err}
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	records, err := h.archive.Load(h.path)
	if err != nil {
		return &codereview.DeleteError{ID: id, Err: err}
	}
	kept := slices.DeleteFunc(records, func(r codereview.HistoryRecord) bool { return r.ID == id })
	if err := h.archive.Save(h.path, kept); err != nil {
		return &codereview.DeleteError{ID: id, Err: err}
	}
	return nil
}
