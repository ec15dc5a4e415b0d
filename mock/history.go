package mock

import (
	"context"

	"github.com/fwojciec/codereview"
)

// Compile-time interface verification.
var (
	_ codereview.HistoryFetcher = (*HistoryFetcher)(nil)
	_ codereview.RecordDeleter  = (*RecordDeleter)(nil)
	_ codereview.RecordStore    = (*RecordStore)(nil)
	_ codereview.HistoryArchive = (*HistoryArchive)(nil)
)

// HistoryFetcher is a mock implementation of codereview.HistoryFetcher.
type HistoryFetcher struct {
	HistoryFn func(ctx context.Context, identity string) ([]codereview.HistoryRecord, error)
}

func (f *HistoryFetcher) History(ctx context.Context, identity string) ([]codereview.HistoryRecord, error) {
	return f.HistoryFn(ctx, identity)
}

// RecordDeleter is a mock implementation of codereview.RecordDeleter.
type RecordDeleter struct {
	DeleteFn func(ctx context.Context, id string) error
}

func (d *RecordDeleter) Delete(ctx context.Context, id string) error {
	return d.DeleteFn(ctx, id)
}

// RecordStore is a mock implementation of codereview.RecordStore.
type RecordStore struct {
	SaveFn    func(ctx context.Context, identity string, req codereview.AnalysisRequest, analysis *codereview.Analysis) (string, error)
	HistoryFn func(ctx context.Context, identity string) ([]codereview.HistoryRecord, error)
	DeleteFn  func(ctx context.Context, id string) error
}

func (s *RecordStore) Save(ctx context.Context, identity string, req codereview.AnalysisRequest, analysis *codereview.Analysis) (string, error) {
	return s.SaveFn(ctx, identity, req, analysis)
}

func (s *RecordStore) History(ctx context.Context, identity string) ([]codereview.HistoryRecord, error) {
	return s.HistoryFn(ctx, identity)
}

func (s *RecordStore) Delete(ctx context.Context, id string) error {
	return s.DeleteFn(ctx, id)
}

// HistoryArchive is a mock implementation of codereview.HistoryArchive.
type HistoryArchive struct {
	LoadFn func(path string) ([]codereview.HistoryRecord, error)
	SaveFn func(path string, records []codereview.HistoryRecord) error
}

func (a *HistoryArchive) Load(path string) ([]codereview.HistoryRecord, error) {
	return a.LoadFn(path)
}

func (a *HistoryArchive) Save(path string, records []codereview.HistoryRecord) error {
	return a.SaveFn(path, records)
}
