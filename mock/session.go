package mock

import (
	"context"

	"github.com/fwojciec/codereview"
)

// Compile-time interface verification.
var (
	_ codereview.SessionAccessor = (*SessionAccessor)(nil)
	_ codereview.SessionStore    = (*SessionStore)(nil)
)

// SessionAccessor is a mock implementation of codereview.SessionAccessor.
type SessionAccessor struct {
	CurrentFn func(ctx context.Context) (*codereview.Session, error)
}

func (a *SessionAccessor) Current(ctx context.Context) (*codereview.Session, error) {
	return a.CurrentFn(ctx)
}

// SessionStore is a mock implementation of codereview.SessionStore.
type SessionStore struct {
	CurrentFn func(ctx context.Context) (*codereview.Session, error)
	SaveFn    func(ctx context.Context, accessToken string) (*codereview.Session, error)
	ClearFn   func(ctx context.Context) error
}

func (s *SessionStore) Current(ctx context.Context) (*codereview.Session, error) {
	return s.CurrentFn(ctx)
}

func (s *SessionStore) Save(ctx context.Context, accessToken string) (*codereview.Session, error) {
	return s.SaveFn(ctx, accessToken)
}

func (s *SessionStore) Clear(ctx context.Context) error {
	return s.ClearFn(ctx)
}
