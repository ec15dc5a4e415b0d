package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fwojciec/codereview"
	"github.com/golang-jwt/jwt/v5"
)

// Compile-time interface verification.
var _ codereview.SessionStore = (*SessionStore)(nil)

// ErrInvalidToken is returned by Save when the access token cannot be read.
var ErrInvalidToken = errors.New("fs: invalid access token")

// SessionStore keeps the signed-in session in a JSON file readable only by
// the owner. The access token is issued by an external auth backend; its
// signature is not checked here because the backend verifies it on use.
type SessionStore struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// SessionOption configures a SessionStore.
type SessionOption func(*SessionStore)

// WithClock sets the time source used for expiry checks.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionStore) { s.now = now }
}

// NewSessionStore creates a SessionStore backed by the file at path.
func NewSessionStore(path string, opts ...SessionOption) *SessionStore {
	s := &SessionStore{path: path, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the session file location.
func (s *SessionStore) Path() string { return s.path }

// Current returns the stored session. It returns codereview.ErrNoSession when
// no session file exists and codereview.ErrSessionExpired when the stored
// session has expired.
func (s *SessionStore) Current(ctx context.Context) (*codereview.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, codereview.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("fs: read session: %w", err)
	}

	var session codereview.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("fs: decode session: %w", err)
	}
	if session.UserID == "" {
		return nil, codereview.ErrNoSession
	}
	if session.Expired(s.now()) {
		return nil, codereview.ErrSessionExpired
	}
	return &session, nil
}

// tokenClaims are the claims read from an access token.
type tokenClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Save reads the identity and expiry from accessToken and stores the
// resulting session. Tokens without a subject are rejected, as are tokens
// that have already expired.
func (s *SessionStore) Save(ctx context.Context, accessToken string) (*codereview.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	session := &codereview.Session{
		UserID:      claims.Subject,
		Email:       claims.Email,
		AccessToken: accessToken,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	if session.Expired(s.now()) {
		return nil, codereview.ErrSessionExpired
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("fs: encode session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeFileAtomic(s.path, data, 0600); err != nil {
		return nil, fmt.Errorf("fs: write session: %w", err)
	}
	return session, nil
}

// Clear removes the session file. Clearing when signed out is not an error.
func (s *SessionStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("fs: clear session: %w", err)
	}
	return nil
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
