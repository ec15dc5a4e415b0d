// Package postgres implements codereview.RecordStore on PostgreSQL using pgx.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/fwojciec/codereview"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schema string

// Compile-time interface verification.
var _ codereview.RecordStore = (*Store)(nil)

// DBPool abstracts pgxpool.Pool so the store can be tested with pgxmock.
type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Open connects to databaseURL and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, errors.New("postgres: database URL is required")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return pool, nil
}

// Store persists analyses in the analyses and analysis_results tables.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a Store on pool.
func New(pool DBPool, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{pool: pool, log: logger.Named("store")}
}

// Migrate creates the tables and indexes if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin migration: %w", err)
	}
	for _, stmt := range Statements() {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			s.rollback(ctx, tx)
			return fmt.Errorf("postgres: migrate: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit migration: %w", err)
	}
	s.log.Info("schema applied", zap.Int("statements", len(Statements())))
	return nil
}

// Statements returns the schema split into individual statements.
func Statements() []string {
	var out []string
	for stmt := range strings.SplitSeq(schema, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

const insertAnalysisSQL = `
    INSERT INTO analyses (id, user_id, code_snippet, language, file_name, summary, optimized_code, issues_count)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const insertResultSQL = `
    INSERT INTO analysis_results (id, analysis_id, issue_type, severity, title, description, line_number, suggestion)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// Save stores an analysis and its issues in one transaction and returns the
// new analysis id.
func (s *Store) Save(ctx context.Context, identity string, req codereview.AnalysisRequest, analysis *codereview.Analysis) (string, error) {
	if analysis == nil {
		return "", errors.New("postgres: nil analysis")
	}
	id := uuid.NewString()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("postgres: begin: %w", err)
	}

	_, err = tx.Exec(ctx, insertAnalysisSQL,
		id, identity, req.Code, req.Language, nullable(req.FileName),
		analysis.Summary, optimized(analysis), analysis.IssuesCount)
	if err != nil {
		s.rollback(ctx, tx)
		return "", fmt.Errorf("postgres: insert analysis: %w", err)
	}

	for i, issue := range analysis.Issues {
		_, err := tx.Exec(ctx, insertResultSQL,
			uuid.NewString(), id, issue.IssueType, issue.Severity,
			issue.Title, issue.Description, issue.LineNumber, issue.Suggestion)
		if err != nil {
			s.rollback(ctx, tx)
			return "", fmt.Errorf("postgres: insert issue %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("postgres: commit: %w", err)
	}
	s.log.Debug("analysis saved", zap.String("id", id), zap.Int("issues", len(analysis.Issues)))
	return id, nil
}

const listSQL = `
    SELECT id::text, language, COALESCE(file_name, ''), issues_count, created_at,
           code_snippet, COALESCE(summary, ''), COALESCE(optimized_code, '')
    FROM analyses
    WHERE user_id = $1
    ORDER BY created_at DESC`

// History returns every analysis stored for identity, newest first.
func (s *Store) History(ctx context.Context, identity string) ([]codereview.HistoryRecord, error) {
	rows, err := s.pool.Query(ctx, listSQL, identity)
	if err != nil {
		return nil, fmt.Errorf("postgres: query history: %w", err)
	}
	defer rows.Close()

	records := []codereview.HistoryRecord{}
	for rows.Next() {
		var r codereview.HistoryRecord
		if err := rows.Scan(
			&r.ID, &r.Language, &r.FileName, &r.IssuesCount, &r.CreatedAt,
			&r.CodeSnippet, &r.Summary, &r.OptimizedCode,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan history row: %w", err)
		}
		r.CreatedAt = r.CreatedAt.UTC()
		r.IssuesCount = max(r.IssuesCount, 0)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate history: %w", err)
	}
	return records, nil
}

const (
	deleteSQL      = `DELETE FROM analyses WHERE id = $1`
	deleteOwnedSQL = `DELETE FROM analyses WHERE id = $1 AND user_id = $2`
)

// Delete removes one analysis by id regardless of owner. Its issues are
// removed by the cascade. Deleting an id that no longer exists succeeds.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.delete(ctx, id, deleteSQL, id)
}

// DeleteFor removes one analysis by id only if it belongs to identity. A
// record owned by someone else is left alone and reported like a missing one.
func (s *Store) DeleteFor(ctx context.Context, identity, id string) error {
	if identity == "" {
		return &codereview.DeleteError{ID: id, Message: "identity is required"}
	}
	return s.delete(ctx, id, deleteOwnedSQL, id, identity)
}

func (s *Store) delete(ctx context.Context, id, sql string, args ...any) error {
	if _, err := uuid.Parse(id); err != nil {
		return &codereview.DeleteError{ID: id, Message: "invalid record id", Err: err}
	}
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return &codereview.DeleteError{ID: id, Err: err}
	}
	if tag.RowsAffected() == 0 {
		s.log.Info("delete matched no rows", zap.String("id", id))
	}
	return nil
}

func (s *Store) rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		s.log.Error("failed to rollback transaction", zap.Error(err))
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optimized(a *codereview.Analysis) *string {
	if a.OptimizedCode == nil || *a.OptimizedCode == "" {
		return nil
	}
	return a.OptimizedCode
}
