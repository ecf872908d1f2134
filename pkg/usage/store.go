// Package usage persists LLM call records so operators can track token
// spend and error rates per provider.
package usage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	titanerrors "github.com/titanlabs/titan/pkg/errors"
	"github.com/titanlabs/titan/pkg/llm"
)

// Record is one LLM call as stored.
type Record struct {
	ID               string
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	DurationMS       int64
	Status           string
	ErrorCode        string
	CreatedAt        time.Time
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// SQLiteStore persists usage records in SQLite and plugs into the LLM
// router as its call recorder.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an open database handle and ensures schema.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if err := ensureUsageSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Open opens (or creates) the usage database at path and returns a store
// backed by it.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteStore(db)
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordCall implements llm.Recorder. The recorder must not fail the
// provider call it observes, so a broken usage database is logged rather
// than returned.
func (s *SQLiteStore) RecordCall(ctx context.Context, c llm.Completion, callErr error) {
	status := StatusOK
	errorCode := ""
	if callErr != nil {
		status = StatusError
		errorCode = string(titanerrors.Code(callErr))
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO llm_usage (
			id, provider, model, prompt_tokens, completion_tokens, total_tokens,
			duration_ms, status, error_code, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		uuid.NewString(),
		c.Provider,
		c.Model,
		c.Usage.PromptTokens,
		c.Usage.CompletionTokens,
		c.Usage.TotalTokens,
		c.Duration.Milliseconds(),
		status,
		errorCode,
		time.Now().UTC(),
	)
	if err != nil {
		slog.WarnContext(ctx, "usage record insert failed",
			"provider", c.Provider,
			"error", err,
		)
	}
}

// ProviderStats aggregates usage for one provider id.
type ProviderStats struct {
	Provider    string
	Calls       int
	Errors      int
	TotalTokens int
}

// Stats summarizes recorded usage.
type Stats struct {
	TotalCalls  int
	TotalErrors int
	TotalTokens int
	ByProvider  []ProviderStats
}

// Stats aggregates all recorded calls, grouped by provider.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT provider,
		       COUNT(*),
		       SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END),
		       COALESCE(SUM(total_tokens), 0)
		FROM llm_usage
		GROUP BY provider
		ORDER BY provider ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &Stats{}
	for rows.Next() {
		var p ProviderStats
		if err := rows.Scan(&p.Provider, &p.Calls, &p.Errors, &p.TotalTokens); err != nil {
			return nil, err
		}
		stats.ByProvider = append(stats.ByProvider, p)
		stats.TotalCalls += p.Calls
		stats.TotalErrors += p.Errors
		stats.TotalTokens += p.TotalTokens
	}
	return stats, rows.Err()
}

// Recent returns the newest records, most recent first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, provider, model, prompt_tokens, completion_tokens, total_tokens,
		       duration_ms, status, error_code, created_at
		FROM llm_usage
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.ID, &r.Provider, &r.Model,
			&r.PromptTokens, &r.CompletionTokens, &r.TotalTokens,
			&r.DurationMS, &r.Status, &r.ErrorCode, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func ensureUsageSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS llm_usage (
			id TEXT PRIMARY KEY,
			provider TEXT NOT NULL,
			model TEXT,
			prompt_tokens INTEGER NOT NULL DEFAULT 0,
			completion_tokens INTEGER NOT NULL DEFAULT 0,
			total_tokens INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error_code TEXT,
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_llm_usage_provider ON llm_usage(provider);
		CREATE INDEX IF NOT EXISTS idx_llm_usage_status ON llm_usage(status);
	`)
	return err
}
