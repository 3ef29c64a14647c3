// File: internal/store/store.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/cadence-health/carebrief/api/schemas"
)

// DBPool abstracts the pgxpool.Pool so the store can be mocked in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store provides a PostgreSQL implementation of schemas.SummaryStore. Summary
// history is an audit surface; it never participates in the generation path.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

const sqlInsertSummary = `
	INSERT INTO summaries (id, persona, template_id, summary, sections, processing_time_ms, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
`

// SaveSummary persists one finished summary.
func (s *Store) SaveSummary(ctx context.Context, rec schemas.SummaryRecord) error {
	sections, err := json.Marshal(rec.Sections)
	if err != nil {
		return fmt.Errorf("failed to marshal sections: %w", err)
	}

	_, err = s.pool.Exec(ctx, sqlInsertSummary,
		rec.ID, string(rec.Persona), rec.TemplateID, rec.Summary, sections,
		rec.ProcessingTime.Milliseconds(), rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert summary: %w", err)
	}

	s.log.Debug("Summary persisted", zap.String("id", rec.ID))
	return nil
}

const sqlSelectRecent = `
	SELECT id, persona, template_id, summary, sections, processing_time_ms, created_at
	FROM summaries ORDER BY created_at DESC LIMIT $1;
`

// GetRecent returns the most recently persisted summaries, newest first.
func (s *Store) GetRecent(ctx context.Context, limit int) ([]schemas.SummaryRecord, error) {
	rows, err := s.pool.Query(ctx, sqlSelectRecent, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer rows.Close()

	var out []schemas.SummaryRecord
	for rows.Next() {
		var rec schemas.SummaryRecord
		var persona string
		var sections []byte
		var processingMs int64

		if err := rows.Scan(&rec.ID, &persona, &rec.TemplateID, &rec.Summary,
			&sections, &processingMs, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		if err := json.Unmarshal(sections, &rec.Sections); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sections: %w", err)
		}
		rec.Persona = schemas.Persona(persona)
		rec.ProcessingTime = time.Duration(processingMs) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}
