// Package postgres provides a durable MemoryStore backed by PostgreSQL.
// When the pgvector extension is installed, Search ranks entries by cosine
// distance over stored embeddings; without it, Search degrades to a
// case-insensitive substring match so the store stays usable on a stock
// server.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/salescrew/salesmesh/core"
	"github.com/salescrew/salesmesh/embedding"
	"github.com/salescrew/salesmesh/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS memory_entries (
    id TEXT PRIMARY KEY,
    content TEXT NOT NULL,
    priority INTEGER NOT NULL DEFAULT 0,
    tags TEXT[] NOT NULL DEFAULT '{}',
    metadata JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_memory_entries_priority ON memory_entries(priority);
CREATE INDEX IF NOT EXISTS idx_memory_entries_created_at ON memory_entries(created_at);
CREATE INDEX IF NOT EXISTS idx_memory_entries_tags ON memory_entries USING GIN(tags);
`

// migrationPgvector adds the embedding column. Applied only when the vector
// extension is available; safe to run repeatedly.
const migrationPgvector = `
DO $$
BEGIN
    IF NOT EXISTS (
        SELECT 1 FROM information_schema.columns
        WHERE table_name = 'memory_entries' AND column_name = 'embedding'
    ) THEN
        ALTER TABLE memory_entries ADD COLUMN embedding vector;
    END IF;
END
$$;
`

// Options configure the PostgreSQL store.
type Options struct {
	// Embedder, when set, embeds entry content on write so Search can rank
	// by vector similarity. Required for semantic search.
	Embedder embedding.Embedder
	// Logger receives degradation notices. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Store implements core.MemoryStore on PostgreSQL.
type Store struct {
	db                *sql.DB
	embedder          embedding.Embedder
	logger            logging.Logger
	pgvectorAvailable bool
}

var _ core.MemoryStore = (*Store)(nil)

// New connects to the database at dsn and applies the schema. Schema
// statements are idempotent so pointing at an existing database is safe.
func New(dsn string, optFns ...func(o *Options)) (*Store, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: apply schema: %w", err)
	}

	s := &Store{db: db, embedder: opts.Embedder, logger: opts.Logger}

	// pgvector may not be installed on the server. Probe for it and
	// degrade to substring search when absent.
	if _, err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		s.logger.Warn("pgvector extension unavailable, semantic search disabled", "error", err)
	} else if _, err := db.Exec(migrationPgvector); err != nil {
		s.logger.Warn("pgvector migration failed, semantic search disabled", "error", err)
	} else {
		s.pgvectorAvailable = true
	}

	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Write upserts the entry by ID. The original creation time survives an
// update.
func (s *Store) Write(ctx context.Context, entry core.MemoryEntry) (string, error) {
	if entry.ID == "" {
		return "", fmt.Errorf("postgres: entry ID is required")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return "", fmt.Errorf("postgres: marshal metadata: %w", err)
	}

	if s.pgvectorAvailable && s.embedder != nil {
		vec, err := s.embedder.Embed(ctx, entry.Content)
		if err != nil {
			return "", fmt.Errorf("postgres: embed content: %w", err)
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO memory_entries (id, content, priority, tags, metadata, embedding, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT(id) DO UPDATE SET
				content = excluded.content,
				priority = excluded.priority,
				tags = excluded.tags,
				metadata = excluded.metadata,
				embedding = excluded.embedding,
				updated_at = NOW()`,
			entry.ID, entry.Content, int(entry.Priority), pq.Array(entry.Tags), metadataJSON,
			pgvector.NewVector(vec), entry.CreatedAt,
		)
		if err != nil {
			return "", fmt.Errorf("postgres: upsert entry: %w", err)
		}
		return entry.ID, nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO memory_entries (id, content, priority, tags, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			priority = excluded.priority,
			tags = excluded.tags,
			metadata = excluded.metadata,
			updated_at = NOW()`,
		entry.ID, entry.Content, int(entry.Priority), pq.Array(entry.Tags), metadataJSON, entry.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("postgres: upsert entry: %w", err)
	}
	return entry.ID, nil
}

// List returns entries whose tag array contains all the given tags at or
// above minPriority, ordered by priority descending then recency. Tag
// containment uses the GIN-indexed @> operator.
func (s *Store) List(ctx context.Context, tags []string, minPriority *core.Priority, limit int) ([]core.MemoryEntry, error) {
	query := `SELECT id, content, priority, tags, metadata, created_at FROM memory_entries WHERE tags @> $1`
	args := []any{pq.Array(tags)}
	if minPriority != nil {
		query += fmt.Sprintf(" AND priority >= $%d", len(args)+1)
		args = append(args, int(*minPriority))
	}
	query += " ORDER BY priority DESC, created_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Search ranks entries by cosine distance to the query embedding when
// pgvector and an embedder are available; otherwise it falls back to a
// case-insensitive substring match ordered by recency.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]core.MemoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	if s.pgvectorAvailable && s.embedder != nil {
		vec, err := s.embedder.Embed(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("postgres: embed query: %w", err)
		}
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, content, priority, tags, metadata, created_at
			FROM memory_entries
			WHERE embedding IS NOT NULL
			ORDER BY embedding <=> $1
			LIMIT $2`,
			pgvector.NewVector(vec), limit,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: vector search: %w", err)
		}
		defer rows.Close()
		return scanEntries(rows)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, priority, tags, metadata, created_at
		FROM memory_entries
		WHERE content ILIKE $1
		ORDER BY created_at DESC
		LIMIT $2`,
		"%"+query+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: substring search: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]core.MemoryEntry, error) {
	var out []core.MemoryEntry
	for rows.Next() {
		var (
			entry        core.MemoryEntry
			priority     int
			metadataJSON []byte
		)
		if err := rows.Scan(&entry.ID, &entry.Content, &priority, pq.Array(&entry.Tags), &metadataJSON, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan entry: %w", err)
		}
		entry.Priority = core.Priority(priority)
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("postgres: unmarshal metadata: %w", err)
			}
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: scan entries: %w", err)
	}
	return out, nil
}
