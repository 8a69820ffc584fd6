// Package sqlite provides a durable MemoryStore backed by SQLite via the
// pure Go modernc.org/sqlite driver, so the engine embeds without cgo.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/salescrew/salesmesh/core"
	"github.com/salescrew/salesmesh/embedding"
)

const schema = `
CREATE TABLE IF NOT EXISTS memory_entries (
    id TEXT PRIMARY KEY,
    content TEXT NOT NULL,
    priority INTEGER NOT NULL DEFAULT 0,
    tags TEXT,
    metadata TEXT,
    embedding TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_memory_entries_priority ON memory_entries(priority);
CREATE INDEX IF NOT EXISTS idx_memory_entries_created_at ON memory_entries(created_at);
`

// Options configure the SQLite store.
type Options struct {
	// Embedder, when set, embeds entry content on write and ranks Search
	// results by cosine similarity. Without it Search degrades to a
	// substring match.
	Embedder embedding.Embedder
}

// Store implements core.MemoryStore on a SQLite database.
type Store struct {
	db       *sql.DB
	embedder embedding.Embedder
}

var _ core.MemoryStore = (*Store)(nil)

// New opens (or creates) the database at dsn and applies the schema. The
// schema statements are idempotent so reopening an existing file is safe.
func New(dsn string, optFns ...func(o *Options)) (*Store, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	// modernc.org/sqlite serializes writes itself; a single connection
	// avoids SQLITE_BUSY on concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &Store{db: db, embedder: opts.Embedder}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Write upserts the entry by ID. The original creation time survives an
// update.
func (s *Store) Write(ctx context.Context, entry core.MemoryEntry) (string, error) {
	if entry.ID == "" {
		return "", fmt.Errorf("sqlite: entry ID is required")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	tagsJSON, err := json.Marshal(entry.Tags)
	if err != nil {
		return "", fmt.Errorf("sqlite: marshal tags: %w", err)
	}
	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return "", fmt.Errorf("sqlite: marshal metadata: %w", err)
	}

	var embeddingJSON []byte
	if s.embedder != nil {
		vec, err := s.embedder.Embed(ctx, entry.Content)
		if err != nil {
			return "", fmt.Errorf("sqlite: embed content: %w", err)
		}
		embeddingJSON, err = json.Marshal(vec)
		if err != nil {
			return "", fmt.Errorf("sqlite: marshal embedding: %w", err)
		}
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO memory_entries (id, content, priority, tags, metadata, embedding, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			priority = excluded.priority,
			tags = excluded.tags,
			metadata = excluded.metadata,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at`,
		entry.ID, entry.Content, int(entry.Priority), string(tagsJSON), string(metadataJSON),
		nullableString(embeddingJSON), entry.CreatedAt.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("sqlite: upsert entry: %w", err)
	}
	return entry.ID, nil
}

// List returns entries carrying all the given tags at or above minPriority,
// ordered by priority descending then recency. Priority filtering happens in
// SQL; tag containment is checked in Go since SQLite stores tags as JSON.
func (s *Store) List(ctx context.Context, tags []string, minPriority *core.Priority, limit int) ([]core.MemoryEntry, error) {
	query := `SELECT id, content, priority, tags, metadata, created_at FROM memory_entries`
	var args []any
	if minPriority != nil {
		query += ` WHERE priority >= ?`
		args = append(args, int(*minPriority))
	}
	query += ` ORDER BY priority DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list entries: %w", err)
	}
	defer rows.Close()

	var out []core.MemoryEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		if !entry.HasTags(tags) {
			continue
		}
		out = append(out, entry)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list entries: %w", err)
	}
	return out, nil
}

// Search ranks entries by cosine similarity to the query embedding when an
// embedder is configured, falling back to a substring match otherwise.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]core.MemoryEntry, error) {
	if s.embedder == nil {
		return s.substringSearch(ctx, query, limit)
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: embed query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, priority, tags, metadata, created_at, embedding
		FROM memory_entries WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: search entries: %w", err)
	}
	defer rows.Close()

	type scored struct {
		entry core.MemoryEntry
		score float64
	}
	var candidates []scored
	for rows.Next() {
		var (
			id, content, tagsJSON, metadataJSON, createdAt string
			priority                                       int
			embeddingJSON                                  sql.NullString
		)
		if err := rows.Scan(&id, &content, &priority, &tagsJSON, &metadataJSON, &createdAt, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("sqlite: scan entry: %w", err)
		}
		entry, err := buildEntry(id, content, priority, tagsJSON, metadataJSON, createdAt)
		if err != nil {
			return nil, err
		}
		var vec []float32
		if err := json.Unmarshal([]byte(embeddingJSON.String), &vec); err != nil {
			continue
		}
		candidates = append(candidates, scored{entry: entry, score: cosineSimilarity(queryVec, vec)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: search entries: %w", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	out := make([]core.MemoryEntry, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.entry)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *Store) substringSearch(ctx context.Context, query string, limit int) ([]core.MemoryEntry, error) {
	sqlQuery := `SELECT id, content, priority, tags, metadata, created_at FROM memory_entries
		WHERE content LIKE ? ORDER BY created_at DESC`
	args := []any{"%" + query + "%"}
	if limit > 0 {
		sqlQuery += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: search entries: %w", err)
	}
	defer rows.Close()

	var out []core.MemoryEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: search entries: %w", err)
	}
	return out, nil
}

func scanEntry(rows *sql.Rows) (core.MemoryEntry, error) {
	var (
		id, content, tagsJSON, metadataJSON, createdAt string
		priority                                       int
	)
	if err := rows.Scan(&id, &content, &priority, &tagsJSON, &metadataJSON, &createdAt); err != nil {
		return core.MemoryEntry{}, fmt.Errorf("sqlite: scan entry: %w", err)
	}
	return buildEntry(id, content, priority, tagsJSON, metadataJSON, createdAt)
}

func buildEntry(id, content string, priority int, tagsJSON, metadataJSON, createdAt string) (core.MemoryEntry, error) {
	entry := core.MemoryEntry{ID: id, Content: content, Priority: core.Priority(priority)}
	if err := json.Unmarshal([]byte(tagsJSON), &entry.Tags); err != nil {
		return core.MemoryEntry{}, fmt.Errorf("sqlite: unmarshal tags: %w", err)
	}
	if err := json.Unmarshal([]byte(metadataJSON), &entry.Metadata); err != nil {
		return core.MemoryEntry{}, fmt.Errorf("sqlite: unmarshal metadata: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return core.MemoryEntry{}, fmt.Errorf("sqlite: parse created_at: %w", err)
	}
	entry.CreatedAt = ts
	return entry, nil
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
