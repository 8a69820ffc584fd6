// Package memorystore provides MemoryStore implementations: a process-local
// in-memory store for tests and demos, plus durable SQLite and PostgreSQL
// stores in subpackages.
package memorystore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/salescrew/salesmesh/core"
)

// InMemoryStore keeps tagged memory entries in process memory. Writes are
// upserts keyed by entry ID, so replayed writes with a derived identity
// converge on a single entry.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]core.MemoryEntry
	order   []string
}

var _ core.MemoryStore = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-memory memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]core.MemoryEntry)}
}

// Write stores the entry, replacing any entry with the same ID. The original
// creation time survives an update.
func (s *InMemoryStore) Write(ctx context.Context, entry core.MemoryEntry) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if prev, ok := s.entries[entry.ID]; ok {
		entry.CreatedAt = prev.CreatedAt
	} else {
		s.order = append(s.order, entry.ID)
	}
	s.entries[entry.ID] = cloneEntry(entry)
	return entry.ID, nil
}

// List returns entries carrying all the given tags at or above minPriority,
// ordered by priority descending then recency.
func (s *InMemoryStore) List(ctx context.Context, tags []string, minPriority *core.Priority, limit int) ([]core.MemoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.MemoryEntry
	for _, id := range s.order {
		entry := s.entries[id]
		if !entry.HasTags(tags) {
			continue
		}
		if minPriority != nil && entry.Priority < *minPriority {
			continue
		}
		out = append(out, cloneEntry(entry))
	}
	sortEntries(out)
	return clip(out, limit), nil
}

// Search performs a case-insensitive substring match on entry content,
// ordered by recency. It is a stand-in for semantic recall; durable stores
// rank by embedding similarity instead.
func (s *InMemoryStore) Search(ctx context.Context, query string, limit int) ([]core.MemoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	var out []core.MemoryEntry
	for _, id := range s.order {
		entry := s.entries[id]
		if q != "" && !strings.Contains(strings.ToLower(entry.Content), q) {
			continue
		}
		out = append(out, cloneEntry(entry))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return clip(out, limit), nil
}

// Len reports the number of stored entries.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func sortEntries(entries []core.MemoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority > entries[j].Priority
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}

func clip(entries []core.MemoryEntry, limit int) []core.MemoryEntry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}

func cloneEntry(e core.MemoryEntry) core.MemoryEntry {
	out := e
	out.Tags = append([]string(nil), e.Tags...)
	out.Metadata = e.Metadata.Clone()
	return out
}
