// Package vectorstore provides VectorSearchStore implementations: a
// process-local in-memory store for tests and demos, and a resilience
// decorator that shields callers from a failing external backend. An
// embedded semantic implementation lives in the chromem subpackage.
package vectorstore

import (
	"context"
	"strings"
	"sync"

	"github.com/salescrew/salesmesh/core"
)

// InMemoryStore is a naive process-local VectorSearchStore. Search is a
// linear scan with scalar filter matching and case-insensitive substring
// ranking; records are kept in insertion order, which makes backend order
// stable and tests deterministic. Upsert replaces the record sharing the
// same derived identity in place. Suitable only for tests and demos; swap
// in the chromem subpackage or a hosted vector DB for semantic retrieval.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[core.Namespace][]core.VectorRecord
	index   map[string]int // dedupe key -> position within the namespace slice
}

var _ core.VectorSearchStore = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-memory vector store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[core.Namespace][]core.VectorRecord),
		index:   make(map[string]int),
	}
}

// Search returns up to topK records matching the filter, preserving
// insertion order. A non-empty query additionally requires a
// case-insensitive substring match on the record text.
func (s *InMemoryStore) Search(ctx context.Context, ns core.Namespace, query string, f core.SearchFilter, topK int) ([]core.VectorRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	out := make([]core.VectorRecord, 0, topK)
	for _, r := range s.records[ns] {
		if topK > 0 && len(out) >= topK {
			break
		}
		if !f.Matches(r.Metadata) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(r.Text), q) {
			continue
		}
		out = append(out, cloneRecord(r))
	}
	return out, nil
}

// Upsert stores the record, replacing any record with the same derived
// identity within the namespace.
func (s *InMemoryStore) Upsert(ctx context.Context, record core.VectorRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := record.DedupeKey()
	stored := cloneRecord(record)
	if pos, ok := s.index[key]; ok {
		s.records[record.Namespace][pos] = stored
	} else {
		s.index[key] = len(s.records[record.Namespace])
		s.records[record.Namespace] = append(s.records[record.Namespace], stored)
	}
	return record.Identity(), nil
}

// Len reports the number of records stored in a namespace.
func (s *InMemoryStore) Len(ns core.Namespace) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[ns])
}

func cloneRecord(r core.VectorRecord) core.VectorRecord {
	return core.VectorRecord{Text: r.Text, Namespace: r.Namespace, Metadata: r.Metadata.Clone()}
}
