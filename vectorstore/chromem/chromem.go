// Package chromem provides a VectorSearchStore backed by chromem-go, a pure
// Go embedded vector database. Embeddings are computed through an
// embedding.Embedder so the store never depends on a particular model.
package chromem

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/salescrew/salesmesh/core"
	"github.com/salescrew/salesmesh/embedding"
)

// Store wraps a chromem DB with one collection per namespace.
type Store struct {
	db          *chromem.DB
	embedder    embedding.Embedder
	collections map[core.Namespace]*chromem.Collection
	mu          sync.RWMutex
}

var _ core.VectorSearchStore = (*Store)(nil)

// New creates an empty embedded store using the given embedder.
func New(embedder embedding.Embedder) (*Store, error) {
	if embedder == nil {
		return nil, fmt.Errorf("chromem store: embedder is required")
	}
	return &Store{
		db:          chromem.NewDB(),
		embedder:    embedder,
		collections: make(map[core.Namespace]*chromem.Collection),
	}, nil
}

func (s *Store) collection(ns core.Namespace) (*chromem.Collection, error) {
	s.mu.RLock()
	col, ok := s.collections[ns]
	s.mu.RUnlock()
	if ok {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if col, ok := s.collections[ns]; ok {
		return col, nil
	}

	col, err := s.db.CreateCollection(string(ns), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection %s: %w", ns, err)
	}
	s.collections[ns] = col
	return col, nil
}

// Upsert embeds the record text and stores the document under the record's
// derived identity, replacing any prior document with the same identity.
func (s *Store) Upsert(ctx context.Context, record core.VectorRecord) (string, error) {
	if !record.Namespace.Valid() {
		return "", fmt.Errorf("chromem store: unknown namespace %q", record.Namespace)
	}
	col, err := s.collection(record.Namespace)
	if err != nil {
		return "", err
	}

	vec, err := s.embedder.Embed(ctx, record.Text)
	if err != nil {
		return "", fmt.Errorf("embed record: %w", err)
	}

	id := record.Identity()
	doc := chromem.Document{
		ID:        id,
		Content:   record.Text,
		Embedding: vec,
		Metadata:  encodeMetadata(record.Metadata),
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return "", fmt.Errorf("add document: %w", err)
	}
	return id, nil
}

// Search embeds the query and returns up to topK records matching the
// filter, ordered by similarity. An empty query falls back to embedding the
// namespace name so filter-only searches still rank deterministically.
func (s *Store) Search(ctx context.Context, ns core.Namespace, query string, f core.SearchFilter, topK int) ([]core.VectorRecord, error) {
	if !ns.Valid() {
		return nil, fmt.Errorf("chromem store: unknown namespace %q", ns)
	}
	if topK <= 0 {
		return nil, nil
	}
	col, err := s.collection(ns)
	if err != nil {
		return nil, err
	}

	text := query
	if text == "" {
		text = string(ns)
	}
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// The where clause matches scalar metadata values by string equality,
	// which is exactly the filter contract.
	where := map[string]string(f.Clone())

	// chromem requires nResults <= collection size; back off until the
	// query fits, and treat a collection too small for a single result
	// as empty.
	var results []chromem.Result
	for n := topK; n >= 1; n-- {
		results, err = col.QueryEmbedding(ctx, vec, n, where, nil)
		if err == nil {
			break
		}
		if isTooFewDocsError(err) {
			if n == 1 {
				return nil, nil
			}
			continue
		}
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	records := make([]core.VectorRecord, 0, len(results))
	for _, result := range results {
		records = append(records, core.VectorRecord{
			Text:      result.Content,
			Namespace: ns,
			Metadata:  decodeMetadata(result.Metadata),
		})
	}
	return records, nil
}

// encodeMetadata flattens record metadata to chromem's string map. Strings
// pass through so the where clause keeps working; structured values are
// stored as JSON and recovered by key in decodeMetadata.
func encodeMetadata(md core.Metadata) map[string]string {
	out := make(map[string]string, len(md))
	for k, v := range md {
		switch val := v.(type) {
		case string:
			out[k] = val
		case time.Time:
			out[k] = val.Format(time.RFC3339Nano)
		case bool:
			out[k] = strconv.FormatBool(val)
		case int:
			out[k] = strconv.Itoa(val)
		case int64:
			out[k] = strconv.FormatInt(val, 10)
		case float64:
			out[k] = strconv.FormatFloat(val, 'g', -1, 64)
		default:
			if b, err := json.Marshal(v); err == nil {
				out[k] = string(b)
			}
		}
	}
	return out
}

// decodeMetadata restores the typed values for the keys whose type the
// engine relies on; everything else stays a string.
func decodeMetadata(md map[string]string) core.Metadata {
	out := make(core.Metadata, len(md))
	for k, v := range md {
		switch k {
		case core.KeyTags:
			var tags []string
			if err := json.Unmarshal([]byte(v), &tags); err == nil {
				out[k] = tags
			} else {
				out[k] = v
			}
		case core.KeyChunkIndex, core.KeyDurationMS:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				out[k] = int(n)
			} else {
				out[k] = v
			}
		case core.KeyOK:
			if b, err := strconv.ParseBool(v); err == nil {
				out[k] = b
			} else {
				out[k] = v
			}
		default:
			out[k] = v
		}
	}
	return out
}

func isTooFewDocsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}
