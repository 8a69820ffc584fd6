package core

import "context"

// VectorSearchStore is the external vector search collaborator. Search
// filters are flat scalar equality maps; Upsert is keyed by the record's
// derived identity so retried writes do not duplicate records.
type VectorSearchStore interface {
	Search(ctx context.Context, ns Namespace, query string, filter SearchFilter, topK int) ([]VectorRecord, error)
	Upsert(ctx context.Context, record VectorRecord) (string, error)
}
