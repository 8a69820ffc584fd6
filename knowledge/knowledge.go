// Package knowledge is the read/write surface agents use against the vector
// namespaces: plan-driven retrieval with a short-lived result cache, and a
// schema-validated ingest path for new records.
package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/salescrew/salesmesh/core"
	"github.com/salescrew/salesmesh/logging"
	"github.com/salescrew/salesmesh/planner"
	"github.com/salescrew/salesmesh/schema"
)

// Options configure a Base.
type Options struct {
	// CacheTTL bounds how long a retrieval result is served from cache.
	// Zero disables caching.
	CacheTTL time.Duration
	// CacheMaxEntries sizes the cache; ristretto tracks 10x counters.
	CacheMaxEntries int64
	// Logger receives retrieval diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Base couples the planner with the vector store behind a cache. Retrieval
// is deterministic for a fixed corpus, which makes (stage, context, query,
// top-K) a sound cache key.
type Base struct {
	registry *schema.Registry
	store    core.VectorSearchStore
	planner  *planner.Planner
	cache    *ristretto.Cache
	opts     Options
}

// New creates a Base. The cache is process-local and never consulted for
// writes.
func New(registry *schema.Registry, store core.VectorSearchStore, p *planner.Planner, optFns ...func(o *Options)) (*Base, error) {
	opts := Options{
		CacheTTL:        time.Minute,
		CacheMaxEntries: 1024,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	var cache *ristretto.Cache
	if opts.CacheTTL > 0 {
		var err error
		cache, err = ristretto.NewCache(&ristretto.Config{
			NumCounters: opts.CacheMaxEntries * 10,
			MaxCost:     opts.CacheMaxEntries,
			BufferItems: 64,
		})
		if err != nil {
			return nil, fmt.Errorf("knowledge: create cache: %w", err)
		}
	}

	return &Base{registry: registry, store: store, planner: p, cache: cache, opts: opts}, nil
}

// Retrieve plans and executes the stage search for the given context and
// query. Identical invocations within the cache TTL are served from cache;
// truncated results are never cached.
func (b *Base) Retrieve(ctx context.Context, stage core.Stage, sc core.SalesContext, query string) (planner.Result, error) {
	plan, err := b.planner.Plan(stage, sc)
	if err != nil {
		return planner.Result{}, err
	}

	key := cacheKey(stage, sc, query)
	if b.cache != nil {
		if cached, ok := b.cache.Get(key); ok {
			if result, ok := cached.(planner.Result); ok {
				b.opts.Logger.Debug("retrieval served from cache", "stage", stage, "query", query)
				return result, nil
			}
		}
	}

	result, err := b.planner.Execute(ctx, plan, query)
	if err != nil {
		return planner.Result{}, err
	}
	if b.cache != nil && !result.Truncated {
		b.cache.SetWithTTL(key, result, 1, b.opts.CacheTTL)
	}

	b.opts.Logger.Debug("retrieval completed",
		"stage", stage, "query", query, "records", len(result.Records), "truncated", result.Truncated)
	return result, nil
}

// Ingest validates the record against its namespace schema and upserts it.
// The canonical type for the namespace is filled in when absent; everything
// else must already be on the record. Returns the record's derived identity.
func (b *Base) Ingest(ctx context.Context, record core.VectorRecord) (string, error) {
	if record.Metadata == nil {
		record.Metadata = core.Metadata{}
	} else {
		record.Metadata = record.Metadata.Clone()
	}
	if record.Metadata.String(core.KeyType) == "" {
		record.Metadata[core.KeyType] = b.registry.RecordType(record.Namespace)
	}

	if err := b.registry.Validate(record.Namespace, record.Metadata); err != nil {
		return "", err
	}

	id, err := b.store.Upsert(ctx, record)
	if err != nil {
		return "", fmt.Errorf("ingest record: %w", err)
	}
	b.opts.Logger.Debug("record ingested", "namespace", record.Namespace, "identity", id)
	return id, nil
}

// cacheKey is stable across calls: stage, canonical context key and query.
func cacheKey(stage core.Stage, sc core.SalesContext, query string) string {
	var sb strings.Builder
	sb.WriteString(string(stage))
	sb.WriteByte('|')
	sb.WriteString(sc.Key())
	sb.WriteByte('|')
	sb.WriteString(query)
	return sb.String()
}
