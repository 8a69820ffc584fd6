package memtag

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/salescrew/salesmesh/core"
	"github.com/salescrew/salesmesh/logging"
)

// FacetError reports a remember() call whose tags miss the mandatory
// entity/type/stage triad.
type FacetError struct {
	Missing []string
}

func (e *FacetError) Error() string {
	return fmt.Sprintf("memory tags must include %s facets", strings.Join(e.Missing, ", "))
}

// Engine is the memory capability: tag-validated writes plus facet and
// semantic recall over an external memory store.
type Engine struct {
	store  core.MemoryStore
	logger logging.Logger
}

// NewEngine creates an Engine over the given store.
func NewEngine(store core.MemoryStore, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Engine{store: store, logger: logger}
}

// Remember validates and persists a memory entry. Tags must include the
// entity/type/stage triad. The entry identity derives from the metadata's
// artifact or event id when present, so retried writes upsert instead of
// duplicating; entries without a derived identity get a fresh id. Store
// failures are surfaced to the caller; silent loss of a curated memory is
// unacceptable.
func (e *Engine) Remember(ctx context.Context, content string, tags []string, priority core.Priority, metadata core.Metadata) (core.MemoryEntry, error) {
	normalized, err := core.NormalizeTags(tags)
	if err != nil {
		return core.MemoryEntry{}, err
	}
	if missing := missingFacets(normalized); len(missing) > 0 {
		return core.MemoryEntry{}, &FacetError{Missing: missing}
	}
	if metadata == nil {
		metadata = core.Metadata{}
	} else {
		metadata = metadata.Clone()
	}

	createdAt := metadata.Time(core.KeyTS)
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
		metadata[core.KeyTS] = createdAt
	}

	entry := core.MemoryEntry{
		ID:        deriveEntryID(metadata),
		Content:   content,
		Tags:      normalized,
		Priority:  priority,
		Metadata:  metadata,
		CreatedAt: createdAt,
	}

	id, err := e.store.Write(ctx, entry)
	if err != nil {
		e.logger.Error("memory write failed", "entry_id", entry.ID, "error", err)
		return core.MemoryEntry{}, &core.ExternalStoreError{Op: "memory write", Err: err}
	}
	entry.ID = id
	e.logger.Debug("memory entry written", "entry_id", id, "tags", len(normalized))
	return entry, nil
}

// RecallByFacets returns entries carrying every supplied tag, optionally
// filtered to priority >= minPriority, ordered by descending priority then
// most recent first.
func (e *Engine) RecallByFacets(ctx context.Context, tags []string, minPriority *core.Priority, limit int) ([]core.MemoryEntry, error) {
	normalized, err := core.NormalizeTags(tags)
	if err != nil {
		return nil, err
	}
	entries, err := e.store.List(ctx, normalized, minPriority, limit)
	if err != nil {
		return nil, &core.ExternalStoreError{Op: "memory list", Err: err}
	}

	// Re-apply filtering and ordering locally so recall semantics do not
	// depend on how strict the backend is.
	out := entries[:0]
	for _, entry := range entries {
		if !entry.HasTags(normalized) {
			continue
		}
		if minPriority != nil && entry.Priority < *minPriority {
			continue
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RecallFacet runs a pre-built facet recipe.
func (e *Engine) RecallFacet(ctx context.Context, q FacetQuery) ([]core.MemoryEntry, error) {
	return e.RecallByFacets(ctx, q.Tags, q.MinPriority, q.Limit)
}

// RecallSemantic delegates relevance ranking to the memory store, then
// post-filters locally by the identity fields in the context: when lead_id
// is set both account_id and lead_id must match; else when account_id is set
// it must match; entries lacking the relevant identity metadata are dropped.
// The post-filter is a pure intersection: it never widens the backend's
// result set, and surviving entries keep the backend's relevance order.
func (e *Engine) RecallSemantic(ctx context.Context, query string, limit int, sc core.SalesContext) ([]core.MemoryEntry, error) {
	entries, err := e.store.Search(ctx, query, limit)
	if err != nil {
		return nil, &core.ExternalStoreError{Op: "memory search", Err: err}
	}

	out := make([]core.MemoryEntry, 0, len(entries))
	for _, entry := range entries {
		if !matchesScope(entry.Metadata, sc) {
			continue
		}
		out = append(out, entry)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// matchesScope implements the identity post-filter.
func matchesScope(md core.Metadata, sc core.SalesContext) bool {
	switch {
	case sc.LeadID != "":
		return md.String(core.KeyAccountID) == sc.AccountID &&
			md.String(core.KeyLeadID) == sc.LeadID
	case sc.AccountID != "":
		return md.String(core.KeyAccountID) == sc.AccountID
	default:
		return true
	}
}

// deriveEntryID keys the upsert: artifact or event ids make repeated writes
// idempotent, anything else appends a fresh entry.
func deriveEntryID(md core.Metadata) string {
	if id := md.String(core.KeyArtifactID); id != "" {
		return "mem_" + id
	}
	if id := md.String("event_id"); id != "" {
		return "mem_" + id
	}
	return core.NewID()
}
