// Package memtag implements the curated-memory subsystem: canonical tag
// construction, remember() writes with idempotent upsert semantics, exact
// facet recall, and best-effort semantic recall with client-side identity
// post-filtering. Entries always carry the entity/type/stage tag triad;
// writes missing it are rejected before reaching the store.
package memtag
