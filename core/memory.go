package core

import (
	"context"
	"time"
)

// Priority ranks curated memory entries. Higher values win recall ordering.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

// String returns the canonical uppercase name for the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "LOW"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityHigh:
		return "HIGH"
	case PriorityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParsePriority converts a stored priority name back to its value. Unknown
// names map to PriorityMedium.
func ParsePriority(s string) Priority {
	switch s {
	case "LOW":
		return PriorityLow
	case "HIGH":
		return PriorityHigh
	case "CRITICAL":
		return PriorityCritical
	default:
		return PriorityMedium
	}
}

// MemoryEntry is one curated memory. Entries are created by remember() and
// never mutated in place; corrections are written as new entries. Retention
// is delegated to the backing store.
type MemoryEntry struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	Priority  Priority  `json:"priority"`
	Metadata  Metadata  `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}

// HasTags reports whether the entry carries every tag in want.
func (e MemoryEntry) HasTags(want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(e.Tags))
	for _, t := range e.Tags {
		set[t] = struct{}{}
	}
	for _, t := range want {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}

// MemoryStore persists curated memory entries. Write has upsert semantics
// keyed by entry ID so retried writes stay idempotent. List performs exact
// tag AND-matching; Search delegates relevance ranking to the backend.
type MemoryStore interface {
	Write(ctx context.Context, entry MemoryEntry) (string, error)
	List(ctx context.Context, tags []string, minPriority *Priority, limit int) ([]MemoryEntry, error)
	Search(ctx context.Context, query string, limit int) ([]MemoryEntry, error)
}
