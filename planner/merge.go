package planner

import "github.com/salescrew/salesmesh/core"

// Dedupe collapses records sharing a (namespace, identity) key, keeping the
// first-seen occurrence. Input order is preserved for survivors, so within a
// namespace the backend's return order is the tie-break and across
// namespaces the plan order is. Applying Dedupe twice is a no-op.
func Dedupe(records []core.VectorRecord) []core.VectorRecord {
	out := make([]core.VectorRecord, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		key := r.DedupeKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
