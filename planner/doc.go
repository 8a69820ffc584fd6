// Package planner turns a stage plus sales context into a fixed, ordered
// list of (namespace, filter) searches and executes it against the external
// vector store.
//
// The stage plan table is static: for a given stage the namespace order is
// always the same, every namespace appears at most once, and the order is
// the priority order at merge time. Account-specific namespaces come before
// generic content, so playbooks always lose dedupe ties to earlier entries.
// Relevance scores are never compared across namespaces because the backend
// indexes are distinct.
//
// Execution fans the independent, read-only namespace searches out
// concurrently, restores plan order after all of them return, then
// deduplicates by (namespace, identity) and truncates to the overall result
// budget. A namespace that fails or times out yields an empty result for
// that namespace rather than failing the whole plan.
package planner
