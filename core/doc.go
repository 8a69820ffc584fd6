// Package core provides the foundational domain types, interfaces and error
// taxonomy used by SalesMesh. It defines the core abstractions for:
//
//   - Namespaces (the closed set of logical vector collections)
//   - Vector records, scalar search filters and the sales task context
//   - Curated memory entries with tag facets and priorities
//   - Trace events for run / task / tool lifecycle observability
//   - Pluggable stores for vector search and curated memory
//
// The package intentionally keeps implementation concerns (persistence,
// planning, tagging policy) out of scope, exposing small interfaces to enable
// custom backends and extensions.
package core
