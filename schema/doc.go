// Package schema defines the immutable per-namespace metadata rules used by
// every write path. The registry is a plain lookup table built once at
// startup and treated as read-only for the process lifetime: required and
// optional field names, the expected type vocabulary, and the identity
// fields a namespace mandates. Validation fails closed: a record whose
// metadata misses a required field, carries a malformed tag, or declares a
// type outside the namespace vocabulary is never persisted.
package schema
