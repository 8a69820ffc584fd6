package testutil

import (
	"time"

	"github.com/salescrew/salesmesh/core"
)

// recordTypes maps each namespace to its canonical record type so builders
// produce schema-valid metadata by default.
var recordTypes = map[core.Namespace]string{
	core.NamespacePlaybooks: "playbook",
	core.NamespaceCases:     "case_study",
	core.NamespaceAccounts:  "account_note",
	core.NamespaceLeads:     "lead_note",
	core.NamespaceOutreach:  "outreach",
	core.NamespaceRuns:      "trace",
}

// RecordBuilder provides a fluent helper for constructing vector records in
// tests. It seeds the global metadata (type, ts, tags) so most tests only
// chain the fields they assert on. Example:
//
//	rec := NewRecordBuilder(core.NamespaceLeads, "prefers async demos").
//		Meta(core.KeyAccountID, "acct_123").
//		Meta(core.KeyLeadID, "lead_456").
//		Build()
type RecordBuilder struct {
	record core.VectorRecord
}

// NewRecordBuilder creates a builder with schema-valid defaults for the
// namespace.
func NewRecordBuilder(ns core.Namespace, text string) *RecordBuilder {
	return &RecordBuilder{record: core.VectorRecord{
		Text:      text,
		Namespace: ns,
		Metadata: core.Metadata{
			core.KeyType: recordTypes[ns],
			core.KeyTS:   time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC).Format(time.RFC3339),
			core.KeyTags: []string{"source:test"},
		},
	}}
}

// Meta sets a metadata field (chainable).
func (b *RecordBuilder) Meta(key string, value any) *RecordBuilder {
	b.record.Metadata[key] = value
	return b
}

// Tags replaces the tags list (chainable).
func (b *RecordBuilder) Tags(tags ...string) *RecordBuilder {
	b.record.Metadata[core.KeyTags] = tags
	return b
}

// TS sets the record timestamp (chainable).
func (b *RecordBuilder) TS(t time.Time) *RecordBuilder {
	b.record.Metadata[core.KeyTS] = t.Format(time.RFC3339)
	return b
}

// Build returns the assembled record.
func (b *RecordBuilder) Build() core.VectorRecord { return b.record }
