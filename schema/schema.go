package schema

import (
	"fmt"
	"sort"

	"github.com/salescrew/salesmesh/core"
)

// namespaceSchema holds the rules for one namespace. Required lists the
// metadata fields beyond the global type/ts/tags triple; Identity lists the
// sales/crew scope fields the namespace mandates on writes.
type namespaceSchema struct {
	Types    []string
	Required []string
	Optional []string
	Identity []string
}

// Registry is the immutable mapping of namespace to metadata rules. Build it
// once with NewRegistry and share it; it has no mutable state.
type Registry struct {
	table map[core.Namespace]namespaceSchema
}

// NewRegistry constructs the process-wide schema registry.
func NewRegistry() *Registry {
	return &Registry{table: map[core.Namespace]namespaceSchema{
		core.NamespacePlaybooks: {
			Types:    []string{"playbook"},
			Required: []string{core.KeyDocID, core.KeyTitle, core.KeySource},
			Optional: []string{core.KeyURL, core.KeySection, core.KeyChunkIndex, core.KeyPersona, core.KeyVertical},
		},
		core.NamespaceCases: {
			Types:    []string{"case_study"},
			Required: []string{core.KeyDocID, core.KeyTitle, core.KeySource},
			Optional: []string{core.KeyURL, core.KeySection, core.KeyChunkIndex, core.KeyAccountID, core.KeyIndustry, core.KeyVertical, core.KeyPersona},
		},
		core.NamespaceAccounts: {
			Types:    []string{"account_note"},
			Optional: []string{core.KeyTitle, core.KeySource, core.KeyStage, core.KeyLeadID, core.KeyCrewID, core.KeyAgentID, core.KeyRunID, core.KeyTaskID},
			Identity: []string{core.KeyAccountID},
		},
		core.NamespaceLeads: {
			Types:    []string{"lead_note"},
			Optional: []string{core.KeySource, core.KeyStage, core.KeyCrewID, core.KeyAgentID, core.KeyRunID, core.KeyTaskID},
			Identity: []string{core.KeyAccountID, core.KeyLeadID},
		},
		core.NamespaceOutreach: {
			Types:    []string{"outreach"},
			Required: []string{core.KeyArtifactID},
			Optional: []string{core.KeyChannel, core.KeyVariant, core.KeyStatus, core.KeyCrewID, core.KeyAgentID, core.KeyRunID, core.KeyTaskID},
			Identity: []string{core.KeyAccountID, core.KeyLeadID},
		},
		core.NamespaceRuns: {
			Types:    []string{"trace"},
			Required: []string{core.KeyTraceType, core.KeyStage},
			Optional: []string{core.KeyTaskID, core.KeyAgentID, core.KeyToolCallID, core.KeyToolName, core.KeyOK, core.KeyDurationMS, core.KeyAccountID, core.KeyLeadID, core.KeyArtifactID},
			Identity: []string{core.KeyCrewID, core.KeyRunID},
		},
	}}
}

// IdentityFields returns the identity fields the namespace mandates on
// writes, in stable order. Unknown namespaces yield nil.
func (r *Registry) IdentityFields(ns core.Namespace) []string {
	s, ok := r.table[ns]
	if !ok {
		return nil
	}
	out := make([]string, len(s.Identity))
	copy(out, s.Identity)
	return out
}

// RecordType returns the canonical type value for records in the namespace.
func (r *Registry) RecordType(ns core.Namespace) string {
	if s, ok := r.table[ns]; ok && len(s.Types) > 0 {
		return s.Types[0]
	}
	return ""
}

// Validate checks metadata against the namespace's rules. It returns nil on
// success or a *core.SchemaViolation listing every missing or malformed
// field. Validation has no side effects.
func (r *Registry) Validate(ns core.Namespace, md core.Metadata) error {
	s, ok := r.table[ns]
	if !ok {
		return &core.SchemaViolation{Namespace: ns, Fields: []string{fmt.Sprintf("unknown namespace %q", ns)}}
	}

	var fields []string

	// Global rule: type, ts and well-formed tags on every record.
	typ := md.String(core.KeyType)
	switch {
	case typ == "":
		fields = append(fields, "type: missing")
	case !contains(s.Types, typ):
		fields = append(fields, fmt.Sprintf("type: %q not allowed (expected one of %v)", typ, s.Types))
	}
	if md.Time(core.KeyTS).IsZero() {
		fields = append(fields, "ts: missing or not a timestamp")
	}
	if _, hasTags := md[core.KeyTags]; !hasTags {
		fields = append(fields, "tags: missing")
	} else {
		for _, t := range md.Tags() {
			if !core.ValidTag(t) {
				fields = append(fields, fmt.Sprintf("tags: %q does not match 'key:value'", t))
			}
		}
	}

	for _, f := range s.Required {
		if !md.Has(f) {
			fields = append(fields, f+": missing")
		}
	}
	for _, f := range s.Identity {
		if md.String(f) == "" {
			fields = append(fields, f+": missing")
		}
	}

	// Unknown fields are rejected rather than silently carried.
	allowed := map[string]struct{}{core.KeyType: {}, core.KeyTS: {}, core.KeyTags: {}}
	for _, group := range [][]string{s.Required, s.Optional, s.Identity} {
		for _, f := range group {
			allowed[f] = struct{}{}
		}
	}
	for k := range md {
		if _, ok := allowed[k]; !ok {
			fields = append(fields, k+": not allowed in this namespace")
		}
	}

	fields = append(fields, validateVocab(ns, md)...)

	if len(fields) > 0 {
		sort.Strings(fields)
		return &core.SchemaViolation{Namespace: ns, Fields: fields}
	}
	return nil
}

// validateVocab checks closed vocabularies on fields that carry them.
func validateVocab(ns core.Namespace, md core.Metadata) []string {
	var fields []string
	if v := md.String(core.KeyStage); v != "" && !core.Stage(v).Valid() {
		fields = append(fields, fmt.Sprintf("stage: unknown value %q", v))
	}
	if v := md.String(core.KeyChannel); v != "" {
		switch core.Channel(v) {
		case core.ChannelEmail, core.ChannelLinkedIn, core.ChannelSMS, core.ChannelCall, core.ChannelOther:
		default:
			fields = append(fields, fmt.Sprintf("channel: unknown value %q", v))
		}
	}
	if v := md.String(core.KeyStatus); v != "" {
		switch core.OutreachStatus(v) {
		case core.OutreachDraft, core.OutreachSent, core.OutreachReplied, core.OutreachNoReply:
		default:
			fields = append(fields, fmt.Sprintf("status: unknown value %q", v))
		}
	}
	if ns == core.NamespaceRuns {
		switch tt := core.TraceType(md.String(core.KeyTraceType)); tt {
		case core.TraceToolCall:
			if md.String(core.KeyToolCallID) == "" {
				fields = append(fields, "tool_call_id: required when trace_type is tool_call")
			}
		case core.TraceRunSummary, core.TraceTaskSummary, "":
		default:
			fields = append(fields, fmt.Sprintf("trace_type: unknown value %q", tt))
		}
	}
	return fields
}

func contains(list []string, v string) bool {
	for _, e := range list {
		if e == v {
			return true
		}
	}
	return false
}
