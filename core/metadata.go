package core

import "time"

// Metadata is the flat JSON-style metadata attached to vector records and
// memory entries. Values are scalars, time.Time, or a []string tag list.
type Metadata map[string]any

// Common metadata keys. Every record carries KeyType, KeyTS and KeyTags;
// the remaining keys are namespace-specific.
const (
	KeyType       = "type"
	KeyTS         = "ts"
	KeyTags       = "tags"
	KeyAccountID  = "account_id"
	KeyLeadID     = "lead_id"
	KeyCrewID     = "crew_id"
	KeyAgentID    = "agent_id"
	KeyRunID      = "run_id"
	KeyTaskID     = "task_id"
	KeyArtifactID = "artifact_id"
	KeyDocID      = "doc_id"
	KeyChunkIndex = "chunk_index"
	KeyStage      = "stage"
	KeyChannel    = "channel"
	KeyStatus     = "status"
	KeyPersona    = "persona"
	KeyVertical   = "vertical"
	KeyTraceType  = "trace_type"
	KeyToolCallID = "tool_call_id"
	KeyToolName   = "tool_name"
	KeyOK         = "ok"
	KeyDurationMS = "duration_ms"
	KeyTitle      = "title"
	KeySource     = "source"
	KeyURL        = "url"
	KeySection    = "section"
	KeyVariant    = "variant"
	KeyIndustry   = "industry"
)

// String returns the value for key as a string, or "" when absent or not a
// string.
func (m Metadata) String(key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Has reports whether key is present with a non-empty value.
func (m Metadata) Has(key string) bool {
	v, ok := m[key]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr {
		return s != ""
	}
	return true
}

// Time returns the value for key as a time.Time. RFC3339 strings are parsed;
// anything else yields the zero time.
func (m Metadata) Time(key string) time.Time {
	switch v := m[key].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Tags returns the tag list for KeyTags, tolerating []string and []any
// representations (the latter appears after JSON round-trips).
func (m Metadata) Tags() []string {
	switch v := m[KeyTags].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Clone returns a shallow copy safe for independent key mutation.
func (m Metadata) Clone() Metadata {
	cp := make(Metadata, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
