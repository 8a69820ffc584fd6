package core

import "time"

// EventType identifies a lifecycle transition observed by the tracer.
type EventType string

const (
	EventRunStart  EventType = "run_start"
	EventRunEnd    EventType = "run_end"
	EventTaskStart EventType = "task_start"
	EventTaskEnd   EventType = "task_end"
	EventToolCall  EventType = "tool_call"
)

// TraceEvent is one run / task / tool lifecycle event. Tool calls are leaf
// events carrying OK and DurationMS; they are never nested further. Summary
// is a bounded human-readable digest, never full tool input or output.
type TraceEvent struct {
	Type       EventType `json:"event_type"`
	RunID      string    `json:"run_id"`
	TaskID     string    `json:"task_id,omitempty"`
	AgentID    string    `json:"agent_id,omitempty"`
	ToolCallID string    `json:"tool_call_id,omitempty"`
	ToolName   string    `json:"tool_name,omitempty"`
	TS         time.Time `json:"ts"`
	OK         *bool     `json:"ok,omitempty"`
	DurationMS *int64    `json:"duration_ms,omitempty"`
	Summary    string    `json:"summary"`
}

// TraceType maps the event to the crew_runs record vocabulary.
func (e TraceEvent) TraceType() TraceType {
	switch e.Type {
	case EventToolCall:
		return TraceToolCall
	case EventTaskStart, EventTaskEnd:
		return TraceTaskSummary
	default:
		return TraceRunSummary
	}
}
