// Package tracer converts run / task / tool lifecycle events into bounded,
// structured summaries and funnels them through schema-validated writes: a
// vector record in the crew_runs namespace for every event, plus an optional
// curated memory entry for run and task level summaries.
//
// Recording is strictly best-effort: any failure while persisting a trace is
// caught and logged, never propagated, so observability cannot crash the
// task it is observing. Writes are keyed by a deterministic event identity,
// making retries idempotent upserts.
package tracer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/salescrew/salesmesh/core"
	"github.com/salescrew/salesmesh/logging"
	"github.com/salescrew/salesmesh/memtag"
	"github.com/salescrew/salesmesh/schema"
)

// state is the lifecycle position of a run or task.
type state int

const (
	statePending state = iota
	stateRunning
	stateCompleted
	stateFailed
)

type taskState struct {
	agentID string
	state   state
	started time.Time
}

type runState struct {
	scope   core.SalesContext
	state   state
	started time.Time
	tasks   map[string]*taskState
}

// Options configure a Tracer.
type Options struct {
	// Memory, when set, additionally records run and task summaries as
	// curated memory entries.
	Memory *memtag.Engine
	// MaxSummaryLen bounds the human-readable digest stored per event.
	MaxSummaryLen int
	// Logger receives recording diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Tracer observes orchestration lifecycle events and records them.
type Tracer struct {
	registry *schema.Registry
	vectors  core.VectorSearchStore
	memory   *memtag.Engine
	maxLen   int
	logger   logging.Logger

	mu   sync.Mutex
	runs map[string]*runState
}

// New creates a Tracer writing through the given registry and vector store.
func New(registry *schema.Registry, vectors core.VectorSearchStore, optFns ...func(o *Options)) *Tracer {
	opts := Options{MaxSummaryLen: 512, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Tracer{
		registry: registry,
		vectors:  vectors,
		memory:   opts.Memory,
		maxLen:   opts.MaxSummaryLen,
		logger:   opts.Logger,
		runs:     make(map[string]*runState),
	}
}

// StartRun transitions a run from pending to running and records the
// run_start event. The scope must carry crew_id and run_id; a scope missing
// them is logged and dropped.
func (t *Tracer) StartRun(ctx context.Context, scope core.SalesContext, summary string) {
	if scope.RunID == "" || scope.CrewID == "" {
		t.logger.Warn("trace run_start dropped: scope missing crew_id/run_id")
		return
	}
	t.mu.Lock()
	t.runs[scope.RunID] = &runState{
		scope:   scope,
		state:   stateRunning,
		started: time.Now().UTC(),
		tasks:   make(map[string]*taskState),
	}
	t.mu.Unlock()

	t.record(ctx, scope, core.TraceEvent{
		Type:    core.EventRunStart,
		RunID:   scope.RunID,
		TS:      time.Now().UTC(),
		Summary: summary,
	})
}

// EndRun transitions a running run to completed or failed, records the
// run_end event and, when a memory engine is configured, remembers the run
// summary.
func (t *Tracer) EndRun(ctx context.Context, runID string, ok bool, summary string) {
	t.mu.Lock()
	run, exists := t.runs[runID]
	if !exists || run.state != stateRunning {
		t.mu.Unlock()
		t.logger.Warn("trace run_end dropped: run not running", "run_id", runID)
		return
	}
	if ok {
		run.state = stateCompleted
	} else {
		run.state = stateFailed
	}
	scope := run.scope
	durationMS := time.Since(run.started).Milliseconds()
	t.mu.Unlock()

	ev := core.TraceEvent{
		Type:       core.EventRunEnd,
		RunID:      runID,
		TS:         time.Now().UTC(),
		OK:         &ok,
		DurationMS: &durationMS,
		Summary:    summary,
	}
	t.record(ctx, scope, ev)
	t.remember(ctx, scope, ev, memtag.EntityRun)
}

// StartTask transitions a task from pending to running inside its run and
// records the task_start event.
func (t *Tracer) StartTask(ctx context.Context, runID, taskID, agentID string, summary string) {
	t.mu.Lock()
	run, exists := t.runs[runID]
	if !exists || run.state != stateRunning {
		t.mu.Unlock()
		t.logger.Warn("trace task_start dropped: run not running", "run_id", runID, "task_id", taskID)
		return
	}
	run.tasks[taskID] = &taskState{agentID: agentID, state: stateRunning, started: time.Now().UTC()}
	scope := run.scope
	t.mu.Unlock()

	t.record(ctx, scope, core.TraceEvent{
		Type:    core.EventTaskStart,
		RunID:   runID,
		TaskID:  taskID,
		AgentID: agentID,
		TS:      time.Now().UTC(),
		Summary: summary,
	})
}

// EndTask transitions a task to completed or failed and records the
// task_end event, optionally remembering the task summary.
func (t *Tracer) EndTask(ctx context.Context, runID, taskID string, ok bool, summary string) {
	t.mu.Lock()
	run, exists := t.runs[runID]
	if !exists {
		t.mu.Unlock()
		t.logger.Warn("trace task_end dropped: unknown run", "run_id", runID, "task_id", taskID)
		return
	}
	task, exists := run.tasks[taskID]
	if !exists || task.state != stateRunning {
		t.mu.Unlock()
		t.logger.Warn("trace task_end dropped: task not running", "run_id", runID, "task_id", taskID)
		return
	}
	if ok {
		task.state = stateCompleted
	} else {
		task.state = stateFailed
	}
	scope := run.scope
	agentID := task.agentID
	durationMS := time.Since(task.started).Milliseconds()
	t.mu.Unlock()

	ev := core.TraceEvent{
		Type:       core.EventTaskEnd,
		RunID:      runID,
		TaskID:     taskID,
		AgentID:    agentID,
		TS:         time.Now().UTC(),
		OK:         &ok,
		DurationMS: &durationMS,
		Summary:    summary,
	}
	t.record(ctx, scope, ev)
	t.remember(ctx, scope, ev, memtag.EntityRun)
}

// RecordToolCall records a leaf tool_call event. A failed tool call does not
// transition the owning task; that decision belongs to the orchestrator.
// The tracer only records what happened.
func (t *Tracer) RecordToolCall(ctx context.Context, runID, taskID, toolCallID, toolName string, ok bool, duration time.Duration, digest string) {
	t.mu.Lock()
	run, exists := t.runs[runID]
	if !exists {
		t.mu.Unlock()
		t.logger.Warn("trace tool_call dropped: unknown run", "run_id", runID, "tool_call_id", toolCallID)
		return
	}
	scope := run.scope
	t.mu.Unlock()

	durationMS := duration.Milliseconds()
	t.record(ctx, scope, core.TraceEvent{
		Type:       core.EventToolCall,
		RunID:      runID,
		TaskID:     taskID,
		ToolCallID: toolCallID,
		ToolName:   toolName,
		TS:         time.Now().UTC(),
		OK:         &ok,
		DurationMS: &durationMS,
		Summary:    digest,
	})
}

// record converts the event into a schema-validated crew_runs vector record
// and upserts it. Every failure is logged, never returned.
func (t *Tracer) record(ctx context.Context, scope core.SalesContext, ev core.TraceEvent) {
	md := t.eventMetadata(scope, ev)
	if err := t.registry.Validate(core.NamespaceRuns, md); err != nil {
		t.logger.Warn("trace event failed validation", "event_type", ev.Type, "run_id", ev.RunID, "error", err)
		return
	}

	record := core.VectorRecord{
		Text:      truncate(ev.Summary, t.maxLen),
		Namespace: core.NamespaceRuns,
		Metadata:  md,
	}
	if _, err := t.vectors.Upsert(ctx, record); err != nil {
		t.logger.Warn("trace vector write failed", "event_type", ev.Type, "run_id", ev.RunID, "error", err)
		return
	}
	okVal := ev.OK == nil || *ev.OK
	t.logger.Debug("trace event recorded", "event_type", ev.Type, "run_id", ev.RunID, "task_id", ev.TaskID, "ok", okVal)
}

// remember writes a run/task summary into curated memory when a memory
// engine is configured. Failures are logged, never propagated.
func (t *Tracer) remember(ctx context.Context, scope core.SalesContext, ev core.TraceEvent, entity memtag.Entity) {
	if t.memory == nil || ev.Summary == "" {
		return
	}
	stage := scope.Stage
	if stage == "" {
		stage = core.StageResearch
	}
	tags, err := memtag.BuildTags(memtag.TagParams{
		Entity:    entity,
		Kind:      memtag.KindSummary,
		Stage:     stage,
		AccountID: scope.AccountID,
		LeadID:    scope.LeadID,
	})
	if err != nil {
		t.logger.Warn("trace memory tags invalid", "run_id", ev.RunID, "error", err)
		return
	}
	md := core.Metadata{
		core.KeyRunID:  ev.RunID,
		core.KeyCrewID: scope.CrewID,
		"event_id":     eventIdentity(ev),
		core.KeyTS:     ev.TS,
	}
	if ev.TaskID != "" {
		md[core.KeyTaskID] = ev.TaskID
	}
	if scope.AccountID != "" {
		md[core.KeyAccountID] = scope.AccountID
	}
	if scope.LeadID != "" {
		md[core.KeyLeadID] = scope.LeadID
	}
	if _, err := t.memory.Remember(ctx, truncate(ev.Summary, t.maxLen), tags, core.PriorityMedium, md); err != nil {
		t.logger.Warn("trace memory write failed", "run_id", ev.RunID, "error", err)
	}
}

// eventMetadata builds the crew_runs metadata for a lifecycle event.
func (t *Tracer) eventMetadata(scope core.SalesContext, ev core.TraceEvent) core.Metadata {
	stage := scope.Stage
	if stage == "" {
		stage = core.StageResearch
	}
	tags := []string{
		core.MustTag("stage", string(stage)),
		core.MustTag("event", string(ev.Type)),
	}
	if ev.ToolName != "" {
		tags = append(tags, core.MustTag("tool", ev.ToolName))
	}

	md := core.Metadata{
		core.KeyType:       "trace",
		core.KeyTS:         ev.TS,
		core.KeyTags:       tags,
		core.KeyTraceType:  string(ev.TraceType()),
		core.KeyStage:      string(stage),
		core.KeyCrewID:     scope.CrewID,
		core.KeyRunID:      ev.RunID,
		core.KeyArtifactID: eventIdentity(ev),
	}
	if ev.TaskID != "" {
		md[core.KeyTaskID] = ev.TaskID
	}
	if ev.AgentID != "" {
		md[core.KeyAgentID] = ev.AgentID
	}
	if ev.ToolCallID != "" {
		md[core.KeyToolCallID] = ev.ToolCallID
	}
	if ev.ToolName != "" {
		md[core.KeyToolName] = ev.ToolName
	}
	if ev.OK != nil {
		md[core.KeyOK] = *ev.OK
	}
	if ev.DurationMS != nil {
		md[core.KeyDurationMS] = *ev.DurationMS
	}
	if scope.AccountID != "" {
		md[core.KeyAccountID] = scope.AccountID
	}
	if scope.LeadID != "" {
		md[core.KeyLeadID] = scope.LeadID
	}
	return md
}

// eventIdentity derives the deterministic identity a retried event reuses.
func eventIdentity(ev core.TraceEvent) string {
	id := fmt.Sprintf("%s/%s", ev.RunID, ev.Type)
	if ev.TaskID != "" {
		id += "/" + ev.TaskID
	}
	if ev.ToolCallID != "" {
		id += "/" + ev.ToolCallID
	}
	return id
}

// truncate bounds a digest, marking the cut with an ellipsis.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
