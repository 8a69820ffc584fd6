package testutil

import "github.com/salescrew/salesmesh/core"

// ContextBuilder provides a fluent helper for constructing sales contexts in
// tests. Example:
//
//	sc := NewContextBuilder().Account("acct_123").Lead("lead_456").Stage(core.StageOutreach).Build()
//
// Chain only the parts you need; unset fields stay empty.
type ContextBuilder struct {
	sc core.SalesContext
}

// NewContextBuilder creates an empty builder.
func NewContextBuilder() *ContextBuilder { return &ContextBuilder{} }

// Account sets the account scope (chainable).
func (b *ContextBuilder) Account(id string) *ContextBuilder { b.sc.AccountID = id; return b }

// Lead sets the lead scope (chainable).
func (b *ContextBuilder) Lead(id string) *ContextBuilder { b.sc.LeadID = id; return b }

// Stage sets the crew stage (chainable).
func (b *ContextBuilder) Stage(s core.Stage) *ContextBuilder { b.sc.Stage = s; return b }

// Run sets crew and run identifiers together (chainable).
func (b *ContextBuilder) Run(crewID, runID string) *ContextBuilder {
	b.sc.CrewID = crewID
	b.sc.RunID = runID
	return b
}

// Task sets the task identifier (chainable).
func (b *ContextBuilder) Task(id string) *ContextBuilder { b.sc.TaskID = id; return b }

// Agent sets the agent identifier (chainable).
func (b *ContextBuilder) Agent(id string) *ContextBuilder { b.sc.AgentID = id; return b }

// Persona sets the buyer persona (chainable).
func (b *ContextBuilder) Persona(p string) *ContextBuilder { b.sc.Persona = p; return b }

// Vertical sets the industry vertical (chainable).
func (b *ContextBuilder) Vertical(v string) *ContextBuilder { b.sc.Vertical = v; return b }

// Channel sets the outreach channel (chainable).
func (b *ContextBuilder) Channel(c core.Channel) *ContextBuilder { b.sc.Channel = c; return b }

// Status sets the outreach status (chainable).
func (b *ContextBuilder) Status(s core.OutreachStatus) *ContextBuilder { b.sc.Status = s; return b }

// Build returns the assembled context.
func (b *ContextBuilder) Build() core.SalesContext { return b.sc }
