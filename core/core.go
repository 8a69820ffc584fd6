package core

import (
	"fmt"

	"github.com/google/uuid"
)

// Namespace identifies one logical collection in the external vector store.
// The set is closed and defined once at process start; no namespace is ever
// created dynamically.
type Namespace string

const (
	// NamespacePlaybooks holds reusable sales playbook chunks.
	NamespacePlaybooks Namespace = "sales_playbooks"
	// NamespaceCases holds case study chunks.
	NamespaceCases Namespace = "sales_cases"
	// NamespaceAccounts holds account-scoped research notes.
	NamespaceAccounts Namespace = "accounts"
	// NamespaceLeads holds lead-scoped notes.
	NamespaceLeads Namespace = "leads"
	// NamespaceOutreach holds outreach artifacts (drafts, sent messages).
	NamespaceOutreach Namespace = "outreach_history"
	// NamespaceRuns holds crew run traces and summaries.
	NamespaceRuns Namespace = "crew_runs"
)

// Namespaces returns the full closed namespace set in declaration order.
func Namespaces() []Namespace {
	return []Namespace{
		NamespacePlaybooks,
		NamespaceCases,
		NamespaceAccounts,
		NamespaceLeads,
		NamespaceOutreach,
		NamespaceRuns,
	}
}

// Valid reports whether ns is a member of the closed namespace set.
func (ns Namespace) Valid() bool {
	switch ns {
	case NamespacePlaybooks, NamespaceCases, NamespaceAccounts,
		NamespaceLeads, NamespaceOutreach, NamespaceRuns:
		return true
	}
	return false
}

// Stage selects which namespaces and filters apply for a retrieval.
type Stage string

const (
	// StageResearch is the pre-outreach research phase.
	StageResearch Stage = "research"
	// StageOutreach is the initial outreach drafting phase.
	StageOutreach Stage = "outreach"
	// StageFollowup is the followup / reply handling phase.
	StageFollowup Stage = "followup"
)

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	switch s {
	case StageResearch, StageOutreach, StageFollowup:
		return true
	}
	return false
}

// Channel is the outreach delivery channel.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelLinkedIn Channel = "linkedin"
	ChannelSMS      Channel = "sms"
	ChannelCall     Channel = "call"
	ChannelOther    Channel = "other"
)

// OutreachStatus tracks the lifecycle of an outreach artifact.
type OutreachStatus string

const (
	OutreachDraft   OutreachStatus = "draft"
	OutreachSent    OutreachStatus = "sent"
	OutreachReplied OutreachStatus = "reply_received"
	OutreachNoReply OutreachStatus = "no_reply"
)

// TraceType categorizes a crew_runs record.
type TraceType string

const (
	TraceRunSummary  TraceType = "run_summary"
	TraceTaskSummary TraceType = "task_summary"
	TraceToolCall    TraceType = "tool_call"
)

// NewID generates a new unique identifier for records and entries.
func NewID() string { return uuid.NewString() }

// NewOutreachArtifactID generates the canonical id for an outreach artifact.
func NewOutreachArtifactID() string {
	u := uuid.New()
	return fmt.Sprintf("out_%x", u[:])
}
