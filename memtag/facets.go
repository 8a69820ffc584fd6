package memtag

import "github.com/salescrew/salesmesh/core"

// FacetQuery is a deterministic facet recall: exact tag set, optional
// minimum priority and result limit.
type FacetQuery struct {
	Tags        []string
	MinPriority *core.Priority
	Limit       int
}

func priorityPtr(p core.Priority) *core.Priority { return &p }

// LeadPreferences recalls high-priority preferences for a lead ahead of
// outreach drafting.
func LeadPreferences(accountID, leadID string) FacetQuery {
	tags, _ := BuildTags(TagParams{
		Entity:    EntityLead,
		Kind:      KindPreference,
		Stage:     core.StageOutreach,
		AccountID: accountID,
		LeadID:    leadID,
	})
	return FacetQuery{Tags: tags, MinPriority: priorityPtr(core.PriorityHigh), Limit: 10}
}

// OpenObjections recalls unresolved objections for followup handling.
func OpenObjections(accountID, leadID string) FacetQuery {
	tags, _ := BuildTags(TagParams{
		Entity:    EntityLead,
		Kind:      KindObjection,
		Stage:     core.StageFollowup,
		AccountID: accountID,
		LeadID:    leadID,
	})
	return FacetQuery{Tags: tags, MinPriority: priorityPtr(core.PriorityMedium), Limit: 10}
}

// NextSteps recalls committed next steps for a lead.
func NextSteps(accountID, leadID string) FacetQuery {
	tags, _ := BuildTags(TagParams{
		Entity:    EntityLead,
		Kind:      KindNextStep,
		Stage:     core.StageFollowup,
		AccountID: accountID,
		LeadID:    leadID,
	})
	return FacetQuery{Tags: tags, MinPriority: priorityPtr(core.PriorityHigh), Limit: 10}
}
