package core

// SalesContext carries the caller's task scope and is the single input
// driving filter construction. Empty string fields are treated as absent;
// the engine never invents defaults for identity fields.
type SalesContext struct {
	AccountID string `json:"account_id,omitempty"`
	LeadID    string `json:"lead_id,omitempty"`
	Stage     Stage  `json:"stage,omitempty"`
	RunID     string `json:"run_id,omitempty"`
	CrewID    string `json:"crew_id,omitempty"`
	TaskID    string `json:"task_id,omitempty"`
	AgentID   string `json:"agent_id,omitempty"`

	// Optional narrowing hints.
	Persona  string         `json:"persona,omitempty"`
	Vertical string         `json:"vertical,omitempty"`
	Channel  Channel        `json:"channel,omitempty"`
	Status   OutreachStatus `json:"status,omitempty"`
}

// Key renders the context as a canonical string for cache keying. Only
// fields that participate in filter recipes are included.
func (c SalesContext) Key() string {
	return string(c.Stage) + "|" + c.AccountID + "|" + c.LeadID + "|" +
		c.RunID + "|" + c.CrewID + "|" + c.Persona + "|" + c.Vertical + "|" +
		string(c.Channel) + "|" + string(c.Status)
}
