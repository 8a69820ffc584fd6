package memtag

import (
	"fmt"

	"github.com/salescrew/salesmesh/core"
)

// Entity is the subject a memory entry is about.
type Entity string

const (
	EntityAccount Entity = "account"
	EntityLead    Entity = "lead"
	EntityRun     Entity = "run"
)

// Kind is the memory content category.
type Kind string

const (
	KindPreference Kind = "preference"
	KindObjection  Kind = "objection"
	KindDecision   Kind = "decision"
	KindNextStep   Kind = "next_step"
	KindSummary    Kind = "summary"
)

// TagParams feed the canonical tag builder. Entity, Kind and Stage are
// mandatory; the rest narrow recall when present.
type TagParams struct {
	Entity    Entity
	Kind      Kind
	Stage     core.Stage
	AccountID string
	LeadID    string
	Channel   core.Channel
	Status    string
	Persona   string
	Vertical  string
	Extras    []string
}

// BuildTags produces the canonical, de-duplicated tag set for a memory
// entry. Using it keeps facet recall deterministic: the same parameters
// always yield the same tags in the same order.
func BuildTags(p TagParams) ([]string, error) {
	if p.Entity == "" || p.Kind == "" || p.Stage == "" {
		return nil, fmt.Errorf("entity, kind and stage are required for memory tags")
	}
	tags := []string{
		core.MustTag("entity", string(p.Entity)),
		core.MustTag("type", string(p.Kind)),
		core.MustTag("stage", string(p.Stage)),
	}
	for _, opt := range []struct{ key, value string }{
		{"account", p.AccountID},
		{"lead", p.LeadID},
		{"channel", string(p.Channel)},
		{"status", p.Status},
		{"persona", p.Persona},
		{"vertical", p.Vertical},
	} {
		if opt.value != "" {
			tags = append(tags, core.MustTag(opt.key, opt.value))
		}
	}
	tags = append(tags, p.Extras...)
	return core.NormalizeTags(tags)
}

// requiredFacetKeys is the tag triad every memory entry must carry.
var requiredFacetKeys = []string{"entity", "type", "stage"}

// missingFacets returns the triad keys absent from the tag set.
func missingFacets(tags []string) []string {
	keys := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if k := core.TagKey(t); k != "" {
			keys[k] = struct{}{}
		}
	}
	var missing []string
	for _, k := range requiredFacetKeys {
		if _, ok := keys[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}
