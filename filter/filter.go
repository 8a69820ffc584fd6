// Package filter builds the deterministic scalar filters used to query each
// namespace for a given sales context. Every recipe is a pure function of
// (namespace, context, extra): identical inputs always yield an identical
// filter. Fields absent from the context are omitted: the builder never
// invents defaults for identity fields, and read-path construction degrades
// gracefully when scope is missing. Write-path construction additionally
// enforces the identity fields the namespace mandates.
package filter

import (
	"github.com/salescrew/salesmesh/core"
	"github.com/salescrew/salesmesh/schema"
)

// Builder constructs per-namespace search filters from a sales context.
type Builder struct {
	registry *schema.Registry
}

// NewBuilder creates a Builder backed by the given schema registry.
func NewBuilder(registry *schema.Registry) *Builder {
	return &Builder{registry: registry}
}

// Build returns the read-path filter for a namespace. Missing context fields
// narrow the filter less; they never cause an error. The extra map is merged
// last and may override nothing but add further scalar equality terms.
func (b *Builder) Build(ns core.Namespace, sc core.SalesContext, extra core.SearchFilter) core.SearchFilter {
	f := b.recipe(ns, sc)
	for k, v := range extra {
		if v != "" {
			f[k] = v
		}
	}
	return f
}

// BuildForWrite returns the filter for a write-path operation, failing with
// *core.MissingContextError when the context lacks identity fields the
// namespace mandates. Missing optional fields still degrade gracefully.
func (b *Builder) BuildForWrite(ns core.Namespace, sc core.SalesContext) (core.SearchFilter, error) {
	if missing := b.missingIdentity(ns, sc); len(missing) > 0 {
		return nil, &core.MissingContextError{Namespace: ns, Fields: missing}
	}
	return b.recipe(ns, sc), nil
}

// missingIdentity lists namespace-mandatory identity fields absent from the
// context, in registry order.
func (b *Builder) missingIdentity(ns core.Namespace, sc core.SalesContext) []string {
	var missing []string
	for _, f := range b.registry.IdentityFields(ns) {
		switch f {
		case core.KeyAccountID:
			if sc.AccountID == "" {
				missing = append(missing, f)
			}
		case core.KeyLeadID:
			if sc.LeadID == "" {
				missing = append(missing, f)
			}
		case core.KeyCrewID:
			if sc.CrewID == "" {
				missing = append(missing, f)
			}
		case core.KeyRunID:
			if sc.RunID == "" {
				missing = append(missing, f)
			}
		}
	}
	return missing
}

// recipe implements the fixed per-namespace filter table.
func (b *Builder) recipe(ns core.Namespace, sc core.SalesContext) core.SearchFilter {
	f := core.SearchFilter{core.KeyType: b.registry.RecordType(ns)}

	switch ns {
	case core.NamespacePlaybooks, core.NamespaceCases:
		setIfPresent(f, core.KeyPersona, sc.Persona)
		setIfPresent(f, core.KeyVertical, sc.Vertical)

	case core.NamespaceAccounts:
		setIfPresent(f, core.KeyAccountID, sc.AccountID)
		setIfPresent(f, core.KeyStage, string(sc.Stage))

	case core.NamespaceLeads:
		// lead_id is never included without account_id when both exist.
		setIfPresent(f, core.KeyAccountID, sc.AccountID)
		if sc.AccountID != "" || sc.LeadID != "" {
			setIfPresent(f, core.KeyLeadID, sc.LeadID)
		}

	case core.NamespaceOutreach:
		setIfPresent(f, core.KeyAccountID, sc.AccountID)
		setIfPresent(f, core.KeyLeadID, sc.LeadID)
		setIfPresent(f, core.KeyChannel, string(sc.Channel))
		setIfPresent(f, core.KeyStatus, string(sc.Status))

	case core.NamespaceRuns:
		// run_id scoping wins when continuing the same run; otherwise the
		// trace query is scoped to the account/lead pair.
		if sc.RunID != "" {
			f[core.KeyRunID] = sc.RunID
		} else {
			setIfPresent(f, core.KeyAccountID, sc.AccountID)
			setIfPresent(f, core.KeyLeadID, sc.LeadID)
		}
	}

	return f
}

func setIfPresent(f core.SearchFilter, key, value string) {
	if value != "" {
		f[key] = value
	}
}
