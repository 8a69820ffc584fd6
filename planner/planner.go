package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/salescrew/salesmesh/core"
	"github.com/salescrew/salesmesh/filter"
	"github.com/salescrew/salesmesh/logging"
)

// stagePlans is the fixed stage → ordered namespace table. Order matters:
// it defines both dispatch order and the tie-break used at merge time.
var stagePlans = map[core.Stage][]core.Namespace{
	core.StageResearch: {
		core.NamespacePlaybooks,
		core.NamespaceCases,
		core.NamespaceAccounts,
	},
	core.StageOutreach: {
		core.NamespaceOutreach,
		core.NamespaceLeads,
		core.NamespacePlaybooks,
		core.NamespaceCases,
	},
	core.StageFollowup: {
		core.NamespaceOutreach,
		core.NamespaceLeads,
		core.NamespacePlaybooks,
		core.NamespaceRuns,
	},
}

// PlanItem is one namespace search within a plan.
type PlanItem struct {
	Namespace core.Namespace
	Filter    core.SearchFilter
	TopK      int
}

// Plan is the ordered search list for one stage and context.
type Plan struct {
	Stage core.Stage
	Items []PlanItem
}

// Result is the merged outcome of executing a plan. Truncated is set when
// the caller aborted mid-plan; the records gathered up to that point are
// still valid.
type Result struct {
	Records   []core.VectorRecord
	Truncated bool
}

// Options tune plan execution.
type Options struct {
	// PerNamespaceTopK is the base top-K passed to each namespace search.
	PerNamespaceTopK int
	// ResultBudget caps the merged, deduplicated result list.
	ResultBudget int
	// SearchTimeout bounds each individual namespace search. A search that
	// exceeds it contributes an empty result.
	SearchTimeout time.Duration
	// Logger receives per-search diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Planner builds and executes stage search plans.
type Planner struct {
	store   core.VectorSearchStore
	filters *filter.Builder
	opts    Options
}

// New creates a Planner over the given store and filter builder.
func New(store core.VectorSearchStore, filters *filter.Builder, optFns ...func(o *Options)) *Planner {
	opts := Options{
		PerNamespaceTopK: 6,
		ResultBudget:     24,
		SearchTimeout:    5 * time.Second,
		Logger:           logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Planner{store: store, filters: filters, opts: opts}
}

// Plan produces the ordered (namespace, filter) list for a stage. Filters
// are built read-path: missing context fields narrow less, never error.
func (p *Planner) Plan(stage core.Stage, sc core.SalesContext) (Plan, error) {
	namespaces, ok := stagePlans[stage]
	if !ok {
		return Plan{}, fmt.Errorf("unknown stage %q", stage)
	}
	items := make([]PlanItem, 0, len(namespaces))
	for _, ns := range namespaces {
		items = append(items, PlanItem{
			Namespace: ns,
			Filter:    p.filters.Build(ns, sc, nil),
			TopK:      topKFor(stage, ns, p.opts.PerNamespaceTopK),
		})
	}
	return Plan{Stage: stage, Items: items}, nil
}

// topKFor shades the base per-namespace top-K: case studies take a back seat
// during outreach while run traces get extra room during followup.
func topKFor(stage core.Stage, ns core.Namespace, base int) int {
	switch {
	case stage == core.StageOutreach && ns == core.NamespaceCases:
		return max(2, base/2)
	case stage == core.StageFollowup && ns == core.NamespaceRuns:
		return max(4, base)
	default:
		return base
	}
}

// Execute fans out every plan item concurrently with the same query string,
// waits for all dispatched searches to settle, then merges in plan order,
// deduplicates and applies the result budget. Cancellation stops further
// dispatch but keeps already-arrived results, flagged as truncated.
func (p *Planner) Execute(ctx context.Context, plan Plan, query string) (Result, error) {
	slots := make([][]core.VectorRecord, len(plan.Items))
	truncated := false

	var wg sync.WaitGroup
	for i, item := range plan.Items {
		if ctx.Err() != nil {
			truncated = true
			break
		}
		wg.Add(1)
		go func(slot int, it PlanItem) {
			defer wg.Done()
			slots[slot] = p.searchOne(ctx, it, query)
		}(i, item)
	}
	wg.Wait()

	if ctx.Err() != nil {
		truncated = true
	}

	merged := make([]core.VectorRecord, 0, p.opts.ResultBudget)
	for _, recs := range slots {
		merged = append(merged, recs...)
	}
	merged = Dedupe(merged)
	if p.opts.ResultBudget > 0 && len(merged) > p.opts.ResultBudget {
		merged = merged[:p.opts.ResultBudget]
	}

	return Result{Records: merged, Truncated: truncated}, nil
}

// searchOne dispatches a single namespace search under the per-search
// timeout. Failures and timeouts degrade to an empty slice and are recorded,
// not raised, so one slow namespace never aborts the plan.
func (p *Planner) searchOne(ctx context.Context, item PlanItem, query string) []core.VectorRecord {
	searchCtx, cancel := context.WithTimeout(ctx, p.opts.SearchTimeout)
	defer cancel()

	start := time.Now()
	records, err := p.store.Search(searchCtx, item.Namespace, query, item.Filter, item.TopK)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			p.opts.Logger.Warn("namespace search timed out", "namespace", item.Namespace, "timeout", p.opts.SearchTimeout)
		} else {
			p.opts.Logger.Warn("namespace search failed", "namespace", item.Namespace, "error", err)
		}
		return nil
	}
	p.opts.Logger.Debug("namespace search completed",
		"namespace", item.Namespace, "hits", len(records), "duration", time.Since(start))
	return records
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
