// Package salesmesh provides a high-level façade over the retrieval planner,
// memory tagging engine and run tracer used by sales-crew agents. Most
// applications interact with this package by:
//  1. Creating a SalesMesh via New() (optionally overriding the default
//     in-memory stores)
//  2. Retrieving stage-scoped context through Knowledge()
//  3. Recording durable observations through Memory() and run lifecycle
//     events through Tracer()
//
// All defaults are safe for local development and testing; production
// deployments typically supply durable store implementations and a
// structured logger, either directly or via NewFromConfig.
package salesmesh

import (
	"fmt"

	"github.com/salescrew/salesmesh/config"
	"github.com/salescrew/salesmesh/core"
	"github.com/salescrew/salesmesh/filter"
	"github.com/salescrew/salesmesh/knowledge"
	"github.com/salescrew/salesmesh/logging"
	"github.com/salescrew/salesmesh/memorystore"
	"github.com/salescrew/salesmesh/memorystore/postgres"
	"github.com/salescrew/salesmesh/memorystore/sqlite"
	"github.com/salescrew/salesmesh/memtag"
	"github.com/salescrew/salesmesh/planner"
	"github.com/salescrew/salesmesh/schema"
	"github.com/salescrew/salesmesh/tracer"
	"github.com/salescrew/salesmesh/vectorstore"
)

// Options configures the SalesMesh instance.
type Options struct {
	// Stores (default to in-memory implementations if not provided)
	VectorStore core.VectorSearchStore
	MemoryStore core.MemoryStore

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Per-component tuning, applied after the defaults.
	PlannerOptions   []func(o *planner.Options)
	KnowledgeOptions []func(o *knowledge.Options)
	TracerOptions    []func(o *tracer.Options)
}

// SalesMesh is the high-level façade aggregating the retrieval and memory
// components over a shared schema registry.
type SalesMesh struct {
	opts      Options
	registry  *schema.Registry
	filters   *filter.Builder
	planner   *planner.Planner
	knowledge *knowledge.Base
	memory    *memtag.Engine
	tracer    *tracer.Tracer
}

// New creates a new SalesMesh instance with optional overrides. Any unset
// store is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) (*SalesMesh, error) {
	opts := Options{
		VectorStore: vectorstore.NewInMemoryStore(),
		MemoryStore: memorystore.NewInMemoryStore(),
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	registry := schema.NewRegistry()
	filters := filter.NewBuilder(registry)

	plannerOpts := append([]func(o *planner.Options){func(o *planner.Options) {
		o.Logger = opts.Logger
	}}, opts.PlannerOptions...)
	p := planner.New(opts.VectorStore, filters, plannerOpts...)

	knowledgeOpts := append([]func(o *knowledge.Options){func(o *knowledge.Options) {
		o.Logger = opts.Logger
	}}, opts.KnowledgeOptions...)
	kb, err := knowledge.New(registry, opts.VectorStore, p, knowledgeOpts...)
	if err != nil {
		return nil, err
	}

	memory := memtag.NewEngine(opts.MemoryStore, opts.Logger)

	tracerOpts := append([]func(o *tracer.Options){func(o *tracer.Options) {
		o.Memory = memory
		o.Logger = opts.Logger
	}}, opts.TracerOptions...)
	tr := tracer.New(registry, opts.VectorStore, tracerOpts...)

	return &SalesMesh{
		opts:      opts,
		registry:  registry,
		filters:   filters,
		planner:   p,
		knowledge: kb,
		memory:    memory,
		tracer:    tr,
	}, nil
}

// NewFromConfig builds a SalesMesh from loaded configuration: the memory
// store engine, planner tuning and logger all follow cfg. Explicit option
// functions still win over config-derived values.
func NewFromConfig(cfg *config.Config, optFns ...func(o *Options)) (*SalesMesh, error) {
	if cfg == nil {
		return nil, fmt.Errorf("salesmesh: config is required")
	}

	memoryStore, err := memoryStoreFor(cfg)
	if err != nil {
		return nil, err
	}

	base := []func(o *Options){func(o *Options) {
		o.MemoryStore = memoryStore
		o.Logger = loggerFor(cfg)
		o.PlannerOptions = append(o.PlannerOptions, func(po *planner.Options) {
			po.PerNamespaceTopK = cfg.Retrieval.PerNamespaceTopK
			po.ResultBudget = cfg.Retrieval.ResultBudget
			po.SearchTimeout = cfg.Retrieval.SearchTimeout
		})
		o.KnowledgeOptions = append(o.KnowledgeOptions, func(ko *knowledge.Options) {
			ko.CacheTTL = cfg.Retrieval.CacheTTL
		})
	}}
	return New(append(base, optFns...)...)
}

func memoryStoreFor(cfg *config.Config) (core.MemoryStore, error) {
	switch cfg.Storage.Engine {
	case "", "memory":
		return memorystore.NewInMemoryStore(), nil
	case "sqlite":
		return sqlite.New(cfg.Storage.DSN)
	case "postgres":
		return postgres.New(cfg.Storage.DSN)
	default:
		return nil, fmt.Errorf("salesmesh: unknown storage engine %q", cfg.Storage.Engine)
	}
}

func loggerFor(cfg *config.Config) logging.Logger {
	level := logging.LogLevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = logging.LogLevelDebug
	case "warn":
		level = logging.LogLevelWarn
	case "error":
		level = logging.LogLevelError
	}
	return logging.NewSlogLogger(level, cfg.Logging.Format, false)
}

// Knowledge returns the retrieval surface.
func (m *SalesMesh) Knowledge() *knowledge.Base { return m.knowledge }

// Memory returns the tagging engine for durable observations.
func (m *SalesMesh) Memory() *memtag.Engine { return m.memory }

// Tracer returns the run lifecycle recorder.
func (m *SalesMesh) Tracer() *tracer.Tracer { return m.tracer }

// Planner exposes the underlying stage planner for callers that want raw
// plans without the cache.
func (m *SalesMesh) Planner() *planner.Planner { return m.planner }

// Registry exposes the namespace schema registry.
func (m *SalesMesh) Registry() *schema.Registry { return m.registry }

// Filters exposes the per-namespace filter builder.
func (m *SalesMesh) Filters() *filter.Builder { return m.filters }
