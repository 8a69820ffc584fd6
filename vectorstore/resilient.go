package vectorstore

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/salescrew/salesmesh/core"
	"github.com/salescrew/salesmesh/logging"
)

// ResilientOptions configure the resilience decorator.
type ResilientOptions struct {
	// MaxFailures is the number of consecutive failures that trips the
	// breaker open.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before allowing a
	// half-open probe.
	OpenTimeout time.Duration
	// WriteRate is the sustained upsert rate; WriteBurst the burst size.
	// A zero rate disables write limiting.
	WriteRate  float64
	WriteBurst int
	// Logger receives breaker state changes. Defaults to NoOpLogger.
	Logger logging.Logger
}

// ResilientStore decorates a VectorSearchStore with a circuit breaker and a
// write rate limiter. Reads that fail or find the breaker open return an
// *core.ExternalStoreError, which the planner treats as an empty result for
// the affected namespace; writes surface the error since silent data loss
// is unacceptable.
type ResilientStore struct {
	inner   core.VectorSearchStore
	breaker *gobreaker.CircuitBreaker
	writes  *rate.Limiter
	logger  logging.Logger
}

var _ core.VectorSearchStore = (*ResilientStore)(nil)

// NewResilientStore wraps inner with breaker + rate limiter protection.
func NewResilientStore(inner core.VectorSearchStore, optFns ...func(o *ResilientOptions)) *ResilientStore {
	opts := ResilientOptions{
		MaxFailures: 3,
		OpenTimeout: 30 * time.Second,
		WriteRate:   50,
		WriteBurst:  25,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	logger := opts.Logger
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "vector-store",
		Timeout: opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("vector store breaker state changed", "from", from.String(), "to", to.String())
		},
	})

	var writes *rate.Limiter
	if opts.WriteRate > 0 {
		writes = rate.NewLimiter(rate.Limit(opts.WriteRate), opts.WriteBurst)
	}

	return &ResilientStore{inner: inner, breaker: breaker, writes: writes, logger: logger}
}

// Search dispatches through the breaker.
func (s *ResilientStore) Search(ctx context.Context, ns core.Namespace, query string, f core.SearchFilter, topK int) ([]core.VectorRecord, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.inner.Search(ctx, ns, query, f, topK)
	})
	if err != nil {
		return nil, &core.ExternalStoreError{Op: "search", Namespace: ns, Err: err}
	}
	return result.([]core.VectorRecord), nil
}

// Upsert waits for write-rate capacity, then dispatches through the breaker.
func (s *ResilientStore) Upsert(ctx context.Context, record core.VectorRecord) (string, error) {
	if s.writes != nil {
		if err := s.writes.Wait(ctx); err != nil {
			return "", &core.ExternalStoreError{Op: "upsert", Namespace: record.Namespace, Err: err}
		}
	}
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.inner.Upsert(ctx, record)
	})
	if err != nil {
		return "", &core.ExternalStoreError{Op: "upsert", Namespace: record.Namespace, Err: err}
	}
	return result.(string), nil
}
