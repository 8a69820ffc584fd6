package vectorstore

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salescrew/salesmesh/core"
	"github.com/salescrew/salesmesh/internal/testutil"
)

// flakyStore fails while failing is set, counting calls that reach it.
type flakyStore struct {
	inner   *InMemoryStore
	failing atomic.Bool
	calls   atomic.Int64
}

func (s *flakyStore) Search(ctx context.Context, ns core.Namespace, query string, f core.SearchFilter, topK int) ([]core.VectorRecord, error) {
	s.calls.Add(1)
	if s.failing.Load() {
		return nil, errors.New("backend unavailable")
	}
	return s.inner.Search(ctx, ns, query, f, topK)
}

func (s *flakyStore) Upsert(ctx context.Context, record core.VectorRecord) (string, error) {
	s.calls.Add(1)
	if s.failing.Load() {
		return "", errors.New("backend unavailable")
	}
	return s.inner.Upsert(ctx, record)
}

func TestResilientStore_PassThrough(t *testing.T) {
	inner := &flakyStore{inner: NewInMemoryStore()}
	s := NewResilientStore(inner)
	ctx := context.Background()

	rec := testutil.NewRecordBuilder(core.NamespaceAccounts, "note").
		Meta(core.KeyAccountID, "acct_123").Build()
	id, err := s.Upsert(ctx, rec)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	records, err := s.Search(ctx, core.NamespaceAccounts, "", nil, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestResilientStore_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &flakyStore{inner: NewInMemoryStore()}
	inner.failing.Store(true)
	s := NewResilientStore(inner, func(o *ResilientOptions) {
		o.MaxFailures = 2
		o.OpenTimeout = time.Hour
		o.WriteRate = 0
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := s.Search(ctx, core.NamespaceAccounts, "", nil, 0)
		require.Error(t, err)
	}
	reached := inner.calls.Load()

	// The breaker is open: calls fail fast without reaching the backend.
	_, err := s.Search(ctx, core.NamespaceAccounts, "", nil, 0)
	require.Error(t, err)
	var storeErr *core.ExternalStoreError
	assert.ErrorAs(t, err, &storeErr)
	assert.Equal(t, reached, inner.calls.Load())
}

func TestResilientStore_RecoversAfterTimeout(t *testing.T) {
	inner := &flakyStore{inner: NewInMemoryStore()}
	inner.failing.Store(true)
	s := NewResilientStore(inner, func(o *ResilientOptions) {
		o.MaxFailures = 1
		o.OpenTimeout = 10 * time.Millisecond
		o.WriteRate = 0
	})
	ctx := context.Background()

	_, err := s.Search(ctx, core.NamespaceAccounts, "", nil, 0)
	require.Error(t, err)

	inner.failing.Store(false)
	time.Sleep(20 * time.Millisecond)

	// Half-open probe succeeds and the store works again.
	_, err = s.Search(ctx, core.NamespaceAccounts, "", nil, 0)
	assert.NoError(t, err)
}

func TestResilientStore_WriteErrorsWrap(t *testing.T) {
	inner := &flakyStore{inner: NewInMemoryStore()}
	inner.failing.Store(true)
	s := NewResilientStore(inner)

	_, err := s.Upsert(context.Background(), testutil.NewRecordBuilder(core.NamespaceLeads, "x").Build())
	require.Error(t, err)
	var storeErr *core.ExternalStoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "upsert", storeErr.Op)
	assert.Equal(t, core.NamespaceLeads, storeErr.Namespace)
}
