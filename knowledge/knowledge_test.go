package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salescrew/salesmesh/core"
	"github.com/salescrew/salesmesh/filter"
	"github.com/salescrew/salesmesh/internal/testutil"
	"github.com/salescrew/salesmesh/planner"
	"github.com/salescrew/salesmesh/schema"
	"github.com/salescrew/salesmesh/vectorstore"
)

func newBase(t *testing.T, optFns ...func(o *Options)) (*Base, *vectorstore.InMemoryStore) {
	t.Helper()
	registry := schema.NewRegistry()
	store := vectorstore.NewInMemoryStore()
	p := planner.New(store, filter.NewBuilder(registry))
	b, err := New(registry, store, p, optFns...)
	require.NoError(t, err)
	return b, store
}

func TestRetrieve(t *testing.T) {
	b, store := newBase(t)
	ctx := context.Background()

	rec := testutil.NewRecordBuilder(core.NamespacePlaybooks, "discovery call checklist").
		Meta(core.KeyDocID, "pb_1").
		Meta(core.KeyTitle, "Discovery").
		Meta(core.KeySource, "playbooks/discovery.md").
		Build()
	_, err := store.Upsert(ctx, rec)
	require.NoError(t, err)

	result, err := b.Retrieve(ctx, core.StageResearch, core.SalesContext{}, "discovery")
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "discovery call checklist", result.Records[0].Text)
	assert.False(t, result.Truncated)
}

func TestRetrieve_UnknownStage(t *testing.T) {
	b, _ := newBase(t)
	_, err := b.Retrieve(context.Background(), core.Stage("negotiation"), core.SalesContext{}, "")
	assert.Error(t, err)
}

func TestIngest_ValidatesBeforeWrite(t *testing.T) {
	b, store := newBase(t)
	ctx := context.Background()

	// Missing required metadata never reaches the store.
	_, err := b.Ingest(ctx, core.VectorRecord{
		Text:      "bad record",
		Namespace: core.NamespacePlaybooks,
		Metadata:  core.Metadata{},
	})
	require.Error(t, err)
	var violation *core.SchemaViolation
	assert.ErrorAs(t, err, &violation)
	assert.Equal(t, 0, store.Len(core.NamespacePlaybooks))
}

func TestIngest_FillsCanonicalType(t *testing.T) {
	b, store := newBase(t)
	ctx := context.Background()

	rec := testutil.NewRecordBuilder(core.NamespaceOutreach, "intro email draft").
		Meta(core.KeyArtifactID, "out_1").
		Meta(core.KeyAccountID, "acct_123").
		Meta(core.KeyLeadID, "lead_456").
		Build()
	delete(rec.Metadata, core.KeyType)

	id, err := b.Ingest(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, "out_1", id)
	assert.Equal(t, 1, store.Len(core.NamespaceOutreach))

	// The caller's metadata map is not mutated.
	assert.NotContains(t, rec.Metadata, core.KeyType)
}

func TestIngest_Idempotent(t *testing.T) {
	b, store := newBase(t)
	ctx := context.Background()

	rec := testutil.NewRecordBuilder(core.NamespaceOutreach, "intro email draft").
		Meta(core.KeyArtifactID, "out_1").
		Meta(core.KeyAccountID, "acct_123").
		Meta(core.KeyLeadID, "lead_456").
		Build()

	for i := 0; i < 2; i++ {
		_, err := b.Ingest(ctx, rec)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, store.Len(core.NamespaceOutreach))
}

func TestCacheKey_Stable(t *testing.T) {
	sc := testutil.NewContextBuilder().Account("acct_123").Lead("lead_456").Build()
	assert.Equal(t,
		cacheKey(core.StageOutreach, sc, "pricing"),
		cacheKey(core.StageOutreach, sc, "pricing"))
	assert.NotEqual(t,
		cacheKey(core.StageOutreach, sc, "pricing"),
		cacheKey(core.StageFollowup, sc, "pricing"))
	assert.NotEqual(t,
		cacheKey(core.StageOutreach, sc, "pricing"),
		cacheKey(core.StageOutreach, sc, "budget"))
}

func TestRetrieve_CacheDisabled(t *testing.T) {
	b, store := newBase(t, func(o *Options) { o.CacheTTL = 0 })
	ctx := context.Background()

	result, err := b.Retrieve(ctx, core.StageResearch, core.SalesContext{}, "anything")
	require.NoError(t, err)
	assert.Empty(t, result.Records)

	// New writes are visible immediately without a cache.
	rec := testutil.NewRecordBuilder(core.NamespaceAccounts, "anything goes here").
		Meta(core.KeyAccountID, "acct_123").Build()
	_, err = store.Upsert(ctx, rec)
	require.NoError(t, err)

	result, err = b.Retrieve(ctx, core.StageResearch, core.SalesContext{AccountID: "acct_123"}, "anything")
	require.NoError(t, err)
	assert.Len(t, result.Records, 1)
}
