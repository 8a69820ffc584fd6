package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salescrew/salesmesh/core"
	"github.com/salescrew/salesmesh/internal/testutil"
)

func TestInMemoryStore_UpsertReplacesByIdentity(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	first := testutil.NewRecordBuilder(core.NamespaceOutreach, "draft v1").
		Meta(core.KeyArtifactID, "out_1").Build()
	id, err := s.Upsert(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "out_1", id)

	second := testutil.NewRecordBuilder(core.NamespaceOutreach, "draft v2").
		Meta(core.KeyArtifactID, "out_1").Build()
	_, err = s.Upsert(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len(core.NamespaceOutreach))

	records, err := s.Search(ctx, core.NamespaceOutreach, "", nil, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "draft v2", records[0].Text)
}

func TestInMemoryStore_SearchFilterAndQuery(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	for _, rec := range []core.VectorRecord{
		testutil.NewRecordBuilder(core.NamespaceLeads, "Prefers async demos").
			Meta(core.KeyAccountID, "acct_123").Meta(core.KeyLeadID, "lead_456").Build(),
		testutil.NewRecordBuilder(core.NamespaceLeads, "Asked about pricing").
			Meta(core.KeyAccountID, "acct_123").Meta(core.KeyLeadID, "lead_999").Build(),
	} {
		_, err := s.Upsert(ctx, rec)
		require.NoError(t, err)
	}

	records, err := s.Search(ctx, core.NamespaceLeads, "", core.SearchFilter{core.KeyLeadID: "lead_456"}, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Prefers async demos", records[0].Text)

	// Query match is case-insensitive substring.
	records, err = s.Search(ctx, core.NamespaceLeads, "PRICING", nil, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Asked about pricing", records[0].Text)

	// topK caps results.
	records, err = s.Search(ctx, core.NamespaceLeads, "", nil, 1)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestInMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	rec := testutil.NewRecordBuilder(core.NamespaceAccounts, "note").
		Meta(core.KeyAccountID, "acct_123").Build()
	_, err := s.Upsert(ctx, rec)
	require.NoError(t, err)

	records, _ := s.Search(ctx, core.NamespaceAccounts, "", nil, 0)
	records[0].Metadata[core.KeyAccountID] = "mutated"

	fresh, _ := s.Search(ctx, core.NamespaceAccounts, "", nil, 0)
	assert.Equal(t, "acct_123", fresh[0].Metadata.String(core.KeyAccountID))
}

func TestInMemoryStore_CancelledContext(t *testing.T) {
	s := NewInMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Search(ctx, core.NamespaceLeads, "", nil, 0)
	assert.Error(t, err)
	_, err = s.Upsert(ctx, testutil.NewRecordBuilder(core.NamespaceLeads, "x").Build())
	assert.Error(t, err)
}
