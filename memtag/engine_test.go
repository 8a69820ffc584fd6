package memtag

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salescrew/salesmesh/core"
	"github.com/salescrew/salesmesh/memorystore"
)

func newEngine() (*Engine, *memorystore.InMemoryStore) {
	store := memorystore.NewInMemoryStore()
	return NewEngine(store, nil), store
}

func leadTags(t *testing.T, kind Kind, stage core.Stage) []string {
	t.Helper()
	tags, err := BuildTags(TagParams{
		Entity:    EntityLead,
		Kind:      kind,
		Stage:     stage,
		AccountID: "acct_123",
		LeadID:    "lead_456",
	})
	require.NoError(t, err)
	return tags
}

func TestBuildTags_TriadMandatory(t *testing.T) {
	_, err := BuildTags(TagParams{Entity: EntityLead, Kind: KindPreference})
	assert.Error(t, err)

	tags, err := BuildTags(TagParams{Entity: EntityLead, Kind: KindPreference, Stage: core.StageOutreach})
	require.NoError(t, err)
	assert.Equal(t, []string{"entity:lead", "type:preference", "stage:outreach"}, tags)
}

func TestBuildTags_OptionalAndExtras(t *testing.T) {
	tags, err := BuildTags(TagParams{
		Entity:    EntityLead,
		Kind:      KindPreference,
		Stage:     core.StageOutreach,
		AccountID: "acct_123",
		LeadID:    "lead_456",
		Channel:   core.ChannelEmail,
		Extras:    []string{"campaign:q3", "entity:lead"}, // duplicate collapses
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"entity:lead", "type:preference", "stage:outreach",
		"account:acct_123", "lead:lead_456", "channel:email", "campaign:q3",
	}, tags)
}

func TestRemember_RejectsMissingTriad(t *testing.T) {
	e, store := newEngine()

	_, err := e.Remember(context.Background(), "prefers async demos",
		[]string{"entity:lead", "stage:outreach"}, core.PriorityHigh, nil)
	require.Error(t, err)

	var facetErr *FacetError
	require.ErrorAs(t, err, &facetErr)
	assert.Equal(t, []string{"type"}, facetErr.Missing)
	assert.Equal(t, 0, store.Len())
}

func TestRemember_RejectsMalformedTag(t *testing.T) {
	e, _ := newEngine()
	_, err := e.Remember(context.Background(), "x",
		[]string{"entity:lead", "type:preference", "stage:outreach", "broken"},
		core.PriorityLow, nil)
	assert.Error(t, err)
}

func TestRemember_IdempotentByArtifact(t *testing.T) {
	e, store := newEngine()
	tags := leadTags(t, KindDecision, core.StageOutreach)
	md := core.Metadata{core.KeyArtifactID: "out_1"}

	first, err := e.Remember(context.Background(), "chose email variant A", tags, core.PriorityHigh, md)
	require.NoError(t, err)
	assert.Equal(t, "mem_out_1", first.ID)

	second, err := e.Remember(context.Background(), "chose email variant A (retry)", tags, core.PriorityHigh, md)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.Len())

	entries, err := e.RecallByFacets(context.Background(), tags, nil, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "chose email variant A (retry)", entries[0].Content)
}

func TestRemember_FreshIDWithoutDerivedIdentity(t *testing.T) {
	e, store := newEngine()
	tags := leadTags(t, KindPreference, core.StageOutreach)

	_, err := e.Remember(context.Background(), "prefers mornings", tags, core.PriorityMedium, nil)
	require.NoError(t, err)
	_, err = e.Remember(context.Background(), "prefers mornings", tags, core.PriorityMedium, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())
}

func TestRemember_StoreFailureSurfaces(t *testing.T) {
	e := NewEngine(failingStore{}, nil)
	tags := leadTags(t, KindPreference, core.StageOutreach)

	_, err := e.Remember(context.Background(), "x", tags, core.PriorityLow, nil)
	require.Error(t, err)
	var storeErr *core.ExternalStoreError
	assert.ErrorAs(t, err, &storeErr)
}

func TestRecallByFacets_Ordering(t *testing.T) {
	e, _ := newEngine()
	tags := leadTags(t, KindObjection, core.StageFollowup)

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	writeAt := func(content string, p core.Priority, offset time.Duration) {
		_, err := e.Remember(context.Background(), content, tags, p,
			core.Metadata{core.KeyTS: base.Add(offset)})
		require.NoError(t, err)
	}
	writeAt("old low", core.PriorityLow, 0)
	writeAt("old high", core.PriorityHigh, time.Hour)
	writeAt("new high", core.PriorityHigh, 2*time.Hour)
	writeAt("new medium", core.PriorityMedium, 3*time.Hour)

	entries, err := e.RecallByFacets(context.Background(), tags, nil, 0)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, "new high", entries[0].Content)
	assert.Equal(t, "old high", entries[1].Content)
	assert.Equal(t, "new medium", entries[2].Content)
	assert.Equal(t, "old low", entries[3].Content)

	// Priority floor and limit.
	minHigh := core.PriorityHigh
	entries, err = e.RecallByFacets(context.Background(), tags, &minHigh, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new high", entries[0].Content)
}

func TestRecallByFacets_ExactTagAND(t *testing.T) {
	e, _ := newEngine()

	outreachTags := leadTags(t, KindPreference, core.StageOutreach)
	followupTags := leadTags(t, KindPreference, core.StageFollowup)

	_, err := e.Remember(context.Background(), "outreach pref", outreachTags, core.PriorityHigh, nil)
	require.NoError(t, err)
	_, err = e.Remember(context.Background(), "followup pref", followupTags, core.PriorityHigh, nil)
	require.NoError(t, err)

	entries, err := e.RecallByFacets(context.Background(), outreachTags, nil, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "outreach pref", entries[0].Content)
}

func TestRecallFacet_LeadPreferencesRecipe(t *testing.T) {
	e, _ := newEngine()
	q := LeadPreferences("acct_123", "lead_456")
	assert.Equal(t, 10, q.Limit)
	require.NotNil(t, q.MinPriority)
	assert.Equal(t, core.PriorityHigh, *q.MinPriority)

	tags := leadTags(t, KindPreference, core.StageOutreach)
	_, err := e.Remember(context.Background(), "high pref", tags, core.PriorityHigh, nil)
	require.NoError(t, err)
	_, err = e.Remember(context.Background(), "low pref", tags, core.PriorityLow, nil)
	require.NoError(t, err)

	entries, err := e.RecallFacet(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "high pref", entries[0].Content)
}

func TestRecallSemantic_ScopePostFilter(t *testing.T) {
	e, _ := newEngine()
	tags := leadTags(t, KindPreference, core.StageOutreach)

	write := func(content, account, lead string) {
		md := core.Metadata{}
		if account != "" {
			md[core.KeyAccountID] = account
		}
		if lead != "" {
			md[core.KeyLeadID] = lead
		}
		_, err := e.Remember(context.Background(), content, tags, core.PriorityMedium, md)
		require.NoError(t, err)
	}
	write("pricing concern for our lead", "acct_123", "lead_456")
	write("pricing concern for other lead", "acct_123", "lead_999")
	write("pricing concern unscoped", "", "")

	sc := core.SalesContext{AccountID: "acct_123", LeadID: "lead_456"}
	entries, err := e.RecallSemantic(context.Background(), "pricing", 10, sc)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "pricing concern for our lead", entries[0].Content)

	// Account-only scope matches both account-tagged entries.
	entries, err = e.RecallSemantic(context.Background(), "pricing", 10, core.SalesContext{AccountID: "acct_123"})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	// No scope: the post-filter passes everything through.
	entries, err = e.RecallSemantic(context.Background(), "pricing", 10, core.SalesContext{})
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

// failingStore errors on every operation.
type failingStore struct{}

func (failingStore) Write(context.Context, core.MemoryEntry) (string, error) {
	return "", errors.New("write refused")
}

func (failingStore) List(context.Context, []string, *core.Priority, int) ([]core.MemoryEntry, error) {
	return nil, errors.New("list refused")
}

func (failingStore) Search(context.Context, string, int) ([]core.MemoryEntry, error) {
	return nil, errors.New("search refused")
}
