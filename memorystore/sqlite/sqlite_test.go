package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salescrew/salesmesh/core"
	"github.com/salescrew/salesmesh/embedding"
)

func newTestStore(t *testing.T, optFns ...func(o *Options)) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "memories.db"), optFns...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testEntry(id, content string, p core.Priority, createdAt time.Time, tags ...string) core.MemoryEntry {
	return core.MemoryEntry{
		ID:        id,
		Content:   content,
		Tags:      tags,
		Priority:  p,
		Metadata:  core.Metadata{core.KeyAccountID: "acct_123"},
		CreatedAt: createdAt,
	}
}

func TestStore_WriteAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	_, err := s.Write(ctx, testEntry("m1", "pref", core.PriorityHigh, base, "entity:lead", "type:preference"))
	require.NoError(t, err)
	_, err = s.Write(ctx, testEntry("m2", "obj", core.PriorityLow, base.Add(time.Hour), "entity:lead", "type:objection"))
	require.NoError(t, err)

	entries, err := s.List(ctx, []string{"entity:lead"}, nil, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "m1", entries[0].ID) // priority desc
	assert.Equal(t, []string{"entity:lead", "type:preference"}, entries[0].Tags)
	assert.Equal(t, "acct_123", entries[0].Metadata.String(core.KeyAccountID))
	assert.True(t, entries[0].CreatedAt.Equal(base))

	entries, err = s.List(ctx, []string{"type:objection"}, nil, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "m2", entries[0].ID)

	minMedium := core.PriorityMedium
	entries, err = s.List(ctx, []string{"entity:lead"}, &minMedium, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_WriteUpserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	_, err := s.Write(ctx, testEntry("m1", "v1", core.PriorityLow, base, "entity:lead"))
	require.NoError(t, err)
	_, err = s.Write(ctx, testEntry("m1", "v2", core.PriorityHigh, base.Add(time.Hour), "entity:lead"))
	require.NoError(t, err)

	entries, err := s.List(ctx, nil, nil, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "v2", entries[0].Content)
	assert.Equal(t, core.PriorityHigh, entries[0].Priority)
}

func TestStore_WriteRequiresID(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Write(context.Background(), core.MemoryEntry{Content: "x"})
	assert.Error(t, err)
}

func TestStore_SubstringSearchWithoutEmbedder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	_, err := s.Write(ctx, testEntry("m1", "asked about pricing tiers", core.PriorityLow, base, "entity:lead"))
	require.NoError(t, err)
	_, err = s.Write(ctx, testEntry("m2", "wants a demo", core.PriorityLow, base.Add(time.Hour), "entity:lead"))
	require.NoError(t, err)

	entries, err := s.Search(ctx, "pricing", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "m1", entries[0].ID)
}

func TestStore_SemanticSearchWithEmbedder(t *testing.T) {
	s := newTestStore(t, func(o *Options) { o.Embedder = embedding.NewMock(64) })
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	_, err := s.Write(ctx, testEntry("m1", "lead asked about pricing tiers and discounts", core.PriorityLow, base, "entity:lead"))
	require.NoError(t, err)
	_, err = s.Write(ctx, testEntry("m2", "demo scheduled for next week", core.PriorityLow, base.Add(time.Hour), "entity:lead"))
	require.NoError(t, err)

	entries, err := s.Search(ctx, "pricing discounts", 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "m1", entries[0].ID)
}

func TestStore_ReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memories.db")
	ctx := context.Background()

	s, err := New(path)
	require.NoError(t, err)
	_, err = s.Write(ctx, testEntry("m1", "durable", core.PriorityHigh, time.Now().UTC(), "entity:lead"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()

	entries, err := s.List(ctx, []string{"entity:lead"}, nil, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "durable", entries[0].Content)
}
