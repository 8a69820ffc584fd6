package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTag(t *testing.T) {
	tag, err := Tag("entity", "lead")
	require.NoError(t, err)
	assert.Equal(t, "entity:lead", tag)

	tag, err = Tag("  account ", " acct_123 ")
	require.NoError(t, err)
	assert.Equal(t, "account:acct_123", tag)

	_, err = Tag("", "lead")
	assert.Error(t, err)

	_, err = Tag("entity", "")
	assert.Error(t, err)

	_, err = Tag("en:tity", "lead")
	assert.Error(t, err)
}

func TestValidTag(t *testing.T) {
	assert.True(t, ValidTag("entity:lead"))
	assert.True(t, ValidTag("ts:2026-01-15T10:00:00Z")) // value may contain ':'
	assert.False(t, ValidTag("entity"))
	assert.False(t, ValidTag(":lead"))
	assert.False(t, ValidTag("entity:"))
}

func TestTagKey(t *testing.T) {
	assert.Equal(t, "entity", TagKey("entity:lead"))
	assert.Equal(t, "", TagKey("malformed"))
	assert.Equal(t, "", TagKey(":lead"))
}

func TestNormalizeTags(t *testing.T) {
	tags, err := NormalizeTags([]string{"entity:lead", "stage:outreach", "entity:lead"})
	require.NoError(t, err)
	assert.Equal(t, []string{"entity:lead", "stage:outreach"}, tags)

	_, err = NormalizeTags([]string{"entity:lead", "broken"})
	assert.Error(t, err)

	tags, err = NormalizeTags(nil)
	require.NoError(t, err)
	assert.Empty(t, tags)
}
