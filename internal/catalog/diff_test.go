package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff_IdenticalHasNoChanges(t *testing.T) {
	freezeNow(t, fixedNow)

	p := Normalize(map[string]any{"id": "p1", "name": "Bowl", "tags": []any{"clay"}}, 0)
	diffs := DiffProducts(&p, p)

	require.NotEmpty(t, diffs)
	assert.Empty(t, ChangedOnly(diffs))
}

func TestDiff_NestedPaths(t *testing.T) {
	base := map[string]any{
		"tags":  []any{"a"},
		"extra": map[string]any{"x": 1},
	}
	proposed := map[string]any{
		"tags":  []any{"a", "b"},
		"extra": map[string]any{"x": 2},
	}

	diffs := Diff(base, proposed)
	require.Len(t, diffs, 3)

	assert.Equal(t, "extra.x", diffs[0].Path)
	assert.True(t, diffs[0].Changed)
	assert.Equal(t, "tags[0]", diffs[1].Path)
	assert.False(t, diffs[1].Changed)
	assert.Equal(t, "tags[1]", diffs[2].Path)
	assert.Nil(t, diffs[2].CurrentValue)
	assert.Equal(t, "b", diffs[2].RequestedValue)
	assert.True(t, diffs[2].Changed)
}

func TestDiff_EmptyContainersAreLeaves(t *testing.T) {
	diffs := Diff(map[string]any{"images": []any{"a.jpg"}}, map[string]any{"images": []any{}})

	require.Len(t, diffs, 2)
	assert.Equal(t, "images", diffs[0].Path)
	assert.Equal(t, []any{}, diffs[0].RequestedValue)
	assert.Equal(t, "images[0]", diffs[1].Path)
	assert.True(t, diffs[1].Changed)
}

func TestDiff_NilBase(t *testing.T) {
	freezeNow(t, fixedNow)

	p := Normalize(map[string]any{"id": "new", "name": "Vase"}, 0)
	diffs := DiffProducts(nil, p)

	require.NotEmpty(t, diffs)
	for _, d := range diffs {
		assert.Nil(t, d.CurrentValue, d.Path)
	}
	assert.Empty(t, Diff(nil, nil))
}
