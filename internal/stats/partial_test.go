package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsepoll/backend/internal/model"
)

func TestViewID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", ViewID(nil))
	assert.Equal(t, "0", ViewID([]int{0}))
	assert.Equal(t, "0,1", ViewID([]int{0, 1}))
}

func TestBuildViewIndex(t *testing.T) {
	t.Parallel()

	groupings := []*model.Question{ageQuestion(), genderQuestion()}
	index := BuildViewIndex(groupings)

	// 2 dimensions -> 2^2 views
	require.Len(t, index, 4)
	for _, id := range []string{"", "0", "1", "0,1"} {
		require.Contains(t, index, id)
	}

	// fully aggregated: a single partial split covering every basis split
	all := index[""]
	require.Len(t, all, 1)
	assert.Equal(t, []int{-1, -1}, all[0].GroupIndexes)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, all[0].BasisSplitIndices)

	// age pinned: 4 partials, each aggregating the 3 gender groups
	byAge := index["0"]
	require.Len(t, byAge, 4)
	for i, partial := range byAge {
		assert.Equal(t, []int{i, -1}, partial.GroupIndexes)
		assert.Equal(t, []int{i * 3, i*3 + 1, i*3 + 2}, partial.BasisSplitIndices)
	}

	// gender pinned: 3 partials, each aggregating the 4 age groups
	byGender := index["1"]
	require.Len(t, byGender, 3)
	for j, partial := range byGender {
		assert.Equal(t, []int{-1, j}, partial.GroupIndexes)
		assert.Equal(t, []int{j, j + 3, j + 6, j + 9}, partial.BasisSplitIndices)
	}

	// everything pinned: one partial per basis split, in enumeration order
	full := index["0,1"]
	require.Len(t, full, 12)
	for i, partial := range full {
		assert.Equal(t, []int{i / 3, i % 3}, partial.GroupIndexes)
		assert.Equal(t, []int{i}, partial.BasisSplitIndices)
	}
}

func TestBuildViewIndexDeterminism(t *testing.T) {
	t.Parallel()

	groupings := []*model.Question{ageQuestion(), genderQuestion()}
	assert.Equal(t, BuildViewIndex(groupings), BuildViewIndex(groupings))
}

func TestBuildViewIndexNoGroupings(t *testing.T) {
	t.Parallel()

	index := BuildViewIndex(nil)
	require.Len(t, index, 1)
	require.Len(t, index[""], 1)
	assert.Empty(t, index[""][0].GroupIndexes)
	assert.Equal(t, []int{0}, index[""][0].BasisSplitIndices)
}
