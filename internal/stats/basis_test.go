package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsepoll/backend/internal/model"
)

func TestGenerateBasisSplits(t *testing.T) {
	t.Parallel()

	resp := satisfactionQuestion()
	groupings := []*model.Question{ageQuestion(), genderQuestion()}

	splits, err := GenerateBasisSplits(resp, groupings, 0)
	require.NoError(t, err)
	require.Len(t, splits, 12)

	// row-major: first question (age) varies slowest
	for i, split := range splits {
		require.Len(t, split.Groups, 2)
		assert.Equal(t, i/3, split.Groups[0].GroupIndex, "split %d age group", i)
		assert.Equal(t, i%3, split.Groups[1].GroupIndex, "split %d gender group", i)
		assert.Equal(t, "age", split.Groups[0].Question.VarName)
		assert.Equal(t, "gender", split.Groups[1].Question.VarName)

		assert.Zero(t, split.TotalCount)
		assert.Zero(t, split.TotalWeight)
		assert.Len(t, split.Expanded, 4)
		assert.Len(t, split.Collapsed, 2)
	}

	// the fixture profile: age group 1, gender group 1
	assert.Equal(t, 1, splits[4].Groups[0].GroupIndex)
	assert.Equal(t, 1, splits[4].Groups[1].GroupIndex)
	assert.Equal(t, "25-34", splits[4].Groups[0].Label)
	assert.Equal(t, "male", splits[4].Groups[1].Label)
}

func TestGenerateBasisSplitsDeterminism(t *testing.T) {
	t.Parallel()

	resp := satisfactionQuestion()
	groupings := []*model.Question{ageQuestion(), genderQuestion()}

	first, err := GenerateBasisSplits(resp, groupings, 0)
	require.NoError(t, err)
	second, err := GenerateBasisSplits(resp, groupings, 0)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	firstLookup, err := BuildLookupMaps(resp, first)
	require.NoError(t, err)
	secondLookup, err := BuildLookupMaps(resp, second)
	require.NoError(t, err)
	assert.Equal(t, firstLookup, secondLookup)
}

func TestGenerateBasisSplitsNoGroupings(t *testing.T) {
	t.Parallel()

	splits, err := GenerateBasisSplits(satisfactionQuestion(), nil, 0)
	require.NoError(t, err)
	require.Len(t, splits, 1)
	assert.Empty(t, splits[0].Groups)
}

func TestGenerateBasisSplitsErrors(t *testing.T) {
	t.Parallel()

	t.Run("CombinationCeiling", func(t *testing.T) {
		t.Parallel()
		_, err := GenerateBasisSplits(satisfactionQuestion(), []*model.Question{ageQuestion(), genderQuestion()}, 10)
		assert.ErrorIs(t, err, ErrTooManyCombinations)
	})

	t.Run("EmptyGroups", func(t *testing.T) {
		t.Parallel()
		_, err := GenerateBasisSplits(satisfactionQuestion(), []*model.Question{{VarName: "empty"}}, 0)
		assert.ErrorIs(t, err, ErrNoResponseGroups)
	})

	t.Run("TooManyDimensions", func(t *testing.T) {
		t.Parallel()
		groupings := make([]*model.Question, MaxGroupingDimensions+1)
		for i := range groupings {
			groupings[i] = genderQuestion()
		}
		_, err := GenerateBasisSplits(satisfactionQuestion(), groupings, 0)
		assert.ErrorIs(t, err, ErrTooManyDimensions)
	})

	t.Run("InvalidPartitions", func(t *testing.T) {
		t.Parallel()
		resp := satisfactionQuestion()
		resp.Collapsed = resp.Collapsed[:1]
		_, err := GenerateBasisSplits(resp, nil, 0)
		assert.ErrorIs(t, err, model.ErrPartitionMismatch)
	})
}
