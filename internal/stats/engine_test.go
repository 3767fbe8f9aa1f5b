package stats

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsepoll/backend/internal/model/types"
)

const epsilon = 1e-12

func newFixtureEngine(t *testing.T, withWeight bool) *Engine {
	t.Helper()
	engine, err := NewEngine(fixtureConfig(withWeight))
	require.NoError(t, err)
	return engine
}

// weightedRespondent answers age group 1, gender group 1 (profile "1:1",
// basis split 4) with the given satisfaction code and weight.
func weightedRespondent(id int, satisfaction float64, weight float64) *types.RespondentData {
	return respondent(id,
		answer("age", 2),
		answer("gender", 2),
		answer("satisfaction", satisfaction),
		answer("weight", weight),
	)
}

func TestEngineProfileResolution(t *testing.T) {
	t.Parallel()

	engine := newFixtureEngine(t, false)
	result, err := engine.UpdateSplits([]*types.RespondentData{
		respondent(1, answer("age", 2), answer("gender", 2), answer("satisfaction", 4)),
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.ValidCount)
	require.Len(t, result.Diff, 1)
	assert.Equal(t, 4, result.Diff[0].SplitIndex)

	split := engine.Splits()[4]
	assert.Equal(t, 1, split.TotalCount)
	assert.Equal(t, 1, split.Expanded[3].Count)
	assert.Equal(t, 1, split.Collapsed[1].Count)
}

func TestEngineWeightedScenario(t *testing.T) {
	t.Parallel()

	engine := newFixtureEngine(t, true)

	// first batch: 2 respondents into expanded group 0 (weights 1.0, 1.5),
	// 1 into expanded group 1 (weight 2.0), all on basis split 4
	result, err := engine.UpdateSplits([]*types.RespondentData{
		weightedRespondent(1, 1, 1.0),
		weightedRespondent(2, 1, 1.5),
		weightedRespondent(3, 2, 2.0),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 3, result.ValidCount)
	assert.Equal(t, 0, result.InvalidCount)

	split := engine.Splits()[4]
	assert.Equal(t, 3, split.TotalCount)
	assert.InDelta(t, 4.5, split.TotalWeight, epsilon)
	assert.Equal(t, 2, split.Expanded[0].Count)
	assert.InDelta(t, 2.5, split.Expanded[0].Weight, epsilon)
	assert.InDelta(t, 2.5/4.5, split.Expanded[0].Proportion, epsilon)
	assert.InDelta(t, 2.0/4.5, split.Expanded[1].Proportion, epsilon)
	// collapsed group 0 covers both expanded groups hit so far
	assert.Equal(t, 3, split.Collapsed[0].Count)
	assert.InDelta(t, 1.0, split.Collapsed[0].Proportion, epsilon)
	assert.Zero(t, split.Collapsed[1].Count)

	firstProportion := split.Expanded[0].Proportion

	// second batch: 4 respondents into the dissatisfied groups, total weight 3.5
	result, err = engine.UpdateSplits([]*types.RespondentData{
		weightedRespondent(4, 3, 1.0),
		weightedRespondent(5, 3, 1.0),
		weightedRespondent(6, 4, 1.0),
		weightedRespondent(7, 4, 0.5),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, result.ValidCount)

	assert.Equal(t, 7, split.TotalCount)
	assert.InDelta(t, 8.0, split.TotalWeight, epsilon)

	// untouched groups keep their raw accumulators but their proportion shrinks
	assert.Equal(t, 2, split.Expanded[0].Count)
	assert.InDelta(t, 2.5, split.Expanded[0].Weight, epsilon)
	assert.InDelta(t, 2.5/8.0, split.Expanded[0].Proportion, epsilon)
	assert.Less(t, split.Expanded[0].Proportion, firstProportion)

	// the diff reports the proportion shift even though count/weight deltas are zero
	require.Len(t, result.Diff, 1)
	delta := result.Diff[0].Expanded[0]
	assert.Zero(t, delta.Count)
	assert.InDelta(t, 0, delta.Weight, epsilon)
	assert.InDelta(t, 2.5/8.0-2.5/4.5, delta.Proportion, epsilon)
}

func TestEngineInvariants(t *testing.T) {
	t.Parallel()

	engine := newFixtureEngine(t, true)
	batch := []*types.RespondentData{
		weightedRespondent(1, 1, 1.0),
		weightedRespondent(2, 2, 0.5),
		weightedRespondent(3, 3, 2.0),
		respondent(4, answer("age", 1), answer("gender", 3), answer("satisfaction", 4)),
		respondent(5, answer("age", 4), answer("gender", 1), answer("satisfaction", 1), answer("weight", 3.0)),
	}
	_, err := engine.UpdateSplits(batch)
	require.NoError(t, err)

	for i, split := range engine.Splits() {
		expandedCount, collapsedCount := 0, 0
		for _, g := range split.Expanded {
			expandedCount += g.Count
			assert.InDelta(t, proportion(g.Weight, split.TotalWeight), g.Proportion, epsilon, "split %d", i)
		}
		for _, g := range split.Collapsed {
			collapsedCount += g.Count
			assert.InDelta(t, proportion(g.Weight, split.TotalWeight), g.Proportion, epsilon, "split %d", i)
		}
		assert.Equal(t, split.TotalCount, expandedCount, "split %d expanded counts", i)
		assert.Equal(t, split.TotalCount, collapsedCount, "split %d collapsed counts", i)
	}
}

func TestEngineBatchCommutativity(t *testing.T) {
	t.Parallel()

	a := weightedRespondent(1, 1, 1.0)
	b := weightedRespondent(2, 2, 1.5)
	c := respondent(3, answer("age", 3), answer("gender", 1), answer("satisfaction", 4), answer("weight", 2.0))

	oneBatch := newFixtureEngine(t, true)
	_, err := oneBatch.UpdateSplits([]*types.RespondentData{a, b, c})
	require.NoError(t, err)

	partitioned := newFixtureEngine(t, true)
	_, err = partitioned.UpdateSplits([]*types.RespondentData{a})
	require.NoError(t, err)
	_, err = partitioned.UpdateSplits([]*types.RespondentData{b, c})
	require.NoError(t, err)
	_, err = partitioned.UpdateSplits(nil)
	require.NoError(t, err)

	assert.Equal(t, oneBatch.Splits(), partitioned.Splits())
}

func TestEngineInvalidRespondents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		respondent *types.RespondentData
		reason     string
	}{
		{
			"ResponseMissing",
			respondent(1, answer("age", 2), answer("gender", 2)),
			MissingResponse,
		},
		{
			"ResponseSkipped",
			respondent(2, answer("age", 2), answer("gender", 2), skipped("satisfaction")),
			MissingResponse,
		},
		{
			"ResponseNotIntegral",
			respondent(3, answer("age", 2), answer("gender", 2), answer("satisfaction", 1.5)),
			MissingResponse,
		},
		{
			"ResponseUncategorized",
			respondent(4, answer("age", 2), answer("gender", 2), answer("satisfaction", 99)),
			UncategorizedCode,
		},
		{
			"GroupingSkipped",
			respondent(5, answer("age", 2), skipped("gender"), answer("satisfaction", 1)),
			UnresolvedProfile,
		},
		{
			"GroupingMissing",
			respondent(6, answer("gender", 2), answer("satisfaction", 1)),
			UnresolvedProfile,
		},
		{
			"GroupingUncategorized",
			respondent(7, answer("age", 99), answer("gender", 2), answer("satisfaction", 1)),
			UnresolvedProfile,
		},
		{
			"WeightSkipped",
			respondent(8, answer("age", 2), answer("gender", 2), answer("satisfaction", 1), skipped("weight")),
			InvalidWeight,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine := newFixtureEngine(t, true)
			result, err := engine.UpdateSplits([]*types.RespondentData{tt.respondent})
			require.NoError(t, err)

			assert.Equal(t, 0, result.ValidCount)
			assert.Equal(t, 1, result.InvalidCount)
			assert.Equal(t, map[string]int{tt.reason: 1}, result.InvalidReasons)
			assert.Empty(t, result.Diff)
			for _, split := range engine.Splits() {
				assert.Zero(t, split.TotalCount)
			}
		})
	}
}

func TestEngineUnansweredWeightDefaultsToOne(t *testing.T) {
	t.Parallel()

	engine := newFixtureEngine(t, true)
	result, err := engine.UpdateSplits([]*types.RespondentData{
		respondent(1, answer("age", 2), answer("gender", 2), answer("satisfaction", 1)),
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.ValidCount)
	assert.InDelta(t, 1.0, engine.Splits()[4].TotalWeight, epsilon)
}

func TestEngineReset(t *testing.T) {
	t.Parallel()

	engine := newFixtureEngine(t, true)
	_, err := engine.UpdateSplits([]*types.RespondentData{weightedRespondent(1, 1, 2.0)})
	require.NoError(t, err)

	engine.Reset()
	for _, split := range engine.Splits() {
		assert.Zero(t, split.TotalCount)
		assert.Zero(t, split.TotalWeight)
		for _, g := range split.Expanded {
			assert.Zero(t, g)
		}
	}
}

func TestEngineSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	engine := newFixtureEngine(t, true)
	_, err := engine.UpdateSplits([]*types.RespondentData{
		weightedRespondent(1, 1, 1.0),
		weightedRespondent(2, 2, 1.5),
		weightedRespondent(3, 3, 2.0),
	})
	require.NoError(t, err)

	encoded, err := json.Marshal(engine.Snapshot())
	require.NoError(t, err)

	var decoded []*BasisSplit
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, engine.Splits(), decoded)

	restored := newFixtureEngine(t, true)
	require.NoError(t, restored.RestoreSnapshot(decoded))
	assert.Equal(t, engine.Splits(), restored.Splits())
}

func TestEngineRestoreSnapshotShapeMismatch(t *testing.T) {
	t.Parallel()

	engine := newFixtureEngine(t, true)
	err := engine.RestoreSnapshot(engine.Snapshot()[:3])
	assert.ErrorIs(t, err, ErrSnapshotShape)
}

func TestEngineAggregateView(t *testing.T) {
	t.Parallel()

	engine := newFixtureEngine(t, true)
	_, err := engine.UpdateSplits([]*types.RespondentData{
		weightedRespondent(1, 1, 1.0),
		weightedRespondent(2, 2, 2.0),
		respondent(3, answer("age", 2), answer("gender", 1), answer("satisfaction", 1), answer("weight", 1.0)),
		respondent(4, answer("age", 1), answer("gender", 2), answer("satisfaction", 3), answer("weight", 0.5)),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"", "0", "0,1", "1"}, engine.Views())

	all, err := engine.AggregateView("")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 4, all[0].TotalCount)
	assert.InDelta(t, 4.5, all[0].TotalWeight, epsilon)
	assert.InDelta(t, 2.0/4.5, all[0].Expanded[0].Proportion, epsilon)

	// pin age: respondents 1-3 share age group 1, respondent 4 is in group 0
	byAge, err := engine.AggregateView("0")
	require.NoError(t, err)
	require.Len(t, byAge, 4)
	assert.Equal(t, 1, byAge[0].TotalCount)
	assert.Equal(t, 3, byAge[1].TotalCount)
	assert.InDelta(t, 4.0, byAge[1].TotalWeight, epsilon)

	_, err = engine.AggregateView("2,1")
	assert.Error(t, err)
}
