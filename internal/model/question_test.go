package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionCodeToGroup(t *testing.T) {
	t.Parallel()

	t.Run("Valid", func(t *testing.T) {
		t.Parallel()
		q := &Question{
			VarName: "region",
			Groups: []ResponseGroup{
				{Label: "north", Values: []int{1, 2}},
				{Label: "south", Values: []int{3}},
			},
		}
		m, err := q.CodeToGroup()
		require.NoError(t, err)
		assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 1}, m)
	})

	t.Run("EmptyGroup", func(t *testing.T) {
		t.Parallel()
		q := &Question{
			VarName: "region",
			Groups:  []ResponseGroup{{Label: "north"}},
		}
		_, err := q.CodeToGroup()
		assert.ErrorIs(t, err, ErrGroupEmpty)
	})

	t.Run("OverlappingGroups", func(t *testing.T) {
		t.Parallel()
		q := &Question{
			VarName: "region",
			Groups: []ResponseGroup{
				{Label: "north", Values: []int{1, 2}},
				{Label: "south", Values: []int{2, 3}},
			},
		}
		_, err := q.CodeToGroup()
		assert.ErrorIs(t, err, ErrGroupOverlap)
	})
}

func TestResponseQuestionValidatePartitions(t *testing.T) {
	t.Parallel()

	valid := func() *ResponseQuestion {
		return &ResponseQuestion{
			VarName: "satisfaction",
			Expanded: []ResponseGroup{
				{Label: "very satisfied", Values: []int{1}},
				{Label: "satisfied", Values: []int{2}},
				{Label: "dissatisfied", Values: []int{3}},
				{Label: "very dissatisfied", Values: []int{4}},
			},
			Collapsed: []ResponseGroup{
				{Label: "satisfied", Values: []int{1, 2}},
				{Label: "dissatisfied", Values: []int{3, 4}},
			},
		}
	}

	t.Run("Valid", func(t *testing.T) {
		t.Parallel()
		collapseMap, err := valid().ValidatePartitions()
		require.NoError(t, err)
		assert.Equal(t, []int{0, 0, 1, 1}, collapseMap)
	})

	t.Run("CoverageMismatch", func(t *testing.T) {
		t.Parallel()
		q := valid()
		q.Collapsed = []ResponseGroup{
			{Label: "satisfied", Values: []int{1, 2}},
			{Label: "dissatisfied", Values: []int{3, 5}},
		}
		_, err := q.ValidatePartitions()
		assert.ErrorIs(t, err, ErrPartitionMismatch)
	})

	t.Run("CoarseningViolated", func(t *testing.T) {
		t.Parallel()
		q := valid()
		q.Expanded = []ResponseGroup{
			{Label: "mixed", Values: []int{1, 3}},
			{Label: "satisfied", Values: []int{2}},
			{Label: "very dissatisfied", Values: []int{4}},
		}
		_, err := q.ValidatePartitions()
		assert.ErrorIs(t, err, ErrCoarseningViolated)
	})

	t.Run("OverlapWithinPartition", func(t *testing.T) {
		t.Parallel()
		q := valid()
		q.Expanded[1].Values = []int{1, 2}
		_, err := q.ValidatePartitions()
		assert.ErrorIs(t, err, ErrGroupOverlap)
	})
}
