package model

import (
	"github.com/pkg/errors"
)

var (
	ErrGroupEmpty         = errors.New("question: response group has no values")
	ErrGroupOverlap       = errors.New("question: answer code appears in more than one response group")
	ErrPartitionMismatch  = errors.New("question: expanded and collapsed partitions cover different answer codes")
	ErrCoarseningViolated = errors.New("question: expanded group spans more than one collapsed group")
)

// QuestionKey is the composite natural key of a question. SubBattery is the
// empty string for questions outside a sub-battery; keys are never null-padded.
type QuestionKey struct {
	VarName     string `json:"varName"`
	BatteryName string `json:"batteryName"`
	SubBattery  string `json:"subBattery"`
}

// ResponseGroup labels a set of answer codes belonging together.
type ResponseGroup struct {
	Label  string `json:"label"`
	Values []int  `json:"values"`
}

// Question is a grouping question: a single partition of its answer codes into
// response groups. Immutable once its session is created.
type Question struct {
	VarName     string `json:"varName"`
	BatteryName string `json:"batteryName"`
	SubBattery  string `json:"subBattery"`

	Groups []ResponseGroup `json:"groups"`
}

func (q *Question) Key() QuestionKey {
	return QuestionKey{VarName: q.VarName, BatteryName: q.BatteryName, SubBattery: q.SubBattery}
}

// CodeToGroup builds the answer-code to group-index map for the question's
// partition. Codes claimed by two groups are a configuration error.
func (q *Question) CodeToGroup() (map[int]int, error) {
	m := make(map[int]int)
	for i, g := range q.Groups {
		if len(g.Values) == 0 {
			return nil, errors.Wrapf(ErrGroupEmpty, "question %s group %q", q.VarName, g.Label)
		}
		for _, v := range g.Values {
			if _, ok := m[v]; ok {
				return nil, errors.Wrapf(ErrGroupOverlap, "question %s code %d", q.VarName, v)
			}
			m[v] = i
		}
	}
	return m, nil
}

// ResponseQuestion carries the two covering partitions of the response
// question's answer codes: the fine (expanded) and coarse (collapsed) one.
type ResponseQuestion struct {
	VarName     string `json:"varName"`
	BatteryName string `json:"batteryName"`
	SubBattery  string `json:"subBattery"`

	Expanded  []ResponseGroup `json:"expanded"`
	Collapsed []ResponseGroup `json:"collapsed"`
}

func (q *ResponseQuestion) Key() QuestionKey {
	return QuestionKey{VarName: q.VarName, BatteryName: q.BatteryName, SubBattery: q.SubBattery}
}

// ValidatePartitions checks the partition invariants: within each of
// expanded/collapsed no code appears twice, both partitions cover the same
// universe of codes, and every expanded group's values sit inside exactly one
// collapsed group. It returns the expanded-to-collapsed group index map.
func (q *ResponseQuestion) ValidatePartitions() ([]int, error) {
	expanded, err := codesOf(q.VarName, q.Expanded)
	if err != nil {
		return nil, err
	}
	collapsed, err := codesOf(q.VarName, q.Collapsed)
	if err != nil {
		return nil, err
	}

	if len(expanded) != len(collapsed) {
		return nil, errors.Wrapf(ErrPartitionMismatch, "question %s", q.VarName)
	}
	for code := range expanded {
		if _, ok := collapsed[code]; !ok {
			return nil, errors.Wrapf(ErrPartitionMismatch, "question %s code %d", q.VarName, code)
		}
	}

	collapseMap := make([]int, len(q.Expanded))
	for i, g := range q.Expanded {
		owner := -1
		for _, v := range g.Values {
			c := collapsed[v]
			if owner == -1 {
				owner = c
			} else if owner != c {
				return nil, errors.Wrapf(ErrCoarseningViolated, "question %s expanded group %q", q.VarName, g.Label)
			}
		}
		collapseMap[i] = owner
	}
	return collapseMap, nil
}

func codesOf(varName string, groups []ResponseGroup) (map[int]int, error) {
	m := make(map[int]int)
	for i, g := range groups {
		if len(g.Values) == 0 {
			return nil, errors.Wrapf(ErrGroupEmpty, "question %s group %q", varName, g.Label)
		}
		for _, v := range g.Values {
			if _, ok := m[v]; ok {
				return nil, errors.Wrapf(ErrGroupOverlap, "question %s code %d", varName, v)
			}
			m[v] = i
		}
	}
	return m, nil
}
