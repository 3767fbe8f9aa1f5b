package stats

import (
	"github.com/pulsepoll/backend/internal/model"
)

// GroupStats accumulates one response group's share of a split. Proportion is
// derived from weights on every update and never accumulated itself.
type GroupStats struct {
	Count      int     `json:"count"`
	Weight     float64 `json:"weight"`
	Proportion float64 `json:"proportion"`
}

// SplitGroup pins one grouping question to one of its response groups.
type SplitGroup struct {
	Question   model.QuestionKey `json:"question"`
	GroupIndex int               `json:"groupIndex"`
	Label      string            `json:"label"`
}

// BasisSplit is one fully specified cell of the cross-tabulation: exactly one
// response group selected per grouping question. Created zeroed at session
// initialization and mutated in place as respondent batches arrive.
type BasisSplit struct {
	Groups      []SplitGroup `json:"groups"`
	TotalCount  int          `json:"totalCount"`
	TotalWeight float64      `json:"totalWeight"`
	Expanded    []GroupStats `json:"expanded"`
	Collapsed   []GroupStats `json:"collapsed"`
}

func (s *BasisSplit) clone() *BasisSplit {
	c := &BasisSplit{
		Groups:      make([]SplitGroup, len(s.Groups)),
		TotalCount:  s.TotalCount,
		TotalWeight: s.TotalWeight,
		Expanded:    make([]GroupStats, len(s.Expanded)),
		Collapsed:   make([]GroupStats, len(s.Collapsed)),
	}
	copy(c.Groups, s.Groups)
	copy(c.Expanded, s.Expanded)
	copy(c.Collapsed, s.Collapsed)
	return c
}

func (s *BasisSplit) zero() {
	s.TotalCount = 0
	s.TotalWeight = 0
	for i := range s.Expanded {
		s.Expanded[i] = GroupStats{}
	}
	for i := range s.Collapsed {
		s.Collapsed[i] = GroupStats{}
	}
}

// recomputeProportions rederives every group's proportion from the current
// weights. Proportions are 0 when the split holds no weight.
func (s *BasisSplit) recomputeProportions() {
	for i := range s.Expanded {
		s.Expanded[i].Proportion = proportion(s.Expanded[i].Weight, s.TotalWeight)
	}
	for i := range s.Collapsed {
		s.Collapsed[i].Proportion = proportion(s.Collapsed[i].Weight, s.TotalWeight)
	}
}

func proportion(weight, totalWeight float64) float64 {
	if totalWeight == 0 {
		return 0
	}
	return weight / totalWeight
}
