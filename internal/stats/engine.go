package stats

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/pulsepoll/backend/internal/model"
	"github.com/pulsepoll/backend/internal/model/types"
)

var (
	ErrProfileUnresolvable = errors.New("stats: basis split profile does not resolve")
	ErrSnapshotShape       = errors.New("stats: snapshot does not match engine configuration")
)

// Invalid-respondent reasons reported in UpdateResult.InvalidReasons.
const (
	InvalidWeight     = "invalid_weight"
	MissingResponse   = "missing_response"
	UncategorizedCode = "uncategorized_response"
	UnresolvedProfile = "unresolved_profile"
)

type Config struct {
	ResponseQuestion  *model.ResponseQuestion
	GroupingQuestions []*model.Question

	// WeightQuestion optionally designates a question whose numeric answer
	// scales a respondent's contribution to totals.
	WeightQuestion *model.QuestionKey

	// MaxCombinations caps the basis-split Cartesian product; zero disables
	// the ceiling.
	MaxCombinations int
}

// Engine owns the mutable basis-split array of one session and applies
// respondent batches to it incrementally, without re-scanning respondent
// history. It is not safe for concurrent use: callers serialize updates per
// session.
type Engine struct {
	resp      *model.ResponseQuestion
	groupings []*model.Question
	weightKey *model.QuestionKey

	splits []*BasisSplit
	views  ViewIndex
	lookup *LookupMaps

	groupingCodeToGroup []map[int]int
	expandedToCollapsed []int
}

// NewEngine validates the configuration and precomputes every lookup
// structure. Any validation failure here is a configuration error: the
// session must not accept traffic.
func NewEngine(cfg Config) (*Engine, error) {
	splits, err := GenerateBasisSplits(cfg.ResponseQuestion, cfg.GroupingQuestions, cfg.MaxCombinations)
	if err != nil {
		return nil, err
	}

	collapseMap, err := cfg.ResponseQuestion.ValidatePartitions()
	if err != nil {
		return nil, err
	}

	lookup, err := BuildLookupMaps(cfg.ResponseQuestion, splits)
	if err != nil {
		return nil, err
	}

	groupingLookups := make([]map[int]int, len(cfg.GroupingQuestions))
	for i, q := range cfg.GroupingQuestions {
		m, err := q.CodeToGroup()
		if err != nil {
			return nil, err
		}
		groupingLookups[i] = m
	}

	// every generated basis split must resolve through its own profile
	for i, split := range splits {
		indexes := make([]int, len(split.Groups))
		for d, g := range split.Groups {
			indexes[d] = g.GroupIndex
		}
		got, ok := lookup.ProfileToSplitIndex[ProfileKey(indexes)]
		if !ok || got != i {
			return nil, errors.Wrapf(ErrProfileUnresolvable, "split %d", i)
		}
	}

	return &Engine{
		resp:                cfg.ResponseQuestion,
		groupings:           cfg.GroupingQuestions,
		weightKey:           cfg.WeightQuestion,
		splits:              splits,
		views:               BuildViewIndex(cfg.GroupingQuestions),
		lookup:              lookup,
		groupingCodeToGroup: groupingLookups,
		expandedToCollapsed: collapseMap,
	}, nil
}

// classification is the side-effect-free result of mapping one respondent
// onto (basis split, expanded group, weight).
type classification struct {
	splitIndex int
	groupIndex int
	weight     float64
}

// classify walks a respondent's answers once and resolves them against the
// precomputed lookup maps. The returned reason is empty for a valid
// respondent.
func (e *Engine) classify(r *types.RespondentData) (classification, string) {
	byKey := make(map[model.QuestionKey]*types.RespondentResponse, len(r.Responses))
	for i := range r.Responses {
		resp := &r.Responses[i]
		key := model.QuestionKey{
			VarName:     resp.VarName,
			BatteryName: resp.BatteryName,
			SubBattery:  resp.SubBattery,
		}
		if _, ok := byKey[key]; !ok {
			byKey[key] = resp
		}
	}

	weight := 1.0
	if e.weightKey != nil {
		if ans, ok := byKey[*e.weightKey]; ok {
			if !ans.Response.Valid || math.IsNaN(ans.Response.Float64) || math.IsInf(ans.Response.Float64, 0) {
				return classification{}, InvalidWeight
			}
			weight = ans.Response.Float64
		}
	}

	ans, ok := byKey[e.resp.Key()]
	if !ok || !ans.Response.Valid {
		return classification{}, MissingResponse
	}
	code, ok := integralCode(ans.Response.Float64)
	if !ok {
		return classification{}, MissingResponse
	}
	groupIndex, ok := e.lookup.ResponseCodeToGroup[code]
	if !ok {
		return classification{}, UncategorizedCode
	}

	profile := make([]int, len(e.groupings))
	for i, q := range e.groupings {
		profile[i] = -1
		ans, ok := byKey[q.Key()]
		if !ok || !ans.Response.Valid {
			continue
		}
		code, ok := integralCode(ans.Response.Float64)
		if !ok {
			continue
		}
		if g, ok := e.groupingCodeToGroup[i][code]; ok {
			profile[i] = g
		}
	}

	// a profile containing "null" matches more than one basis split; such
	// respondents are rejected conservatively rather than aggregated into a
	// partial split
	splitIndex, ok := e.lookup.ProfileToSplitIndex[ProfileKey(profile)]
	if !ok {
		return classification{}, UnresolvedProfile
	}

	return classification{
		splitIndex: splitIndex,
		groupIndex: groupIndex,
		weight:     weight,
	}, ""
}

func integralCode(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// GroupDelta is the before/after difference of one response group's
// statistics on a touched split.
type GroupDelta struct {
	Count      int     `json:"count"`
	Weight     float64 `json:"weight"`
	Proportion float64 `json:"proportion"`
}

// SplitDiff describes how one basis split moved during an update. Deltas
// cover every group of the split: groups that received no new respondents
// still shift in proportion whenever the split's total weight changed.
type SplitDiff struct {
	SplitIndex  int          `json:"splitIndex"`
	TotalCount  int          `json:"totalCount"`
	TotalWeight float64      `json:"totalWeight"`
	Expanded    []GroupDelta `json:"expanded"`
	Collapsed   []GroupDelta `json:"collapsed"`
}

type UpdateResult struct {
	TotalProcessed int            `json:"totalProcessed"`
	ValidCount     int            `json:"validCount"`
	InvalidCount   int            `json:"invalidCount"`
	InvalidReasons map[string]int `json:"invalidReasons,omitempty"`
	Diff           []SplitDiff    `json:"diff"`
}

// UpdateSplits classifies each respondent in the batch, accumulates the valid
// ones into their basis splits and recomputes proportions on every touched
// split. A respondent is either fully accumulated (count, weight, both
// partitions) or not at all. Invalid respondents are counted, never fatal.
// The engine performs no deduplication: at-most-once application per
// respondent id is the caller's responsibility.
func (e *Engine) UpdateSplits(batch []*types.RespondentData) (*UpdateResult, error) {
	result := &UpdateResult{
		TotalProcessed: len(batch),
	}

	before := make(map[int]*BasisSplit)
	for _, respondent := range batch {
		c, reason := e.classify(respondent)
		if reason != "" {
			result.InvalidCount++
			if result.InvalidReasons == nil {
				result.InvalidReasons = make(map[string]int)
			}
			result.InvalidReasons[reason]++
			continue
		}
		result.ValidCount++

		split := e.splits[c.splitIndex]
		if _, ok := before[c.splitIndex]; !ok {
			before[c.splitIndex] = split.clone()
		}

		split.TotalCount++
		split.TotalWeight += c.weight
		split.Expanded[c.groupIndex].Count++
		split.Expanded[c.groupIndex].Weight += c.weight
		collapsed := e.expandedToCollapsed[c.groupIndex]
		split.Collapsed[collapsed].Count++
		split.Collapsed[collapsed].Weight += c.weight
	}

	touched := make([]int, 0, len(before))
	for i := range before {
		touched = append(touched, i)
	}
	sort.Ints(touched)

	result.Diff = make([]SplitDiff, 0, len(touched))
	for _, i := range touched {
		split := e.splits[i]
		split.recomputeProportions()
		result.Diff = append(result.Diff, diffSplits(i, before[i], split))
	}

	return result, nil
}

func diffSplits(index int, old, cur *BasisSplit) SplitDiff {
	diff := SplitDiff{
		SplitIndex:  index,
		TotalCount:  cur.TotalCount - old.TotalCount,
		TotalWeight: cur.TotalWeight - old.TotalWeight,
		Expanded:    make([]GroupDelta, len(cur.Expanded)),
		Collapsed:   make([]GroupDelta, len(cur.Collapsed)),
	}
	for g := range cur.Expanded {
		diff.Expanded[g] = GroupDelta{
			Count:      cur.Expanded[g].Count - old.Expanded[g].Count,
			Weight:     cur.Expanded[g].Weight - old.Expanded[g].Weight,
			Proportion: cur.Expanded[g].Proportion - old.Expanded[g].Proportion,
		}
	}
	for g := range cur.Collapsed {
		diff.Collapsed[g] = GroupDelta{
			Count:      cur.Collapsed[g].Count - old.Collapsed[g].Count,
			Weight:     cur.Collapsed[g].Weight - old.Collapsed[g].Weight,
			Proportion: cur.Collapsed[g].Proportion - old.Collapsed[g].Proportion,
		}
	}
	return diff
}

// Reset rezeros every basis split. Used before replaying respondent history
// during session rehydration.
func (e *Engine) Reset() {
	for _, split := range e.splits {
		split.zero()
	}
}

// Splits returns the live basis-split array. Callers must not mutate it.
func (e *Engine) Splits() []*BasisSplit {
	return e.splits
}

// Snapshot deep-copies the current basis-split array.
func (e *Engine) Snapshot() []*BasisSplit {
	snapshot := make([]*BasisSplit, len(e.splits))
	for i, split := range e.splits {
		snapshot[i] = split.clone()
	}
	return snapshot
}

// RestoreSnapshot replaces the engine state with a previously captured
// snapshot of the same configuration.
func (e *Engine) RestoreSnapshot(splits []*BasisSplit) error {
	if len(splits) != len(e.splits) {
		return errors.Wrapf(ErrSnapshotShape, "have %d splits, want %d", len(splits), len(e.splits))
	}
	for i, split := range splits {
		if len(split.Expanded) != len(e.resp.Expanded) || len(split.Collapsed) != len(e.resp.Collapsed) {
			return errors.Wrapf(ErrSnapshotShape, "split %d group shape mismatch", i)
		}
	}
	for i, split := range splits {
		e.splits[i] = split.clone()
	}
	return nil
}

// Lookup exposes the read-only classification maps.
func (e *Engine) Lookup() *LookupMaps {
	return e.lookup
}

// Views lists every view id of the partial-split lattice.
func (e *Engine) Views() []string {
	ids := make([]string, 0, len(e.views))
	for id := range e.views {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AggregatedSplit is a partial split's on-demand statistics, summed from its
// constituent basis splits.
type AggregatedSplit struct {
	GroupIndexes []int        `json:"groupIndexes"`
	TotalCount   int          `json:"totalCount"`
	TotalWeight  float64      `json:"totalWeight"`
	Expanded     []GroupStats `json:"expanded"`
	Collapsed    []GroupStats `json:"collapsed"`
}

// AggregateView computes the partial splits of one view by summing basis
// splits; the engine's durable mutable state stays at basis-split
// granularity.
func (e *Engine) AggregateView(viewID string) ([]*AggregatedSplit, error) {
	partials, ok := e.views[viewID]
	if !ok {
		return nil, errors.Errorf("stats: unknown view %q", viewID)
	}

	aggregated := make([]*AggregatedSplit, len(partials))
	for i, partial := range partials {
		agg := &AggregatedSplit{
			GroupIndexes: partial.GroupIndexes,
			Expanded:     make([]GroupStats, len(e.resp.Expanded)),
			Collapsed:    make([]GroupStats, len(e.resp.Collapsed)),
		}
		for _, b := range partial.BasisSplitIndices {
			split := e.splits[b]
			agg.TotalCount += split.TotalCount
			agg.TotalWeight += split.TotalWeight
			for g := range split.Expanded {
				agg.Expanded[g].Count += split.Expanded[g].Count
				agg.Expanded[g].Weight += split.Expanded[g].Weight
			}
			for g := range split.Collapsed {
				agg.Collapsed[g].Count += split.Collapsed[g].Count
				agg.Collapsed[g].Weight += split.Collapsed[g].Weight
			}
		}
		for g := range agg.Expanded {
			agg.Expanded[g].Proportion = proportion(agg.Expanded[g].Weight, agg.TotalWeight)
		}
		for g := range agg.Collapsed {
			agg.Collapsed[g].Proportion = proportion(agg.Collapsed[g].Weight, agg.TotalWeight)
		}
		aggregated[i] = agg
	}
	return aggregated, nil
}
