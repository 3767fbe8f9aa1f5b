package stats

import (
	"github.com/pkg/errors"

	"github.com/pulsepoll/backend/internal/model"
)

var (
	ErrNoResponseGroups    = errors.New("stats: grouping question has no response groups")
	ErrTooManyCombinations = errors.New("stats: grouping questions produce too many basis splits")
	ErrTooManyDimensions   = errors.New("stats: too many grouping questions")
)

// MaxGroupingDimensions caps the number of grouping questions per session;
// the view lattice enumerates every dimension subset.
const MaxGroupingDimensions = 12

// GenerateBasisSplits enumerates the Cartesian product of each grouping
// question's response groups. The result order is row-major with the first
// grouping question varying slowest; downstream profile keys and view indices
// depend on this enumeration staying stable. Zero grouping questions produce
// a single split over the undivided population.
func GenerateBasisSplits(resp *model.ResponseQuestion, groupings []*model.Question, maxCombinations int) ([]*BasisSplit, error) {
	if _, err := resp.ValidatePartitions(); err != nil {
		return nil, err
	}
	if len(groupings) > MaxGroupingDimensions {
		return nil, errors.Wrapf(ErrTooManyDimensions, "%d grouping questions, max %d", len(groupings), MaxGroupingDimensions)
	}

	total := 1
	for _, q := range groupings {
		if len(q.Groups) == 0 {
			return nil, errors.Wrapf(ErrNoResponseGroups, "question %s", q.VarName)
		}
		total *= len(q.Groups)
		if maxCombinations > 0 && total > maxCombinations {
			return nil, errors.Wrapf(ErrTooManyCombinations, "product exceeds ceiling %d", maxCombinations)
		}
	}

	splits := make([]*BasisSplit, 0, total)
	indexes := make([]int, len(groupings))
	for {
		splits = append(splits, newBasisSplit(resp, groupings, indexes))

		// odometer over group indexes, last dimension fastest
		i := len(indexes) - 1
		for ; i >= 0; i-- {
			indexes[i]++
			if indexes[i] < len(groupings[i].Groups) {
				break
			}
			indexes[i] = 0
		}
		if i < 0 {
			break
		}
	}

	return splits, nil
}

func newBasisSplit(resp *model.ResponseQuestion, groupings []*model.Question, indexes []int) *BasisSplit {
	groups := make([]SplitGroup, len(groupings))
	for i, q := range groupings {
		groups[i] = SplitGroup{
			Question:   q.Key(),
			GroupIndex: indexes[i],
			Label:      q.Groups[indexes[i]].Label,
		}
	}
	return &BasisSplit{
		Groups:    groups,
		Expanded:  make([]GroupStats, len(resp.Expanded)),
		Collapsed: make([]GroupStats, len(resp.Collapsed)),
	}
}
