package stats

import (
	"strconv"
	"strings"

	"github.com/pulsepoll/backend/internal/model"
)

// PartialSplit aggregates basis splits over one or more fully aggregated
// dimensions. It carries no accumulators of its own: its statistics are
// computed on demand by summing the constituent basis splits.
type PartialSplit struct {
	// GroupIndexes has one entry per grouping question; -1 marks a dimension
	// aggregated over all of its groups.
	GroupIndexes      []int `json:"groupIndexes"`
	BasisSplitIndices []int `json:"basisSplitIndices"`
}

// ViewIndex maps a view id (comma-joined indices of the pinned grouping
// questions, "" when every dimension is aggregated) to the partial splits
// visible in that view, in row-major profile order.
type ViewIndex map[string][]PartialSplit

// ViewID renders the canonical id of a view from its pinned dimension indices.
func ViewID(activeDims []int) string {
	parts := make([]string, len(activeDims))
	for i, d := range activeDims {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

// BuildViewIndex constructs the full partial-split lattice from the known
// basis-split enumeration order. Basis indices are derived by stride
// arithmetic, varying one aggregated dimension at a time; no searching over
// the basis array takes place. The construction is deterministic for a fixed
// grouping configuration.
func BuildViewIndex(groupings []*model.Question) ViewIndex {
	k := len(groupings)
	sizes := make([]int, k)
	for i, q := range groupings {
		sizes[i] = len(q.Groups)
	}

	// stride of a dimension in the row-major basis enumeration; the last
	// dimension varies fastest.
	strides := make([]int, k)
	stride := 1
	for i := k - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= sizes[i]
	}

	index := make(ViewIndex, 1<<k)
	for mask := 0; mask < 1<<k; mask++ {
		var active, inactive []int
		for d := 0; d < k; d++ {
			if mask&(1<<d) != 0 {
				active = append(active, d)
			} else {
				inactive = append(inactive, d)
			}
		}
		index[ViewID(active)] = buildView(active, inactive, sizes, strides, k)
	}
	return index
}

func buildView(active, inactive, sizes, strides []int, k int) []PartialSplit {
	splits := []PartialSplit{}
	profile := make([]int, len(active))
	for {
		base := 0
		groupIndexes := make([]int, k)
		for i := range groupIndexes {
			groupIndexes[i] = -1
		}
		for i, d := range active {
			groupIndexes[d] = profile[i]
			base += profile[i] * strides[d]
		}

		splits = append(splits, PartialSplit{
			GroupIndexes:      groupIndexes,
			BasisSplitIndices: expandDims([]int{base}, inactive, sizes, strides),
		})

		// odometer over the pinned dimensions, last one fastest
		i := len(profile) - 1
		for ; i >= 0; i-- {
			profile[i]++
			if profile[i] < sizes[active[i]] {
				break
			}
			profile[i] = 0
		}
		if i < 0 {
			break
		}
	}
	return splits
}

// expandDims widens a set of basis offsets across one aggregated dimension at
// a time.
func expandDims(indices []int, dims, sizes, strides []int) []int {
	for _, d := range dims {
		widened := make([]int, 0, len(indices)*sizes[d])
		for _, base := range indices {
			for j := 0; j < sizes[d]; j++ {
				widened = append(widened, base+j*strides[d])
			}
		}
		indices = widened
	}
	return indices
}
