package stats

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/pulsepoll/backend/internal/model"
)

var ErrDuplicateProfile = errors.New("stats: two basis splits share a profile")

// LookupMaps make respondent classification constant-time: answer code to
// expanded group index, and colon-joined profile to basis split index. Built
// once per session and read-only afterward.
type LookupMaps struct {
	ResponseCodeToGroup map[int]int    `json:"responseCodeToGroup"`
	ProfileToSplitIndex map[string]int `json:"profileToSplitIndex"`
}

// ProfileKey joins per-dimension group indexes with ":", rendering a skipped
// grouping question as the literal "null".
func ProfileKey(groupIndexes []int) string {
	parts := make([]string, len(groupIndexes))
	for i, g := range groupIndexes {
		if g < 0 {
			parts[i] = "null"
		} else {
			parts[i] = strconv.Itoa(g)
		}
	}
	return strings.Join(parts, ":")
}

// BuildLookupMaps derives the classification maps from the response question
// and the generated basis splits. Answer codes outside every expanded group
// are left absent and classify as uncategorized.
func BuildLookupMaps(resp *model.ResponseQuestion, splits []*BasisSplit) (*LookupMaps, error) {
	codeToGroup := make(map[int]int)
	for i, g := range resp.Expanded {
		for _, v := range g.Values {
			codeToGroup[v] = i
		}
	}

	profileToSplit := make(map[string]int, len(splits))
	for i, split := range splits {
		indexes := make([]int, len(split.Groups))
		for d, g := range split.Groups {
			indexes[d] = g.GroupIndex
		}
		key := ProfileKey(indexes)
		if _, ok := profileToSplit[key]; ok {
			return nil, errors.Wrapf(ErrDuplicateProfile, "profile %q", key)
		}
		profileToSplit[key] = i
	}

	return &LookupMaps{
		ResponseCodeToGroup: codeToGroup,
		ProfileToSplitIndex: profileToSplit,
	}, nil
}
