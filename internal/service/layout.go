package service

import (
	"math"

	"github.com/pulsepoll/backend/internal/model/types"
	"github.com/pulsepoll/backend/internal/stats"
)

// LayoutPoint is one respondent dot on the visualization canvas, in canvas
// coordinates.
type LayoutPoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	GroupIndex int     `json:"groupIndex"`
}

// SplitLayout is the dot grid of one basis split: one point per counted
// respondent, filled row-major in expanded-group order.
type SplitLayout struct {
	SplitIndex int           `json:"splitIndex"`
	TotalCount int           `json:"totalCount"`
	Columns    int           `json:"columns"`
	Points     []LayoutPoint `json:"points"`
}

type Layout struct{}

func NewLayout() *Layout {
	return &Layout{}
}

func (s *Layout) columns(cfg *types.LayoutConfig) int {
	if cfg.Columns > 0 {
		return cfg.Columns
	}
	cell := cfg.PointRadius*2 + cfg.PointGap
	if cell <= 0 {
		return 1
	}
	columns := int(math.Floor(cfg.CanvasWidth / cell))
	if columns < 1 {
		return 1
	}
	return columns
}

// fit sizes one split's grid: the preferred cell is 2*radius+gap, shrunk (and,
// for derived column counts, widened) whenever the grid would overflow the
// canvas vertically, so every point stays inside CanvasWidth x CanvasHeight.
func (s *Layout) fit(cfg *types.LayoutConfig, count int) (float64, int) {
	cell := cfg.PointRadius*2 + cfg.PointGap
	columns := s.columns(cfg)
	if count == 0 || cell <= 0 || cfg.CanvasHeight <= 0 {
		return cell, columns
	}

	rows := (count + columns - 1) / columns
	if float64(rows)*cell <= cfg.CanvasHeight {
		return cell, columns
	}

	if cfg.Columns <= 0 && cfg.CanvasWidth > 0 {
		ideal := math.Sqrt(cfg.CanvasWidth * cfg.CanvasHeight / float64(count))
		if c := int(math.Floor(cfg.CanvasWidth / ideal)); c > columns {
			columns = c
		}
		rows = (count + columns - 1) / columns
	}

	fitted := cfg.CanvasHeight / float64(rows)
	if cfg.CanvasWidth > 0 {
		fitted = math.Min(fitted, cfg.CanvasWidth/float64(columns))
	}
	return math.Min(cell, fitted), columns
}

// Grid lays out every basis split's respondents as a dot grid, points centered
// in their cells. The layout is deterministic for a given split state so that
// clients can diff point lists between updates.
func (s *Layout) Grid(cfg *types.LayoutConfig, splits []*stats.BasisSplit) []SplitLayout {
	layouts := make([]SplitLayout, len(splits))
	for i, split := range splits {
		cell, columns := s.fit(cfg, split.TotalCount)
		layout := SplitLayout{
			SplitIndex: i,
			TotalCount: split.TotalCount,
			Columns:    columns,
			Points:     make([]LayoutPoint, 0, split.TotalCount),
		}
		position := 0
		for groupIndex, group := range split.Expanded {
			for n := 0; n < group.Count; n++ {
				row := position / columns
				col := position % columns
				layout.Points = append(layout.Points, LayoutPoint{
					X:          (float64(col) + 0.5) * cell,
					Y:          (float64(row) + 0.5) * cell,
					GroupIndex: groupIndex,
				})
				position++
			}
		}
		layouts[i] = layout
	}
	return layouts
}
