package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/pulsepoll/backend/internal/model"
	"github.com/pulsepoll/backend/internal/model/types"
)

type RespondentAnswer struct {
	db *bun.DB
}

func NewRespondentAnswer(db *bun.DB) *RespondentAnswer {
	return &RespondentAnswer{db: db}
}

// BatchSaveAnswers flattens a respondent batch into answer rows. Answers are
// persisted before the engine consumes the batch so that rehydration can
// replay the full history.
func (s *RespondentAnswer) BatchSaveAnswers(ctx context.Context, sessionID string, respondents []*types.RespondentData) error {
	now := time.Now()
	rows := make([]*model.RespondentAnswer, 0, len(respondents))
	for _, respondent := range respondents {
		for _, response := range respondent.Responses {
			rows = append(rows, &model.RespondentAnswer{
				SessionID:    sessionID,
				RespondentID: respondent.RespondentID,
				VarName:      response.VarName,
				BatteryName:  response.BatteryName,
				SubBattery:   response.SubBattery,
				Response:     response.Response,
				CreatedAt:    &now,
			})
		}
	}
	if len(rows) == 0 {
		return nil
	}
	_, err := s.db.NewInsert().Model(&rows).Exec(ctx)
	return err
}

// GetRespondentsBySessionID joins a session's answer rows back into
// RespondentData, in ascending respondent id order, paged for replay.
func (s *RespondentAnswer) GetRespondentsBySessionID(ctx context.Context, sessionID string, afterRespondentID int, limit int) ([]*types.RespondentData, error) {
	var rows []*model.RespondentAnswer
	q := s.db.NewSelect().Model(&rows).
		Where("session_id = ?", sessionID).
		Where("respondent_id > ?", afterRespondentID).
		Order("respondent_id ASC", "answer_id ASC")
	if limit > 0 {
		// limit bounds respondents, not rows; over-fetch by the row fan-out is
		// avoided with a subquery over distinct ids
		sub := s.db.NewSelect().
			Model((*model.RespondentAnswer)(nil)).
			ColumnExpr("DISTINCT respondent_id").
			Where("session_id = ?", sessionID).
			Where("respondent_id > ?", afterRespondentID).
			OrderExpr("respondent_id ASC").
			Limit(limit)
		q = q.Where("respondent_id IN (?)", sub)
	}
	err := q.Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var respondents []*types.RespondentData
	var current *types.RespondentData
	for _, row := range rows {
		if current == nil || current.RespondentID != row.RespondentID {
			current = &types.RespondentData{RespondentID: row.RespondentID}
			respondents = append(respondents, current)
		}
		current.Responses = append(current.Responses, types.RespondentResponse{
			VarName:     row.VarName,
			BatteryName: row.BatteryName,
			SubBattery:  row.SubBattery,
			Response:    row.Response,
		})
	}
	return respondents, nil
}
