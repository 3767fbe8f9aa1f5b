package repo

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/pulsepoll/backend/internal/model"
	"github.com/pulsepoll/backend/internal/repo/selector"
)

type SessionStatistics struct {
	db *bun.DB

	sel selector.S[model.SessionStatistics]
}

func NewSessionStatistics(db *bun.DB) *SessionStatistics {
	return &SessionStatistics{
		db:  db,
		sel: selector.New[model.SessionStatistics](db),
	}
}

func (s *SessionStatistics) GetLatestBySessionID(ctx context.Context, sessionID string) (*model.SessionStatistics, error) {
	return s.sel.SelectOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("session_id = ?", sessionID).OrderExpr("statistics_id DESC").Limit(1)
	})
}

func (s *SessionStatistics) SaveStatistics(ctx context.Context, statistics *model.SessionStatistics) (*model.SessionStatistics, error) {
	_, err := s.db.NewInsert().
		Model(statistics).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return statistics, nil
}
