package repo

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/pulsepoll/backend/internal/constant"
	"github.com/pulsepoll/backend/internal/model"
	"github.com/pulsepoll/backend/internal/repo/selector"
)

type Session struct {
	db *bun.DB

	sel selector.S[model.Session]
}

func NewSession(db *bun.DB) *Session {
	return &Session{
		db:  db,
		sel: selector.New[model.Session](db),
	}
}

func (s *Session) GetSessionByID(ctx context.Context, sessionID string) (*model.Session, error) {
	return s.sel.SelectOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("session_id = ?", sessionID)
	})
}

func (s *Session) GetOpenSessions(ctx context.Context) ([]*model.Session, error) {
	return s.sel.SelectMany(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("status = ?", constant.SessionStatusOpen).Order("created_at ASC")
	})
}

func (s *Session) CreateSession(ctx context.Context, session *model.Session) (*model.Session, error) {
	now := time.Now()
	session.CreatedAt = &now
	session.Status = constant.SessionStatusOpen
	_, err := s.db.NewInsert().
		Model(session).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return session, nil
}

func (s *Session) CloseSession(ctx context.Context, sessionID string) error {
	now := time.Now()
	_, err := s.db.NewUpdate().
		Model((*model.Session)(nil)).
		Set("status = ?", constant.SessionStatusClosed).
		Set("closed_at = ?", &now).
		Where("session_id = ?", sessionID).
		Exec(ctx)
	return err
}
