package service

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/pulsepoll/backend/internal/model"
	"github.com/pulsepoll/backend/internal/model/cache"
	"github.com/pulsepoll/backend/internal/repo"
	"github.com/pulsepoll/backend/internal/stats"
)

// SnapshotContent is the JSON blob persisted for one statistics snapshot: the
// full basis-split array at a point in time.
type SnapshotContent struct {
	Splits []*stats.BasisSplit `json:"splits"`
}

type Snapshot struct {
	SessionStatisticsRepo *repo.SessionStatistics
}

func NewSnapshot(sessionStatisticsRepo *repo.SessionStatistics) *Snapshot {
	return &Snapshot{
		SessionStatisticsRepo: sessionStatisticsRepo,
	}
}

func (s *Snapshot) Persist(ctx context.Context, sessionID string, splits []*stats.BasisSplit, validCount, invalidCount int) (*model.SessionStatistics, error) {
	content, err := json.Marshal(SnapshotContent{Splits: splits})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal snapshot content")
	}
	now := time.Now()
	statistics, err := s.SessionStatisticsRepo.SaveStatistics(ctx, &model.SessionStatistics{
		SessionID:    sessionID,
		Content:      string(content),
		ValidCount:   validCount,
		InvalidCount: invalidCount,
		CreatedAt:    &now,
	})
	if err != nil {
		return nil, err
	}
	if err := cache.LatestStatisticsByID.Delete(sessionID); err != nil {
		return nil, err
	}
	return statistics, nil
}

func (s *Snapshot) Latest(ctx context.Context, sessionID string) (*model.SessionStatistics, error) {
	var statistics model.SessionStatistics
	_, err := cache.LatestStatisticsByID.MutexGetSet(sessionID, &statistics, func() (model.SessionStatistics, error) {
		latest, err := s.SessionStatisticsRepo.GetLatestBySessionID(ctx, sessionID)
		if err != nil {
			return model.SessionStatistics{}, err
		}
		return *latest, nil
	}, time.Minute)
	if err != nil {
		return nil, err
	}
	return &statistics, nil
}

// Decode parses a persisted snapshot blob back into basis splits.
func (s *Snapshot) Decode(content string) ([]*stats.BasisSplit, error) {
	var decoded SnapshotContent
	if err := json.Unmarshal([]byte(content), &decoded); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal snapshot content")
	}
	return decoded.Splits, nil
}
