package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	linq "github.com/ahmetb/go-linq/v3"
	"github.com/go-redsync/redsync/v4"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/pulsepoll/backend/internal/app/appconfig"
	"github.com/pulsepoll/backend/internal/constant"
	"github.com/pulsepoll/backend/internal/model"
	modelcache "github.com/pulsepoll/backend/internal/model/cache"
	"github.com/pulsepoll/backend/internal/model/types"
	"github.com/pulsepoll/backend/internal/pkg/observability"
	"github.com/pulsepoll/backend/internal/pkg/pperr"
	"github.com/pulsepoll/backend/internal/repo"
	"github.com/pulsepoll/backend/internal/stats"
)

// sessionEntry is the in-memory state of one loaded session. entry.mu
// serializes every engine mutation: batches for the same session apply
// strictly one at a time.
type sessionEntry struct {
	mu sync.Mutex

	engine *stats.Engine
	config *types.SessionConfig

	validCount   int
	invalidCount int
}

// SessionManager owns the registry of loaded session engines and every
// lifecycle transition. Respondent-id deduplication lives here, backed by a
// redis set per session; the engine itself applies whatever it is given.
type SessionManager struct {
	SessionRepo     *repo.Session
	AnswerRepo      *repo.RespondentAnswer
	SnapshotService *Snapshot
	LiveService     *Live
	Redis           *redis.Client
	RedSync         *redsync.Redsync
	Config          *appconfig.Config

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

func NewSessionManager(
	sessionRepo *repo.Session,
	answerRepo *repo.RespondentAnswer,
	snapshotService *Snapshot,
	liveService *Live,
	client *redis.Client,
	redSync *redsync.Redsync,
	conf *appconfig.Config,
) *SessionManager {
	return &SessionManager{
		SessionRepo:     sessionRepo,
		AnswerRepo:      answerRepo,
		SnapshotService: snapshotService,
		LiveService:     liveService,
		Redis:           client,
		RedSync:         redSync,
		Config:          conf,
		sessions:        map[string]*sessionEntry{},
	}
}

func (s *SessionManager) buildEngine(config *types.SessionConfig) (*stats.Engine, error) {
	cfg := stats.Config{
		ResponseQuestion:  config.ResponseQuestion.ToModel(),
		GroupingQuestions: config.GroupingQuestionsToModel(),
		MaxCombinations:   s.Config.MaxBasisSplits,
	}
	if config.WeightQuestion != nil {
		cfg.WeightQuestion = config.WeightQuestion.ToModel()
	}
	return stats.NewEngine(cfg)
}

// CreateSession validates the session configuration by constructing its
// engine, persists the session and registers the fresh engine so the first
// batch needs no rehydration.
func (s *SessionManager) CreateSession(ctx context.Context, req *types.CreateSessionRequest) (*model.Session, error) {
	engine, err := s.buildEngine(&req.Config)
	if err != nil {
		return nil, pperr.ErrInvalidConfig.Msg("invalid session config: %s", err)
	}

	raw, err := json.Marshal(req.Config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal session config")
	}

	session, err := s.SessionRepo.CreateSession(ctx, &model.Session{
		SessionID: xid.New().String(),
		Title:     req.Title,
		Config:    raw,
	})
	if err != nil {
		return nil, err
	}

	config := req.Config
	s.mu.Lock()
	s.sessions[session.SessionID] = &sessionEntry{
		engine: engine,
		config: &config,
	}
	s.mu.Unlock()

	if err := modelcache.OpenSessionIDs.Delete(); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate open session ids cache")
	}

	return session, nil
}

func (s *SessionManager) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	var session model.Session
	_, err := modelcache.SessionByID.MutexGetSet(sessionID, &session, func() (model.Session, error) {
		found, err := s.SessionRepo.GetSessionByID(ctx, sessionID)
		if err != nil {
			return model.Session{}, err
		}
		return *found, nil
	}, time.Minute)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// SessionConfig parses the persisted configuration blob of a session.
func (s *SessionManager) SessionConfig(ctx context.Context, sessionID string) (*types.SessionConfig, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var config types.SessionConfig
	if err := json.Unmarshal(session.Config, &config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal session config")
	}
	return &config, nil
}

// Load returns the loaded entry of an open session, rehydrating it from the
// persisted respondent history if it is not resident yet.
func (s *SessionManager) Load(ctx context.Context, sessionID string) (*sessionEntry, error) {
	s.mu.Lock()
	if entry, ok := s.sessions[sessionID]; ok {
		s.mu.Unlock()
		return entry, nil
	}
	s.mu.Unlock()

	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != constant.SessionStatusOpen {
		return nil, pperr.ErrSessionClosed
	}

	var config types.SessionConfig
	if err := json.Unmarshal(session.Config, &config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal session config")
	}
	engine, err := s.buildEngine(&config)
	if err != nil {
		return nil, pperr.ErrInvalidConfig.Msg("invalid session config: %s", err)
	}

	entry := &sessionEntry{
		engine: engine,
		config: &config,
	}
	entry.mu.Lock()

	s.mu.Lock()
	if existing, ok := s.sessions[sessionID]; ok {
		// lost the race; the winner rehydrates
		s.mu.Unlock()
		entry.mu.Unlock()
		return existing, nil
	}
	s.sessions[sessionID] = entry
	s.mu.Unlock()

	err = s.rehydrate(ctx, sessionID, entry)
	entry.mu.Unlock()
	if err != nil {
		s.Unload(sessionID)
		return nil, err
	}
	return entry, nil
}

// rehydrate rebuilds engine state and the processed-respondents set by
// replaying the full persisted answer history in pages. Caller holds entry.mu.
func (s *SessionManager) rehydrate(ctx context.Context, sessionID string, entry *sessionEntry) error {
	mutex := s.RedSync.NewMutex(constant.RedisKeyRehydrateLock+sessionID, redsync.WithExpiry(time.Minute))
	if err := mutex.LockContext(ctx); err != nil {
		return errors.Wrap(err, "failed to acquire rehydration lock")
	}
	defer func() {
		if _, err := mutex.Unlock(); err != nil {
			log.Warn().Err(err).Str("sessionId", sessionID).Msg("failed to release rehydration lock")
		}
	}()

	start := time.Now()
	entry.engine.Reset()
	entry.validCount = 0
	entry.invalidCount = 0

	processedKey := constant.RedisKeyProcessedRespondents + sessionID
	if err := s.Redis.Del(ctx, processedKey).Err(); err != nil {
		return errors.Wrap(err, "failed to reset processed respondents set")
	}

	after := 0
	replayed := 0
	for {
		page, err := s.AnswerRepo.GetRespondentsBySessionID(ctx, sessionID, after, s.Config.RehydrateBatchSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			break
		}

		result, err := entry.engine.UpdateSplits(page)
		if err != nil {
			return err
		}
		entry.validCount += result.ValidCount
		entry.invalidCount += result.InvalidCount
		replayed += len(page)

		members := lo.Map(page, func(r *types.RespondentData, _ int) any {
			return strconv.Itoa(r.RespondentID)
		})
		if err := s.Redis.SAdd(ctx, processedKey, members...).Err(); err != nil {
			return errors.Wrap(err, "failed to record processed respondents")
		}

		after = page[len(page)-1].RespondentID
		if len(page) < s.Config.RehydrateBatchSize {
			break
		}
	}

	elapsed := time.Since(start)
	observability.SessionRehydrateDuration.WithLabelValues(sessionID).Set(elapsed.Seconds())
	log.Info().
		Str("sessionId", sessionID).
		Int("respondents", replayed).
		Dur("elapsed", elapsed).
		Msg("session rehydrated")
	return nil
}

// ProcessBatch applies a respondent batch to a session's engine. Respondent
// ids already recorded for the session are dropped before the engine sees the
// batch, so redelivered messages never double-count. The resulting diff is
// broadcast to live subscribers.
func (s *SessionManager) ProcessBatch(ctx context.Context, sessionID string, respondents []*types.RespondentData) (*stats.UpdateResult, error) {
	entry, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	processedKey := constant.RedisKeyProcessedRespondents + sessionID
	ids := lo.Map(respondents, func(r *types.RespondentData, _ int) string {
		return strconv.Itoa(r.RespondentID)
	})
	seen, err := s.Redis.SMIsMember(ctx, processedKey, lo.ToAnySlice(ids)...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to check processed respondents")
	}

	fresh := make([]*types.RespondentData, 0, len(respondents))
	freshIDs := make([]any, 0, len(respondents))
	for i, respondent := range respondents {
		if seen[i] {
			continue
		}
		fresh = append(fresh, respondent)
		freshIDs = append(freshIDs, ids[i])
	}
	if duplicates := len(respondents) - len(fresh); duplicates > 0 {
		observability.RespondentsProcessed.WithLabelValues("duplicate").Add(float64(duplicates))
	}
	if len(fresh) == 0 {
		return &stats.UpdateResult{TotalProcessed: len(respondents)}, nil
	}

	// ids are recorded before the engine mutates: if recording fails, the
	// redelivered batch is retried against an untouched engine. Recording
	// after applying would double-count the batch whenever the record step
	// failed post-mutation. A crash in-between under-counts at most one
	// batch, which rehydration from Postgres recovers.
	if err := s.Redis.SAdd(ctx, processedKey, freshIDs...).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to record processed respondents")
	}

	result, err := entry.engine.UpdateSplits(fresh)
	if err != nil {
		return nil, err
	}
	entry.validCount += result.ValidCount
	entry.invalidCount += result.InvalidCount
	result.TotalProcessed = len(respondents)

	observability.RespondentsProcessed.WithLabelValues("valid").Add(float64(result.ValidCount))
	observability.RespondentsProcessed.WithLabelValues("invalid").Add(float64(result.InvalidCount))

	if err := s.LiveService.PublishUpdate(sessionID, result); err != nil {
		log.Warn().Err(err).Str("sessionId", sessionID).Msg("failed to broadcast statistics update")
	}

	return result, nil
}

// CloseSession persists a final snapshot, marks the session closed and evicts
// its engine. Further batches for the session are rejected.
func (s *SessionManager) CloseSession(ctx context.Context, sessionID string) error {
	entry, err := s.Load(ctx, sessionID)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if _, err := s.SnapshotService.Persist(ctx, sessionID, entry.engine.Snapshot(), entry.validCount, entry.invalidCount); err != nil {
		return err
	}
	if err := s.SessionRepo.CloseSession(ctx, sessionID); err != nil {
		return err
	}
	if err := s.Redis.Del(ctx, constant.RedisKeyProcessedRespondents+sessionID).Err(); err != nil {
		log.Warn().Err(err).Str("sessionId", sessionID).Msg("failed to drop processed respondents set")
	}

	if err := modelcache.SessionByID.Delete(sessionID); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate session cache")
	}
	if err := modelcache.OpenSessionIDs.Delete(); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate open session ids cache")
	}

	s.Unload(sessionID)
	return nil
}

// SnapshotLoaded persists a statistics snapshot for every loaded session.
// Driven by the periodic snapshot worker; a failure on one session does not
// stop the sweep.
func (s *SessionManager) SnapshotLoaded(ctx context.Context) {
	s.mu.Lock()
	entries := make(map[string]*sessionEntry, len(s.sessions))
	for id, entry := range s.sessions {
		entries[id] = entry
	}
	s.mu.Unlock()

	for id, entry := range entries {
		entry.mu.Lock()
		splits := entry.engine.Snapshot()
		validCount, invalidCount := entry.validCount, entry.invalidCount
		entry.mu.Unlock()

		if _, err := s.SnapshotService.Persist(ctx, id, splits, validCount, invalidCount); err != nil {
			log.Error().Err(err).Str("sessionId", id).Msg("failed to persist periodic snapshot")
		}
	}
}

func (s *SessionManager) Unload(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// SessionStatisticsView is a session's statistics as served over the API:
// the full basis-split array plus validity counters, either from the live
// engine or from the latest persisted snapshot.
type SessionStatisticsView struct {
	SessionID    string              `json:"sessionId"`
	Splits       []*stats.BasisSplit `json:"splits"`
	ValidCount   int                 `json:"validCount"`
	InvalidCount int                 `json:"invalidCount"`
	GeneratedAt  time.Time           `json:"generatedAt"`
	Live         bool                `json:"live"`
}

// Statistics serves the session's current statistics. Open sessions answer
// from the live engine; closed sessions answer from the final snapshot.
func (s *SessionManager) Statistics(ctx context.Context, sessionID string) (*SessionStatisticsView, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Status == constant.SessionStatusOpen {
		entry, err := s.Load(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		entry.mu.Lock()
		defer entry.mu.Unlock()
		return &SessionStatisticsView{
			SessionID:    sessionID,
			Splits:       entry.engine.Snapshot(),
			ValidCount:   entry.validCount,
			InvalidCount: entry.invalidCount,
			GeneratedAt:  time.Now(),
			Live:         true,
		}, nil
	}

	latest, err := s.SnapshotService.Latest(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	splits, err := s.SnapshotService.Decode(latest.Content)
	if err != nil {
		return nil, err
	}
	return &SessionStatisticsView{
		SessionID:    sessionID,
		Splits:       splits,
		ValidCount:   latest.ValidCount,
		InvalidCount: latest.InvalidCount,
		GeneratedAt:  lo.FromPtr(latest.CreatedAt),
	}, nil
}

// Views lists the view ids of a session's partial-split lattice.
func (s *SessionManager) Views(ctx context.Context, sessionID string) ([]string, error) {
	entry, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return entry.engine.Views(), nil
}

// AggregateView computes the partial splits of one view of an open session.
func (s *SessionManager) AggregateView(ctx context.Context, sessionID, viewID string) ([]*stats.AggregatedSplit, error) {
	entry, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	aggregated, err := entry.engine.AggregateView(viewID)
	if err != nil {
		return nil, pperr.ErrInvalidReq.Msg("unknown view %q", viewID)
	}
	return aggregated, nil
}

// HandleSessionOpen processes a session.open lifecycle event: the session is
// persisted if an upstream producer announced it first, then loaded.
func (s *SessionManager) HandleSessionOpen(ctx context.Context, sessionID string, payload *types.SessionOpenPayload) error {
	_, err := s.SessionRepo.GetSessionByID(ctx, sessionID)
	if errors.Is(err, pperr.ErrNotFound) {
		if _, err := s.buildEngine(&payload.Config); err != nil {
			return pperr.ErrInvalidConfig.Msg("invalid session config: %s", err)
		}
		raw, err := json.Marshal(payload.Config)
		if err != nil {
			return errors.Wrap(err, "failed to marshal session config")
		}
		if _, err := s.SessionRepo.CreateSession(ctx, &model.Session{
			SessionID: sessionID,
			Title:     payload.Title,
			Config:    raw,
		}); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	_, err = s.Load(ctx, sessionID)
	return err
}

// LoadOpenSessions warms the registry with every open session. Called once on
// startup so live endpoints answer without a first-request rehydration stall.
func (s *SessionManager) LoadOpenSessions(ctx context.Context) error {
	ids, err := s.OpenSessionIDsList(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := s.Load(ctx, id); err != nil {
			log.Error().Err(err).Str("sessionId", id).Msg("failed to load open session")
		}
	}
	return nil
}

// OpenSessionIDsList lists the ids of every open session, cached in-process
// for a minute.
func (s *SessionManager) OpenSessionIDsList(ctx context.Context) ([]string, error) {
	var ids []string
	err := modelcache.OpenSessionIDs.MutexGetSet(&ids, func() ([]string, error) {
		sessions, err := s.SessionRepo.GetOpenSessions(ctx)
		if errors.Is(err, pperr.ErrNotFound) {
			return []string{}, nil
		} else if err != nil {
			return nil, err
		}

		var ids []string
		linq.From(sessions).
			SelectT(func(session *model.Session) string {
				return session.SessionID
			}).
			ToSlice(&ids)
		return ids, nil
	}, time.Minute)
	if err != nil {
		return nil, err
	}
	return ids, nil
}
