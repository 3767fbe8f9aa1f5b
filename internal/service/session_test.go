package service

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"

	"github.com/pulsepoll/backend/internal/app/appconfig"
	"github.com/pulsepoll/backend/internal/model"
	modelcache "github.com/pulsepoll/backend/internal/model/cache"
	"github.com/pulsepoll/backend/internal/model/types"
	"github.com/pulsepoll/backend/internal/stats"
)

func testEngine(t *testing.T) *stats.Engine {
	t.Helper()
	engine, err := stats.NewEngine(stats.Config{
		ResponseQuestion: &model.ResponseQuestion{
			VarName: "satisfaction",
			Expanded: []model.ResponseGroup{
				{Label: "low", Values: []int{1, 2}},
				{Label: "high", Values: []int{3, 4}},
			},
			Collapsed: []model.ResponseGroup{
				{Label: "low", Values: []int{1, 2}},
				{Label: "high", Values: []int{3, 4}},
			},
		},
		GroupingQuestions: []*model.Question{
			{
				VarName: "region",
				Groups: []model.ResponseGroup{
					{Label: "north", Values: []int{1}},
					{Label: "south", Values: []int{2}},
				},
			},
		},
	})
	require.NoError(t, err)
	return engine
}

// brokenRedis is a client pointed at a closed port, so every command fails
// immediately.
func brokenRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

// A batch that cannot be recorded in the processed-respondents set must not
// reach the engine: the redelivery retries against untouched state, so a
// dedup-store failure can never double-count respondents.
func TestProcessBatchDedupStoreFailureLeavesEngineUntouched(t *testing.T) {
	t.Parallel()

	engine := testEngine(t)
	manager := &SessionManager{
		Redis:  brokenRedis(),
		Config: &appconfig.Config{},
		sessions: map[string]*sessionEntry{
			"s1": {engine: engine},
		},
	}

	respondents := []*types.RespondentData{
		{
			RespondentID: 1,
			Responses: []types.RespondentResponse{
				{VarName: "satisfaction", Response: null.FloatFrom(3)},
				{VarName: "region", Response: null.FloatFrom(1)},
			},
		},
	}

	result, err := manager.ProcessBatch(context.Background(), "s1", respondents)
	require.Error(t, err)
	assert.Nil(t, result)

	entry := manager.sessions["s1"]
	assert.Zero(t, entry.validCount)
	assert.Zero(t, entry.invalidCount)
	for _, split := range engine.Snapshot() {
		assert.Zero(t, split.TotalCount)
	}
}

// A warmed open-session-ids cache answers the listing without a database
// round-trip.
func TestOpenSessionIDsListServedFromCache(t *testing.T) {
	modelcache.Initialize(nil)
	require.NoError(t, modelcache.OpenSessionIDs.Set([]string{"s1", "s2"}, time.Minute))
	defer func() {
		require.NoError(t, modelcache.OpenSessionIDs.Delete())
	}()

	manager := &SessionManager{}

	ids, err := manager.OpenSessionIDsList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, ids)
}
