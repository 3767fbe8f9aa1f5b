package cache

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/pulsepoll/backend/internal/model"
	"github.com/pulsepoll/backend/internal/pkg/cache"
)

var (
	SessionByID          *cache.Set[model.Session]
	LatestStatisticsByID *cache.Set[model.SessionStatistics]

	OpenSessionIDs *cache.Singular[[]string]

	once sync.Once

	CacheSetMap      map[string]Flushable
	CacheSingularMap map[string]Flushable
)

type Flushable interface {
	Clear() error
}

type singularFlushable[T any] struct {
	s *cache.Singular[T]
}

func (f singularFlushable[T]) Clear() error {
	return f.s.Delete()
}

func Initialize(client *redis.Client) {
	once.Do(func() {
		initializeCaches(client)
	})
}

// Delete evicts a single key from a registered key-value cache, or the whole
// cache when key is empty. Single-value caches ignore the key.
func Delete(name string, key string) error {
	if c, ok := CacheSetMap[name]; ok {
		if key == "" {
			return c.Clear()
		}
		if s, ok := c.(interface{ Delete(key string) error }); ok {
			return s.Delete(key)
		}
	}
	if c, ok := CacheSingularMap[name]; ok {
		return c.Clear()
	}
	return errors.Errorf("cache %q is not registered", name)
}

func initializeCaches(client *redis.Client) {
	CacheSetMap = make(map[string]Flushable)
	CacheSingularMap = make(map[string]Flushable)

	// model.Session
	SessionByID = cache.NewSet[model.Session](client, "session#sessionID")
	CacheSetMap["session#sessionID"] = SessionByID

	// model.SessionStatistics
	LatestStatisticsByID = cache.NewSet[model.SessionStatistics](client, "latestStatistics#sessionID")
	CacheSetMap["latestStatistics#sessionID"] = LatestStatisticsByID

	OpenSessionIDs = cache.NewSingular[[]string]("openSessionIds")
	CacheSingularMap["openSessionIds"] = singularFlushable[[]string]{OpenSessionIDs}
}
