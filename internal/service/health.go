package service

import (
	"context"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
)

type Health struct {
	DB    *bun.DB
	Redis *redis.Client
	Nats  *nats.Conn
}

func NewHealth(db *bun.DB, client *redis.Client, natsConn *nats.Conn) *Health {
	return &Health{
		DB:    db,
		Redis: client,
		Nats:  natsConn,
	}
}

func (s *Health) Ping(ctx context.Context) error {
	if err := s.DB.PingContext(ctx); err != nil {
		return errors.Wrap(err, "failed to ping database")
	}
	if err := s.Redis.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "failed to ping redis")
	}
	if status := s.Nats.Status(); status != nats.CONNECTED {
		return errors.Errorf("nats connection is not healthy: %s", status)
	}
	return nil
}
