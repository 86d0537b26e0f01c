package redisadmin

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/brilliance/launcher-gateway/internal/host"
	"github.com/brilliance/launcher-gateway/internal/logger"
	"github.com/brilliance/launcher-gateway/internal/utils"
)

const (
	cacheKeyPattern = "cache:*"
	queuePendingKey = "queue:pending"
	queueFailedKey  = "queue:failed"
)

// Service implements host.Cache and host.Queue over a shared redis
// deployment: cache entries live under cache:*, background jobs in the
// queue:pending / queue:failed lists.
type Service struct {
	log *logger.Logger
	rdb *goredis.Client
}

func New(log *logger.Logger) (*Service, error) {
	addr := strings.TrimSpace(utils.GetEnv("REDIS_ADDR", "", log))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    utils.GetEnv("REDIS_PASSWORD", "", nil),
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Service{log: log.With("service", "RedisAdmin"), rdb: rdb}, nil
}

var (
	_ host.Cache = (*Service)(nil)
	_ host.Queue = (*Service)(nil)
)

func (s *Service) Close() error {
	return s.rdb.Close()
}

func (s *Service) ClearCaches(ctx context.Context) (int, error) {
	var deleted int
	iter := s.rdb.Scan(ctx, 0, cacheKeyPattern, 200).Iterator()
	batch := make([]string, 0, 200)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := s.rdb.Del(ctx, batch...).Result()
		if err != nil {
			return err
		}
		deleted += int(n)
		batch = batch[:0]
		return nil
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= 200 {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}
	if err := flush(); err != nil {
		return deleted, err
	}
	s.log.Info("Caches cleared", "deleted", deleted)
	return deleted, nil
}

func (s *Service) Status(ctx context.Context) (host.QueueStatus, error) {
	pending, err := s.rdb.LLen(ctx, queuePendingKey).Result()
	if err != nil {
		return host.QueueStatus{}, err
	}
	failed, err := s.rdb.LLen(ctx, queueFailedKey).Result()
	if err != nil {
		return host.QueueStatus{}, err
	}
	return host.QueueStatus{Pending: pending, Failed: failed}, nil
}

func (s *Service) Run(ctx context.Context, limit int) (int, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	ran := 0
	for ran < limit {
		if ctx.Err() != nil {
			return ran, ctx.Err()
		}
		_, err := s.rdb.LPop(ctx, queuePendingKey).Result()
		if err == goredis.Nil {
			break
		}
		if err != nil {
			return ran, err
		}
		ran++
	}
	s.log.Info("Queue jobs released", "ran", ran)
	return ran, nil
}
