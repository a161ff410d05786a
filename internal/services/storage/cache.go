package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/phambaophuc/image-watermark/internal/models"
	"github.com/redis/go-redis/v9"
)

const jobKeyPrefix = "watermark_job:"

func jobKey(id string) string {
	return jobKeyPrefix + id
}

// RedisJobStore stores jobs as JSON values that expire after ttl.
type RedisJobStore struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewRedisJobStore(client *redis.Client, ttl time.Duration) *RedisJobStore {
	return &RedisJobStore{redisClient: client, ttl: ttl}
}

func (s *RedisJobStore) Save(ctx context.Context, job *models.ProcessingJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := s.redisClient.Set(ctx, jobKey(job.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("job store set error: %w", err)
	}
	return nil
}

func (s *RedisJobStore) Get(ctx context.Context, id string) (*models.ProcessingJob, error) {
	data, err := s.redisClient.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
		}
		return nil, fmt.Errorf("job store get error: %w", err)
	}

	var job models.ProcessingJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

func (s *RedisJobStore) Ping(ctx context.Context) error {
	return s.redisClient.Ping(ctx).Err()
}

// Stats reports the number of stored jobs.
func (s *RedisJobStore) Stats(ctx context.Context) (map[string]interface{}, error) {
	var count int64
	iter := s.redisClient.Scan(ctx, 0, jobKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	dbSize, err := s.redisClient.DBSize(ctx).Result()
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"jobs":    count,
		"db_keys": dbSize,
	}, nil
}
