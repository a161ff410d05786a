package storage

import (
	"context"
	"errors"

	"github.com/phambaophuc/image-watermark/internal/config"
	"github.com/phambaophuc/image-watermark/internal/models"
	"github.com/redis/go-redis/v9"
	storage_go "github.com/supabase-community/storage-go"
)

var ErrJobNotFound = errors.New("job not found")

// JobStore keeps the latest state of every submitted job.
type JobStore interface {
	Save(ctx context.Context, job *models.ProcessingJob) error
	Get(ctx context.Context, id string) (*models.ProcessingJob, error)
	Ping(ctx context.Context) error
	Stats(ctx context.Context) (map[string]interface{}, error)
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func NewSupabaseClient(cfg config.SupabaseConfig) *storage_go.Client {
	return storage_go.NewClient(cfg.URL+"/storage/v1", cfg.KEY, nil)
}
