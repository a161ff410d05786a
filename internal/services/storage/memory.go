package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/phambaophuc/image-watermark/internal/models"
)

// MemoryJobStore keeps jobs in process memory. Used when Redis is disabled.
type MemoryJobStore struct {
	jobs *cache.Cache
}

func NewMemoryJobStore(ttl time.Duration) *MemoryJobStore {
	cleanup := ttl / 2
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	return &MemoryJobStore{jobs: cache.New(ttl, cleanup)}
}

// Save stores a copy so later mutations by the caller are not visible.
func (s *MemoryJobStore) Save(_ context.Context, job *models.ProcessingJob) error {
	stored := cloneJob(job)
	s.jobs.Set(jobKey(job.ID), stored, cache.DefaultExpiration)
	return nil
}

func (s *MemoryJobStore) Get(_ context.Context, id string) (*models.ProcessingJob, error) {
	v, ok := s.jobs.Get(jobKey(id))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return cloneJob(v.(*models.ProcessingJob)), nil
}

func (s *MemoryJobStore) Ping(context.Context) error {
	return nil
}

func (s *MemoryJobStore) Stats(context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{"jobs": s.jobs.ItemCount()}, nil
}

func cloneJob(job *models.ProcessingJob) *models.ProcessingJob {
	c := *job
	if job.Result != nil {
		r := *job.Result
		r.Errors = cloneStrings(job.Result.Errors)
		r.Outputs = cloneStrings(job.Result.Outputs)
		c.Result = &r
	}
	if job.Spec.Text != nil {
		t := *job.Spec.Text
		c.Spec.Text = &t
	}
	c.PublishedURLs = cloneStrings(job.PublishedURLs)
	return &c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}
