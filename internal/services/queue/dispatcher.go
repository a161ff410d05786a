package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/phambaophuc/image-watermark/internal/models"
	"go.uber.org/zap"
)

var ErrDispatcherStopped = errors.New("dispatcher stopped")

// Dispatcher hands a stored job to whatever runs it.
type Dispatcher interface {
	Dispatch(ctx context.Context, job *models.ProcessingJob) error
	HealthCheck() string
	Stats() (map[string]interface{}, error)
}

// LocalDispatcher runs jobs on in-process workers. It is used when RabbitMQ
// is disabled. Jobs still in the backlog when it stops are marked failed.
type LocalDispatcher struct {
	executor *JobExecutor
	jobs     chan *models.ProcessingJob
	logger   *zap.Logger

	// mu is held for reading around every send so that no job can enter the
	// backlog after it has been drained.
	mu      sync.RWMutex
	stopped bool

	workers   sync.WaitGroup
	wg        sync.WaitGroup
	done      chan struct{}
	workerNum int
}

func NewLocalDispatcher(executor *JobExecutor, backlog int, logger *zap.Logger) *LocalDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if backlog <= 0 {
		backlog = 64
	}
	return &LocalDispatcher{
		executor: executor,
		jobs:     make(chan *models.ProcessingJob, backlog),
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches workers that run until ctx is cancelled.
func (d *LocalDispatcher) Start(ctx context.Context, workers int) {
	workers = max(1, workers)
	d.workerNum = workers
	for i := 1; i <= workers; i++ {
		d.workers.Add(1)
		go d.worker(ctx, i)
	}
	d.logger.Info("Local dispatcher started", zap.Int("workers", workers))

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		<-ctx.Done()
		close(d.done)

		d.mu.Lock()
		d.stopped = true
		d.mu.Unlock()

		d.workers.Wait()
		d.drain()
	}()
}

func (d *LocalDispatcher) worker(ctx context.Context, workerID int) {
	defer d.workers.Done()
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Worker stopping", zap.Int("worker_id", workerID))
			return
		case job := <-d.jobs:
			if ctx.Err() != nil {
				d.executor.Abandon(job, ErrDispatcherStopped)
				return
			}
			d.logger.Info("Processing job",
				zap.String("job_id", job.ID),
				zap.Int("worker_id", workerID))
			if err := d.executor.Execute(ctx, job); err != nil {
				d.logger.Error("Job processing failed",
					zap.String("job_id", job.ID),
					zap.Error(err))
			}
		}
	}
}

// drain fails every job left in the backlog.
func (d *LocalDispatcher) drain() {
	for {
		select {
		case job := <-d.jobs:
			d.executor.Abandon(job, ErrDispatcherStopped)
		default:
			return
		}
	}
}

// Dispatch queues a copy of job. It blocks while the backlog is full.
func (d *LocalDispatcher) Dispatch(ctx context.Context, job *models.ProcessingJob) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrDispatcherStopped
	}
	select {
	case <-d.done:
		return ErrDispatcherStopped
	default:
	}

	c := *job
	select {
	case <-d.done:
		return ErrDispatcherStopped
	case <-ctx.Done():
		return ctx.Err()
	case d.jobs <- &c:
		return nil
	}
}

// Wait blocks until all workers have exited and the backlog is drained.
func (d *LocalDispatcher) Wait() {
	d.wg.Wait()
}

func (d *LocalDispatcher) HealthCheck() string {
	select {
	case <-d.done:
		return "unhealthy: stopped"
	default:
		return "healthy"
	}
}

// Stats reports the backlog of the in-process queue.
func (d *LocalDispatcher) Stats() (map[string]interface{}, error) {
	return map[string]interface{}{
		"name":     "local",
		"messages": len(d.jobs),
		"capacity": cap(d.jobs),
		"workers":  d.workerNum,
	}, nil
}
