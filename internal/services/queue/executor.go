package queue

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/phambaophuc/image-watermark/internal/models"
	"github.com/phambaophuc/image-watermark/internal/services/batch"
	"github.com/phambaophuc/image-watermark/internal/services/storage"
	"github.com/phambaophuc/image-watermark/internal/services/watermark"
	"github.com/phambaophuc/image-watermark/pkg/utils"
	"go.uber.org/zap"
)

const defaultMaxAssetSize = 10 * 1024 * 1024

// JobExecutor runs one stored job end to end: asset load, batch run,
// publishing and status bookkeeping. Every job gets its own engine so an
// asset load never races with another job's batch.
type JobExecutor struct {
	store        storage.JobStore
	publisher    *storage.Publisher
	fonts        *watermark.FontLoader
	engineOpts   []watermark.Option
	maxAssetSize int64
	logger       *zap.Logger
}

func NewJobExecutor(
	store storage.JobStore,
	publisher *storage.Publisher,
	fonts *watermark.FontLoader,
	logger *zap.Logger,
	engineOpts ...watermark.Option,
) *JobExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobExecutor{
		store:        store,
		publisher:    publisher,
		fonts:        fonts,
		engineOpts:   append(engineOpts, watermark.WithLogger(logger)),
		maxAssetSize: defaultMaxAssetSize,
		logger:       logger,
	}
}

// SetMaxAssetSize bounds downloaded watermark images.
func (e *JobExecutor) SetMaxAssetSize(n int64) {
	if n > 0 {
		e.maxAssetSize = n
	}
}

// Execute processes job and records its final state. The returned error is
// only for failures that prevented the batch from running.
func (e *JobExecutor) Execute(ctx context.Context, job *models.ProcessingJob) error {
	// State must be persisted even after ctx is cancelled.
	saveCtx := context.WithoutCancel(ctx)

	job.Status = models.StatusProcessing
	e.save(saveCtx, job)

	engine := watermark.NewWatermarker(e.fonts, e.engineOpts...)
	if job.Spec.Kind == models.KindImage {
		if err := e.loadAsset(ctx, engine, job.Spec); err != nil {
			job.Status = models.StatusFailed
			job.Error = err.Error()
			e.save(saveCtx, job)
			e.logger.Error("Job failed to load watermark",
				zap.String("job_id", job.ID),
				zap.Error(err))
			return err
		}
	}

	sink := batch.SinkFuncs{
		Progress: func(message string) {
			job.Progress = message
			e.save(saveCtx, job)
		},
	}
	result := batch.NewRunner(engine, e.logger).Run(ctx, job.Spec, sink)
	job.Result = &result

	if result.Processed == 0 && len(result.Errors) > 0 {
		job.Status = models.StatusFailed
		job.Error = result.Errors[0]
	} else {
		job.Status = models.StatusCompleted
	}

	if e.publisher.Enabled() && len(result.Outputs) > 0 {
		urls, err := e.publisher.PublishOutputs(ctx, job.ID, result.Outputs)
		job.PublishedURLs = urls
		if err != nil {
			job.Error = fmt.Sprintf("publish: %v", err)
			e.logger.Warn("Failed to publish outputs",
				zap.String("job_id", job.ID),
				zap.Error(err))
		}
	}

	e.save(saveCtx, job)
	e.logger.Info("Job finished",
		zap.String("job_id", job.ID),
		zap.String("status", job.Status),
		zap.Int("processed", result.Processed),
		zap.Int("total", result.Total))
	return nil
}

// Abandon records job as failed without running it.
func (e *JobExecutor) Abandon(job *models.ProcessingJob, reason error) {
	job.Status = models.StatusFailed
	job.Error = reason.Error()
	e.save(context.Background(), job)
	e.logger.Warn("Job abandoned",
		zap.String("job_id", job.ID),
		zap.Error(reason))
}

func (e *JobExecutor) save(ctx context.Context, job *models.ProcessingJob) {
	job.UpdatedAt = time.Now()
	if err := e.store.Save(ctx, job); err != nil {
		e.logger.Warn("Failed to store job",
			zap.String("job_id", job.ID),
			zap.Error(err))
	}
}

func (e *JobExecutor) loadAsset(ctx context.Context, engine *watermark.Watermarker, spec models.JobSpec) error {
	if spec.WatermarkImagePath != "" || spec.WatermarkImageURL == "" {
		return engine.LoadWatermarkImage(spec.WatermarkImagePath)
	}

	data, contentType, err := utils.DownloadImage(ctx, spec.WatermarkImageURL, e.maxAssetSize)
	if err != nil {
		return fmt.Errorf("%w: %v", watermark.ErrAssetNotFound, err)
	}

	f, err := os.CreateTemp("", "watermark-*"+utils.ExtensionFor(contentType))
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return engine.LoadWatermarkImage(f.Name())
}
