package storage

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// PublishOutputs uploads the written outputs of a job. URLs are returned in
// the order of paths; failed uploads are left out and reported in the error.
func (p *Publisher) PublishOutputs(ctx context.Context, jobID string, paths []string) ([]string, error) {
	if !p.Enabled() || len(paths) == 0 {
		return nil, nil
	}

	urls := make([]string, len(paths))
	errors := make([]error, len(paths))

	numWorkers := p.workers
	if len(paths) < numWorkers {
		numWorkers = len(paths)
	}

	jobs := make(chan int, len(paths))
	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				data, err := os.ReadFile(paths[i])
				if err != nil {
					errors[i] = err
					continue
				}
				urls[i], errors[i] = p.Upload(ctx, data, p.Key(jobID, paths[i]))
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)

	wg.Wait()

	var failedUploads []string
	successURLs := make([]string, 0, len(paths))

	for i, err := range errors {
		if err != nil {
			failedUploads = append(failedUploads, fmt.Sprintf("%s: %v", paths[i], err))
		} else {
			successURLs = append(successURLs, urls[i])
		}
	}

	p.logger.Info("Outputs published",
		zap.String("job_id", jobID),
		zap.Int("uploaded", len(successURLs)),
		zap.Int("failed", len(failedUploads)))

	if len(failedUploads) > 0 {
		return successURLs, fmt.Errorf("failed to upload %d files: %s",
			len(failedUploads), strings.Join(failedUploads, "; "))
	}

	return successURLs, nil
}
