package storage

import (
	"context"

	storage_go "github.com/supabase-community/storage-go"
)

// HealthCheck checks the job store and, when publishing is enabled, Supabase.
func HealthCheck(ctx context.Context, store JobStore, publisher *Publisher) map[string]string {
	status := make(map[string]string)

	if err := store.Ping(ctx); err != nil {
		status["job_store"] = "unhealthy: " + err.Error()
	} else {
		status["job_store"] = "healthy"
	}

	if !publisher.Enabled() {
		status["supabase"] = "disabled"
		return status
	}

	publisher.uploadMu.Lock()
	_, err := publisher.sbClient.ListFiles(publisher.bucket, "", storage_go.FileSearchOptions{Limit: 1})
	publisher.uploadMu.Unlock()
	if err != nil {
		status["supabase"] = "unhealthy: " + err.Error()
	} else {
		status["supabase"] = "healthy"
	}

	return status
}
