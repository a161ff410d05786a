package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/phambaophuc/image-watermark/internal/config"
	"github.com/phambaophuc/image-watermark/pkg/utils"
	storage_go "github.com/supabase-community/storage-go"
	"go.uber.org/zap"
)

// bucketClient is the subset of the Supabase storage client used here.
type bucketClient interface {
	UploadFile(bucketId string, relativePath string, data io.Reader, fileOptions ...storage_go.FileOptions) (storage_go.FileUploadResponse, error)
	GetPublicUrl(bucketId string, filePath string, urlOptions ...storage_go.UrlOptions) storage_go.SignedUrlResponse
	ListFiles(bucketId string, queryPath string, options storage_go.FileSearchOptions) ([]storage_go.FileObject, error)
}

// Publisher uploads watermarked outputs to a Supabase bucket. A nil
// Publisher is valid and publishes nothing.
type Publisher struct {
	sbClient bucketClient
	bucket   string
	logger   *zap.Logger
	workers  int

	// The storage client sets request headers on shared state per upload.
	uploadMu sync.Mutex
}

// NewPublisher returns nil when Supabase is not configured.
func NewPublisher(cfg config.SupabaseConfig, logger *zap.Logger) *Publisher {
	if !cfg.Enabled() {
		return nil
	}
	return newPublisher(NewSupabaseClient(cfg), cfg.BUCKET, logger)
}

func newPublisher(client bucketClient, bucket string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		sbClient: client,
		bucket:   bucket,
		logger:   logger,
		workers:  5,
	}
}

func (p *Publisher) Enabled() bool {
	return p != nil
}

// Upload stores data under key and returns its public URL.
func (p *Publisher) Upload(ctx context.Context, data []byte, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	contentType := http.DetectContentType(data)
	upsert := true

	p.uploadMu.Lock()
	_, err := p.sbClient.UploadFile(p.bucket, key, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	p.uploadMu.Unlock()
	if err != nil {
		return "", fmt.Errorf("failed to upload to supabase: %w", err)
	}

	publicURL := p.sbClient.GetPublicUrl(p.bucket, key)
	return publicURL.SignedURL, nil
}

// Key is the bucket key of one output of a job.
func (p *Publisher) Key(jobID, path string) string {
	return utils.GenerateStorageKey(jobID, path)
}
