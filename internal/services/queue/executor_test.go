package queue

import (
	"context"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/phambaophuc/image-watermark/internal/models"
	"github.com/phambaophuc/image-watermark/internal/services/watermark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_TextJob(t *testing.T) {
	in, out := fixtureDirs(t)
	exec, store := newTestExecutor()
	job := textJob("job-text", in, out)

	require.NoError(t, exec.Execute(context.Background(), job))

	got, err := store.Get(context.Background(), "job-text")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, "2/2: b.png", got.Progress)
	require.NotNil(t, got.Result)
	assert.Equal(t, 2, got.Result.Processed)
	assert.Equal(t, 2, got.Result.Total)
	assert.Empty(t, got.Result.Errors)
	assert.FileExists(t, filepath.Join(out, "a.png"))
	assert.FileExists(t, filepath.Join(out, "b.png"))
	assert.Empty(t, got.PublishedURLs)
}

func TestExecute_ImageJob(t *testing.T) {
	in, out := fixtureDirs(t)
	asset := filepath.Join(t.TempDir(), "logo.png")
	writePNG(t, asset, 20, 10, color.NRGBA{255, 0, 0, 255})

	exec, store := newTestExecutor()
	require.NoError(t, exec.Execute(context.Background(), imageJob("job-img", in, out, asset)))

	got, err := store.Get(context.Background(), "job-img")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, 2, got.Result.Processed)
}

func TestExecute_MissingAsset(t *testing.T) {
	in, out := fixtureDirs(t)
	exec, store := newTestExecutor()

	err := exec.Execute(context.Background(), imageJob("job-missing", in, out, filepath.Join(in, "nope.png")))
	assert.ErrorIs(t, err, watermark.ErrAssetNotFound)

	got, err := store.Get(context.Background(), "job-missing")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, got.Status)
	assert.Contains(t, got.Error, "nope.png")
	assert.Nil(t, got.Result)
	assert.NoFileExists(t, filepath.Join(out, "a.png"))
}

func TestExecute_DownloadsAsset(t *testing.T) {
	assetPath := filepath.Join(t.TempDir(), "logo.png")
	writePNG(t, assetPath, 16, 16, color.NRGBA{0, 0, 255, 200})
	assetBytes, err := os.ReadFile(assetPath)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(assetBytes)
	}))
	defer srv.Close()

	in, out := fixtureDirs(t)
	job := imageJob("job-url", in, out, "")
	job.Spec.WatermarkImageURL = srv.URL + "/logo.png"

	exec, store := newTestExecutor()
	require.NoError(t, exec.Execute(context.Background(), job))

	got, err := store.Get(context.Background(), "job-url")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, 2, got.Result.Processed)
}

func TestExecute_NothingProcessedIsFailure(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	exec, store := newTestExecutor()

	require.NoError(t, exec.Execute(context.Background(), textJob("job-empty", in, out)))

	got, err := store.Get(context.Background(), "job-empty")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, got.Status)
	assert.Equal(t, "no supported image files found in "+in, got.Error)
	assert.Equal(t, 0, got.Result.Total)
}

func TestExecute_CancelledStillStoresResult(t *testing.T) {
	in, out := fixtureDirs(t)
	exec, store := newTestExecutor()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, exec.Execute(ctx, textJob("job-cancel", in, out)))

	got, err := store.Get(context.Background(), "job-cancel")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, 0, got.Result.Processed)
	assert.Equal(t, 2, got.Result.Total)
}
