package queue

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/phambaophuc/image-watermark/internal/models"
	"github.com/phambaophuc/image-watermark/internal/services/storage"
	"github.com/phambaophuc/image-watermark/internal/services/watermark"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// fixtureDirs returns an input directory with two images and an empty
// output directory.
func fixtureDirs(t *testing.T) (string, string) {
	t.Helper()
	in, out := t.TempDir(), t.TempDir()
	writePNG(t, filepath.Join(in, "a.png"), 80, 60, color.NRGBA{200, 200, 200, 255})
	writePNG(t, filepath.Join(in, "b.png"), 60, 80, color.NRGBA{50, 50, 50, 255})
	return in, out
}

func newTestExecutor() (*JobExecutor, *storage.MemoryJobStore) {
	store := storage.NewMemoryJobStore(time.Hour)
	fonts := watermark.NewFontLoader(nil, watermark.BuiltinFamily, nil)
	return NewJobExecutor(store, nil, fonts, nil), store
}

func textJob(id, in, out string) *models.ProcessingJob {
	return &models.ProcessingJob{
		ID:     id,
		Status: models.StatusPending,
		Spec: models.JobSpec{
			InputDir:  in,
			OutputDir: out,
			Params: models.Params{
				Kind:         models.KindText,
				SizeRatio:    0.4,
				OpacityRatio: 0.7,
				Text:         &models.TextSpec{SenderText: "From A", ReceiverText: "To B", FontFamily: watermark.BuiltinFamily},
			},
		},
		CreatedAt: time.Now(),
	}
}

func imageJob(id, in, out, asset string) *models.ProcessingJob {
	return &models.ProcessingJob{
		ID:     id,
		Status: models.StatusPending,
		Spec: models.JobSpec{
			InputDir:           in,
			OutputDir:          out,
			WatermarkImagePath: asset,
			Params: models.Params{
				Kind:         models.KindImage,
				SizeRatio:    0.25,
				OpacityRatio: 0.5,
				Placement:    models.PlacementTile,
			},
		},
		CreatedAt: time.Now(),
	}
}
