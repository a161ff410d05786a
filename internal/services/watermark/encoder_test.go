package watermark

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveImage_GIFKeepsTransparency(t *testing.T) {
	img := solidNRGBA(8, 8, color.NRGBA{255, 0, 0, 255})
	for y := 0; y < 8; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{})
		}
	}
	img.SetNRGBA(0, 0, color.NRGBA{0, 0, 0, 40})

	path := filepath.Join(t.TempDir(), "out.gif")
	require.NoError(t, saveImage(img, path, DefaultQuality))

	got := readImage(t, path)
	_, isPaletted := got.(*image.Paletted)
	require.True(t, isPaletted)

	assert.Equal(t, uint8(0), nrgbaAt(got, 0, 0).A)
	assert.Equal(t, uint8(0), nrgbaAt(got, 2, 5).A)

	c := nrgbaAt(got, 6, 3)
	assert.Equal(t, uint8(255), c.A)
	assert.Greater(t, c.R, uint8(200))
	assert.Less(t, c.G, uint8(60))
}

func TestSaveImage_OpaqueGIF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.gif")
	require.NoError(t, saveImage(createTestImage(16, 16), path, DefaultQuality))

	got := readImage(t, path)
	assert.Equal(t, image.Rect(0, 0, 16, 16), got.Bounds())
	assert.Equal(t, uint8(255), nrgbaAt(got, 3, 3).A)
}

func TestSaveImage_UnknownExtension(t *testing.T) {
	err := saveImage(createTestImage(4, 4), filepath.Join(t.TempDir(), "out.webp"), DefaultQuality)
	assert.ErrorIs(t, err, ErrImageWrite)
}
