package watermark

import (
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/phambaophuc/image-watermark/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	white = color.NRGBA{255, 255, 255, 255}
	red   = color.NRGBA{255, 0, 0, 255}
)

func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func imageParams(ratio, opacity float64, placement models.Placement) models.Params {
	return models.Params{Kind: models.KindImage, SizeRatio: ratio, OpacityRatio: opacity, Placement: placement}
}

func TestLoadWatermarkImage(t *testing.T) {
	dir := t.TempDir()
	w := NewWatermarker(builtinLoader())

	t.Run("missing file", func(t *testing.T) {
		err := w.LoadWatermarkImage(filepath.Join(dir, "nope.png"))
		assert.ErrorIs(t, err, ErrAssetNotFound)
		assert.False(t, w.HasAsset())
	})

	t.Run("not an image", func(t *testing.T) {
		path := filepath.Join(dir, "logo.png")
		require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))
		assert.ErrorIs(t, w.LoadWatermarkImage(path), ErrAssetDecode)
		assert.False(t, w.HasAsset())
	})

	t.Run("valid png", func(t *testing.T) {
		path := writePNG(t, dir, "mark.png", solidNRGBA(40, 20, red))
		require.NoError(t, w.LoadWatermarkImage(path))
		assert.True(t, w.HasAsset())
	})
}

func TestApply_InvalidParameters(t *testing.T) {
	dir := t.TempDir()
	in := writePNG(t, dir, "in.png", createTestImage(50, 50))
	w := NewWatermarker(builtinLoader())
	w.SetAsset(solidNRGBA(10, 10, red))

	cases := []models.Params{
		imageParams(1.5, 0.5, ""),
		imageParams(0.5, -0.1, ""),
		imageParams(math.NaN(), 0.5, ""),
		imageParams(0.5, math.NaN(), ""),
		imageParams(math.Inf(1), 0.5, ""),
		imageParams(0.5, math.Inf(-1), ""),
		imageParams(0.5, 0.5, "diagonal"),
		{Kind: models.KindText, SizeRatio: 0.5, OpacityRatio: 0.5, Text: &models.TextSpec{SenderText: "  "}},
		{Kind: "video", SizeRatio: 0.5, OpacityRatio: 0.5},
	}
	for _, p := range cases {
		err := w.Apply(in, filepath.Join(dir, "out.png"), p)
		assert.ErrorIs(t, err, ErrInvalidParameter)
	}
	assert.NoFileExists(t, filepath.Join(dir, "out.png"))
}

func TestApply_AssetNotLoaded(t *testing.T) {
	dir := t.TempDir()
	in := writePNG(t, dir, "in.png", createTestImage(50, 50))
	out := filepath.Join(dir, "out.png")

	err := NewWatermarker(builtinLoader()).Apply(in, out, imageParams(0.2, 0.5, ""))

	assert.ErrorIs(t, err, ErrAssetNotLoaded)
	assert.NoFileExists(t, out)
}

func TestApply_DecodeAndWriteErrors(t *testing.T) {
	dir := t.TempDir()
	w := NewWatermarker(builtinLoader())
	w.SetAsset(solidNRGBA(10, 10, red))

	corrupt := filepath.Join(dir, "broken.jpg")
	require.NoError(t, os.WriteFile(corrupt, []byte{0xff, 0xd8, 0x00}, 0o644))
	err := w.Apply(corrupt, filepath.Join(dir, "out.jpg"), imageParams(0.2, 0.5, ""))
	assert.ErrorIs(t, err, ErrImageDecode)

	in := writePNG(t, dir, "in.png", createTestImage(50, 50))
	err = w.Apply(in, filepath.Join(dir, "missing", "out.png"), imageParams(0.2, 0.5, ""))
	assert.ErrorIs(t, err, ErrImageWrite)
}

func TestApply_BottomRight(t *testing.T) {
	dir := t.TempDir()
	in := writePNG(t, dir, "in.png", solidNRGBA(200, 100, white))
	out := filepath.Join(dir, "out.png")

	w := NewWatermarker(builtinLoader())
	w.SetAsset(solidNRGBA(40, 20, red))

	// Footprint 20x10 placed at (160, 70).
	require.NoError(t, w.Apply(in, out, imageParams(0.2, 1, models.PlacementBottomRight)))

	got := readImage(t, out)
	assert.Equal(t, image.Rect(0, 0, 200, 100), got.Bounds())
	assert.Equal(t, white, nrgbaAt(got, 5, 5))
	assert.Equal(t, white, nrgbaAt(got, 155, 75))
	assert.Equal(t, white, nrgbaAt(got, 185, 85))

	c := nrgbaAt(got, 170, 75)
	assert.InDelta(t, 255, int(c.R), 1)
	assert.InDelta(t, 0, int(c.G), 1)
	assert.Equal(t, uint8(255), c.A)
}

func TestApply_HalfOpacity(t *testing.T) {
	dir := t.TempDir()
	in := writePNG(t, dir, "in.png", solidNRGBA(200, 100, white))
	out := filepath.Join(dir, "out.png")

	w := NewWatermarker(builtinLoader())
	w.SetAsset(solidNRGBA(40, 20, red))
	require.NoError(t, w.Apply(in, out, imageParams(0.2, 0.5, "")))

	c := nrgbaAt(readImage(t, out), 170, 75)
	assert.InDelta(t, 255, int(c.R), 1)
	assert.InDelta(t, 127, int(c.G), 2)
	assert.InDelta(t, 127, int(c.B), 2)
}

func TestApply_Tile(t *testing.T) {
	dir := t.TempDir()
	in := writePNG(t, dir, "in.png", solidNRGBA(200, 100, white))
	out := filepath.Join(dir, "out.png")

	w := NewWatermarker(builtinLoader())
	w.SetAsset(solidNRGBA(40, 20, red))

	// Footprint 20x10, step 24x12.
	require.NoError(t, w.Apply(in, out, imageParams(0.2, 1, models.PlacementTile)))

	got := readImage(t, out)
	for _, pt := range []image.Point{{5, 5}, {29, 17}, {197, 97}, {101, 41}} {
		assert.InDelta(t, 0, int(nrgbaAt(got, pt.X, pt.Y).G), 1, "tile at %v", pt)
	}
	for _, pt := range []image.Point{{21, 5}, {5, 11}} {
		assert.Equal(t, white, nrgbaAt(got, pt.X, pt.Y), "gap at %v", pt)
	}
}

func TestApply_PreservesGrayMode(t *testing.T) {
	dir := t.TempDir()
	gray := image.NewGray(image.Rect(0, 0, 60, 60))
	for i := range gray.Pix {
		gray.Pix[i] = 200
	}
	in := writePNG(t, dir, "in.png", gray)
	out := filepath.Join(dir, "out.png")

	w := NewWatermarker(builtinLoader())
	w.SetAsset(solidNRGBA(10, 10, color.NRGBA{0, 0, 0, 255}))
	require.NoError(t, w.Apply(in, out, imageParams(0.3, 1, "")))

	got := readImage(t, out)
	_, isGray := got.(*image.Gray)
	assert.True(t, isGray)
	assert.Equal(t, ModeGray, ModeOf(got))
}

func TestApply_Text(t *testing.T) {
	dir := t.TempDir()
	in := writePNG(t, dir, "in.png", solidNRGBA(200, 100, white))
	out := filepath.Join(dir, "out.jpg")

	w := NewWatermarker(builtinLoader(), WithQuality(90))
	p := models.Params{
		Kind:         models.KindText,
		SizeRatio:    0.5,
		OpacityRatio: 1,
		Text: &models.TextSpec{
			SenderText: "AB",
			FontFamily: BuiltinFamily,
			Color:      models.RGB{R: 0, G: 0, B: 0},
		},
	}
	require.NoError(t, w.Apply(in, out, p))

	got := readImage(t, out)
	assert.Equal(t, image.Rect(0, 0, 200, 100), got.Bounds())

	darkest := uint8(255)
	for y := 40; y < 60; y++ {
		for x := 90; x < 110; x++ {
			darkest = min(darkest, nrgbaAt(got, x, y).R)
		}
	}
	assert.Less(t, darkest, uint8(100), "text is drawn near the center")
	assert.Greater(t, nrgbaAt(got, 5, 5).R, uint8(240))
}

func TestWatermarkText_BlankIsPassThrough(t *testing.T) {
	base := createTestImage(80, 40)
	w := NewWatermarker(builtinLoader())

	out, err := w.WatermarkText(base, models.Params{
		Kind:         models.KindText,
		SizeRatio:    0.5,
		OpacityRatio: 1,
		Text:         &models.TextSpec{SenderText: " ", ReceiverText: ""},
	})
	require.NoError(t, err)

	rgba, ok := out.(*image.RGBA)
	require.True(t, ok)
	assert.Equal(t, base.Pix, rgba.Pix)
}

func TestLoadWatermarkImage_ReplacesAsset(t *testing.T) {
	dir := t.TempDir()
	base := solidNRGBA(100, 100, white)
	w := NewWatermarker(builtinLoader())

	require.NoError(t, w.LoadWatermarkImage(writePNG(t, dir, "a.png", solidNRGBA(10, 10, red))))
	first, err := w.WatermarkImage(base, imageParams(0.2, 1, ""))
	require.NoError(t, err)

	blue := color.NRGBA{0, 0, 255, 255}
	require.NoError(t, w.LoadWatermarkImage(writePNG(t, dir, "b.png", solidNRGBA(10, 10, blue))))
	second, err := w.WatermarkImage(base, imageParams(0.2, 1, ""))
	require.NoError(t, err)

	assert.InDelta(t, 255, int(nrgbaAt(first, 70, 70).R), 1)
	assert.InDelta(t, 255, int(nrgbaAt(second, 70, 70).B), 1)
	assert.InDelta(t, 0, int(nrgbaAt(second, 70, 70).R), 1)
}
