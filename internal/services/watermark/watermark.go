package watermark

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/phambaophuc/image-watermark/internal/models"
	"go.uber.org/zap"
)

// Watermarker applies image or text watermarks to files. It owns the loaded
// watermark asset; loading a new one replaces the old one.
type Watermarker struct {
	mu      sync.RWMutex
	asset   *image.NRGBA
	text    *TextRenderer
	quality int
	logger  *zap.Logger
}

type Option func(*Watermarker)

func WithQuality(quality int) Option {
	return func(w *Watermarker) {
		if quality > 0 {
			w.quality = min(100, quality)
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(w *Watermarker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func NewWatermarker(fonts *FontLoader, opts ...Option) *Watermarker {
	w := &Watermarker{
		quality: DefaultQuality,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if fonts == nil {
		fonts = NewFontLoader(DefaultFontDirs(), DefaultFamily, w.logger)
	}
	w.text = NewTextRenderer(fonts)
	return w
}

// LoadWatermarkImage decodes path and makes it the current asset.
func (w *Watermarker) LoadWatermarkImage(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrAssetNotFound, path)
		}
		return fmt.Errorf("%w: %v", ErrAssetDecode, err)
	}

	img, err := decodeFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAssetDecode, err)
	}

	asset := ToNRGBA(img)

	w.mu.Lock()
	w.asset = asset
	w.mu.Unlock()

	w.logger.Info("Watermark image loaded",
		zap.String("path", path),
		zap.Int("width", asset.Bounds().Dx()),
		zap.Int("height", asset.Bounds().Dy()))
	return nil
}

// SetAsset replaces the current asset with an already decoded image.
func (w *Watermarker) SetAsset(img image.Image) {
	asset := ToNRGBA(img)
	w.mu.Lock()
	w.asset = asset
	w.mu.Unlock()
}

func (w *Watermarker) HasAsset() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.asset != nil
}

// Apply watermarks inputPath and writes the result to outputPath in the
// format implied by its extension. The output directory must exist.
func (w *Watermarker) Apply(inputPath, outputPath string, p models.Params) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}

	base, err := decodeFile(inputPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	var out image.Image
	switch p.Kind {
	case models.KindImage:
		out, err = w.WatermarkImage(base, p)
	case models.KindText:
		out, err = w.WatermarkText(base, p)
	}
	if err != nil {
		return err
	}

	return saveImage(out, outputPath, w.quality)
}

// WatermarkImage overlays the loaded asset on base, either once at the
// bottom-right corner or tiled over the whole image.
func (w *Watermarker) WatermarkImage(base image.Image, p models.Params) (image.Image, error) {
	w.mu.RLock()
	asset := w.asset
	w.mu.RUnlock()
	if asset == nil {
		return nil, ErrAssetNotLoaded
	}

	mode := ModeOf(base)
	canvas := ToNRGBA(base)
	bw, bh := canvas.Bounds().Dx(), canvas.Bounds().Dy()

	fw, fh := Footprint(bw, bh, asset.Bounds().Dx(), asset.Bounds().Dy(), p.SizeRatio)
	mark := ScaleAlpha(imaging.Resize(asset, fw, fh, imaging.Lanczos), p.OpacityRatio)

	if p.Placement == models.PlacementTile {
		sx, sy := TileSpacing(fw, fh)
		layer := Tile(canvas.Bounds(), mark, TileOrigins(bw, bh, sx, sy))
		canvas = Over(canvas, layer, image.Point{})
	} else {
		canvas = Over(canvas, mark, BottomRight(bw, bh, fw, fh, CornerPadding))
	}

	return RestoreMode(canvas, mode), nil
}

// WatermarkText draws the text layer over base. Blank text leaves the image
// unchanged apart from mode normalization.
func (w *Watermarker) WatermarkText(base image.Image, p models.Params) (image.Image, error) {
	mode := ModeOf(base)
	canvas := ToNRGBA(base)

	layer := w.text.Render(canvas.Bounds().Dx(), canvas.Bounds().Dy(), p.Text, p.SizeRatio, p.OpacityRatio)
	if layer != nil {
		canvas = Over(canvas, layer, image.Point{})
	}

	return RestoreMode(canvas, mode), nil
}
