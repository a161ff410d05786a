package watermark

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// ColorMode is the channel layout of a decoded base image.
type ColorMode int

const (
	ModeRGBA ColorMode = iota
	ModeRGB
	ModeGray
)

func (m ColorMode) String() string {
	switch m {
	case ModeGray:
		return "gray"
	case ModeRGB:
		return "rgb"
	default:
		return "rgba"
	}
}

type opaquer interface {
	Opaque() bool
}

// ModeOf classifies img the way it was decoded: grayscale, opaque color or
// color with alpha.
func ModeOf(img image.Image) ColorMode {
	switch src := img.(type) {
	case *image.Gray, *image.Gray16:
		return ModeGray
	case *image.YCbCr, *image.CMYK:
		return ModeRGB
	case *image.NRGBA, *image.NRGBA64, *image.Alpha, *image.Alpha16:
		return ModeRGBA
	case opaquer:
		if src.Opaque() {
			return ModeRGB
		}
	}
	return ModeRGBA
}

// ToNRGBA returns a 4-channel straight-alpha copy of img with origin (0,0).
func ToNRGBA(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// ScaleAlpha multiplies every alpha value of img by opacity, in place.
func ScaleAlpha(img *image.NRGBA, opacity float64) *image.NRGBA {
	opacity = math.Max(0, math.Min(1, opacity))
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			a := &row[x*4+3]
			*a = uint8(math.Round(float64(*a) * opacity))
		}
	}
	return img
}

// Over composites src onto dst with its top-left corner at at, using
// straight-alpha source-over, and returns the result.
func Over(dst, src *image.NRGBA, at image.Point) *image.NRGBA {
	return imaging.Overlay(dst, src, at, 1.0)
}

// Tile copies src onto a transparent layer the size of bounds at every point.
// Tiles must not overlap.
func Tile(bounds image.Rectangle, src *image.NRGBA, at []image.Point) *image.NRGBA {
	layer := image.NewNRGBA(bounds)
	size := src.Bounds().Size()
	for _, pt := range at {
		draw.Draw(layer, image.Rectangle{Min: pt, Max: pt.Add(size)}, src, src.Bounds().Min, draw.Src)
	}
	return layer
}

// RestoreMode converts a composited image back to the base image's mode so
// opaque inputs are written without an alpha channel.
func RestoreMode(img *image.NRGBA, mode ColorMode) image.Image {
	b := img.Bounds()
	switch mode {
	case ModeGray:
		gray := image.NewGray(b)
		draw.Draw(gray, b, img, b.Min, draw.Src)
		return gray
	case ModeRGB:
		rgb := image.NewRGBA(b)
		draw.Draw(rgb, b, image.NewUniform(color.Black), image.Point{}, draw.Src)
		draw.Draw(rgb, b, img, b.Min, draw.Over)
		return rgb
	default:
		return img
	}
}
