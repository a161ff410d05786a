package watermark

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"io"
	"os"

	"github.com/disintegration/imaging"
)

const DefaultQuality = 95

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return imaging.Decode(f)
}

// encodeImage writes img in the container format implied by format.
func encodeImage(w io.Writer, img image.Image, format imaging.Format, quality int) error {
	switch format {
	case imaging.JPEG:
		return imaging.Encode(w, img, format, imaging.JPEGQuality(quality))
	case imaging.GIF:
		if o, ok := img.(opaquer); ok && !o.Opaque() {
			img = transparentPaletted(img)
		}
		return imaging.Encode(w, img, format, imaging.GIFNumColors(256))
	default:
		return imaging.Encode(w, img, format)
	}
}

// saveImage encodes img to path. The parent directory must already exist.
func saveImage(img image.Image, path string, quality int) (err error) {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrImageWrite, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrImageWrite, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %v", ErrImageWrite, cerr)
		}
	}()

	if err := encodeImage(f, img, format, quality); err != nil {
		return fmt.Errorf("%w: %v", ErrImageWrite, err)
	}
	return nil
}

// transparentPaletted maps img onto Plan9 with index 0 reserved for
// transparency. Pixels below half alpha become transparent.
func transparentPaletted(img image.Image) *image.Paletted {
	opaque := color.Palette(palette.Plan9[:255])
	pal := append(color.Palette{color.Transparent}, opaque...)

	b := img.Bounds()
	out := image.NewPaletted(b, pal)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A < 0x80 {
				continue
			}
			c.A = 0xff
			out.SetColorIndex(x, y, uint8(1+opaque.Index(c)))
		}
	}
	return out
}
