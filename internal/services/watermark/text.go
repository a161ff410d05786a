package watermark

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/phambaophuc/image-watermark/internal/models"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// TextRenderer rasterizes sender/receiver text onto a transparent layer.
type TextRenderer struct {
	fonts *FontLoader
}

func NewTextRenderer(fonts *FontLoader) *TextRenderer {
	return &TextRenderer{fonts: fonts}
}

// textRun is one string measured with a given face.
type textRun struct {
	text   string
	bounds fixed.Rectangle26_6
}

func measure(face font.Face, s string) textRun {
	b, _ := font.BoundString(face, s)
	return textRun{text: s, bounds: b}
}

func (r textRun) width() int {
	return (r.bounds.Max.X - r.bounds.Min.X).Ceil()
}

func (r textRun) height() int {
	return (r.bounds.Max.Y - r.bounds.Min.Y).Ceil()
}

// dot returns the baseline origin that puts the run's glyph box top-left at (x, y).
func (r textRun) dot(x, y float64) fixed.Point26_6 {
	return fixed.Point26_6{
		X: floatToFixed(x) - r.bounds.Min.X,
		Y: floatToFixed(y) - r.bounds.Min.Y,
	}
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}

// placement is a run drawn with its glyph box at (x, y).
type placement struct {
	run  textRun
	x, y float64
}

// Render draws spec onto a new w x h transparent layer. Opacity is baked into
// the layer's alpha. It returns nil when spec has no non-blank line.
func (t *TextRenderer) Render(w, h int, spec *models.TextSpec, sizeRatio, opacity float64) *image.NRGBA {
	lines := spec.Lines()
	if len(lines) == 0 {
		return nil
	}

	px := TextPixelSize(h, sizeRatio)
	face := t.fonts.Face(spec.FontFamily, px)

	var places []placement
	if spec.Repeat {
		places = repeatLayout(face, lines, w, h)
	} else {
		places = singleLayout(face, lines, w, h)
	}

	layer := image.NewNRGBA(image.Rect(0, 0, w, h))
	alpha := uint8(math.Round(255 * math.Max(0, math.Min(1, opacity))))
	fill := color.NRGBA{spec.Color.R, spec.Color.G, spec.Color.B, alpha}

	if !spec.Outline {
		for _, p := range places {
			drawRun(layer, face, p.run, p.run.dot(p.x, p.y), fill)
		}
		return layer
	}

	stroke := color.NRGBA{spec.OutlineColor.R, spec.OutlineColor.G, spec.OutlineColor.B, alpha}
	hollow := color.NRGBA{spec.Color.R, spec.Color.G, spec.Color.B, 0}
	th := OutlineThickness(px)
	for _, p := range places {
		for dx := -th; dx <= th; dx++ {
			for dy := -th; dy <= th; dy++ {
				if dx == 0 && dy == 0 {
					continue
				}
				drawRun(layer, face, p.run, p.run.dot(p.x+float64(dx), p.y+float64(dy)), stroke)
			}
		}
		drawRun(layer, face, p.run, p.run.dot(p.x, p.y), hollow)
	}
	return layer
}

// singleLayout stacks up to two lines, each centered horizontally, with the
// block centered vertically.
func singleLayout(face font.Face, lines []string, w, h int) []placement {
	runs := make([]textRun, len(lines))
	total := 0
	for i, line := range lines {
		runs[i] = measure(face, line)
		total += runs[i].height()
	}
	total += LineGap * (len(runs) - 1)

	y := float64(h-total) / 2
	places := make([]placement, 0, len(runs))
	for _, run := range runs {
		places = append(places, placement{
			run: run,
			x:   float64(w-run.width()) / 2,
			y:   y,
		})
		y += float64(run.height() + LineGap)
	}
	return places
}

// repeatLayout tiles the joined lines across the canvas.
func repeatLayout(face font.Face, lines []string, w, h int) []placement {
	run := measure(face, strings.Join(lines, " | "))
	grid := RepeatGrid(w, h, run.width(), run.height())

	places := make([]placement, 0, grid.Cols*grid.Rows)
	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.Cols; col++ {
			places = append(places, placement{
				run: run,
				x:   grid.StartX + float64(col*grid.StepX),
				y:   grid.StartY + float64(row*grid.StepY),
			})
		}
	}
	return places
}

// drawRun rasterizes run at dot. Each glyph's coverage moves the destination
// pixel toward ink, alpha included, so a zero-alpha ink erases what is under
// the glyph.
func drawRun(dst *image.NRGBA, face font.Face, run textRun, dot fixed.Point26_6, ink color.NRGBA) {
	prev := rune(-1)
	for _, c := range run.text {
		if prev >= 0 {
			dot.X += face.Kern(prev, c)
		}
		dr, mask, maskp, advance, ok := face.Glyph(dot, c)
		if ok {
			lerpMask(dst, dr, mask, maskp, ink)
		}
		dot.X += advance
		prev = c
	}
}

func lerpMask(dst *image.NRGBA, dr image.Rectangle, mask image.Image, maskp image.Point, ink color.NRGBA) {
	clipped := dr.Intersect(dst.Bounds())
	if clipped.Empty() {
		return
	}
	target := [4]float64{float64(ink.R), float64(ink.G), float64(ink.B), float64(ink.A)}

	for y := clipped.Min.Y; y < clipped.Max.Y; y++ {
		for x := clipped.Min.X; x < clipped.Max.X; x++ {
			_, _, _, ma := mask.At(maskp.X+x-dr.Min.X, maskp.Y+y-dr.Min.Y).RGBA()
			if ma == 0 {
				continue
			}
			i := dst.PixOffset(x, y)
			px := dst.Pix[i : i+4 : i+4]
			if ma == 0xffff {
				px[0], px[1], px[2], px[3] = ink.R, ink.G, ink.B, ink.A
				continue
			}
			cov := float64(ma) / 0xffff
			for c := 0; c < 4; c++ {
				v := float64(px[c])
				px[c] = clampByte(v + (target[c]-v)*cov)
			}
		}
	}
}

func clampByte(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}
