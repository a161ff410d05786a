package watermark

import (
	"image"
	"math"
)

const (
	// CornerPadding is the gap between a bottom-right watermark and the image edges.
	CornerPadding = 20
	// TileFallbackPad is used when the proportional tile spacing rounds to zero.
	TileFallbackPad = 10
	// RepeatPadding separates repeated text units.
	RepeatPadding = 50
	// LineGap separates sender and receiver lines in single mode.
	LineGap = 10

	tileSpacingFactor = 1.2
)

// Footprint scales a wmW x wmH watermark so its longer side equals
// round(min(baseW, baseH) * ratio). Neither side is ever below 1px.
func Footprint(baseW, baseH, wmW, wmH int, ratio float64) (int, int) {
	target := int(math.Round(float64(min(baseW, baseH)) * ratio))

	var fw, fh int
	if wmW > wmH {
		fw = target
		fh = int(float64(wmH) * float64(target) / float64(wmW))
	} else {
		fh = target
		fw = int(float64(wmW) * float64(target) / float64(max(wmH, 1)))
	}

	return max(1, fw), max(1, fh)
}

// BottomRight places a fw x fh footprint pad pixels from the bottom-right
// corner, clamped to the origin when it does not fit.
func BottomRight(baseW, baseH, fw, fh, pad int) image.Point {
	return image.Pt(max(0, baseW-fw-pad), max(0, baseH-fh-pad))
}

// TileSpacing returns the pattern step for a footprint: the footprint plus 20%.
func TileSpacing(fw, fh int) (int, int) {
	sx := int(float64(fw) * tileSpacingFactor)
	sy := int(float64(fh) * tileSpacingFactor)
	if sx <= 0 {
		sx = fw + TileFallbackPad
	}
	if sy <= 0 {
		sy = fh + TileFallbackPad
	}
	return sx, sy
}

// TileOrigins covers [0, w+sx) x [0, h+sy) so partial edge tiles are included.
func TileOrigins(w, h, sx, sy int) []image.Point {
	if sx <= 0 || sy <= 0 {
		return nil
	}
	var pts []image.Point
	for y := 0; y < h+sy; y += sy {
		for x := 0; x < w+sx; x += sx {
			pts = append(pts, image.Pt(x, y))
		}
	}
	return pts
}

// Grid is a centered repeat pattern for text units.
type Grid struct {
	StartX, StartY float64
	StepX, StepY   int
	Cols, Rows     int
}

// RepeatGrid lays out a unitW x unitH text unit over a w x h canvas with two
// extra repeats per axis so edges are always covered.
func RepeatGrid(w, h, unitW, unitH int) Grid {
	sx := unitW + RepeatPadding
	sy := unitH + RepeatPadding
	cols := w/sx + 2
	rows := h/sy + 2

	return Grid{
		StartX: float64(w-(cols*sx-RepeatPadding)) / 2,
		StartY: float64(h-(rows*sy-RepeatPadding)) / 2,
		StepX:  sx,
		StepY:  sy,
		Cols:   cols,
		Rows:   rows,
	}
}

// Origins returns the top-left corner of every unit, row by row.
func (g Grid) Origins() []image.Point {
	pts := make([]image.Point, 0, g.Cols*g.Rows)
	x0 := int(math.Round(g.StartX))
	y0 := int(math.Round(g.StartY))
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			pts = append(pts, image.Pt(x0+col*g.StepX, y0+row*g.StepY))
		}
	}
	return pts
}

// TextPixelSize derives the font size from image height so text scales with
// resolution.
func TextPixelSize(height int, ratio float64) int {
	return max(10, int(math.Round(float64(height)*ratio*0.1)))
}

// OutlineThickness is the stroke radius used for outlined text.
func OutlineThickness(pixelSize int) int {
	return max(1, int(math.Round(float64(pixelSize)*0.05)))
}
