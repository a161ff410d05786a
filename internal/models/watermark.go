package models

import (
	"fmt"
	"strconv"
	"strings"
)

type Kind string

const (
	KindImage Kind = "image"
	KindText  Kind = "text"
)

type Placement string

const (
	PlacementBottomRight Placement = "bottom-right"
	PlacementTile        Placement = "tile"
)

// RGB is an opaque color, written as #rrggbb in settings and requests.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseRGB accepts "#rrggbb", "rrggbb" or "r,g,b".
func ParseRGB(s string) (RGB, error) {
	s = strings.TrimSpace(s)
	if parts := strings.Split(s, ","); len(parts) == 3 {
		var out [3]uint8
		for i, p := range parts {
			v, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || v < 0 || v > 255 {
				return RGB{}, fmt.Errorf("invalid color component %q", p)
			}
			out[i] = uint8(v)
		}
		return RGB{out[0], out[1], out[2]}, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return RGB{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid color %q", s)
	}
	return RGB{uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
}

type TextSpec struct {
	SenderText   string `json:"sender_text"`
	ReceiverText string `json:"receiver_text"`
	FontFamily   string `json:"font_family"`
	FontSizeHint int    `json:"font_size_hint"`
	Color        RGB    `json:"color_rgb"`
	OutlineColor RGB    `json:"outline_color_rgb"`
	Outline      bool   `json:"outline_enabled"`
	Repeat       bool   `json:"repetition_enabled"`
}

// Lines returns the non-blank lines, sender first.
func (t *TextSpec) Lines() []string {
	if t == nil {
		return nil
	}
	var lines []string
	if strings.TrimSpace(t.SenderText) != "" {
		lines = append(lines, t.SenderText)
	}
	if strings.TrimSpace(t.ReceiverText) != "" {
		lines = append(lines, t.ReceiverText)
	}
	return lines
}

func (t *TextSpec) Blank() bool {
	return len(t.Lines()) == 0
}

// Params are the per-file watermark parameters shared by every file of a run.
type Params struct {
	Kind         Kind      `json:"watermark_kind"`
	SizeRatio    float64   `json:"size_ratio"`
	OpacityRatio float64   `json:"opacity_ratio"`
	Placement    Placement `json:"placement,omitempty"`
	Text         *TextSpec `json:"text,omitempty"`
}

func (p Params) Validate() error {
	if !(p.SizeRatio >= 0 && p.SizeRatio <= 1) {
		return fmt.Errorf("size ratio %.3f outside [0,1]", p.SizeRatio)
	}
	if !(p.OpacityRatio >= 0 && p.OpacityRatio <= 1) {
		return fmt.Errorf("opacity ratio %.3f outside [0,1]", p.OpacityRatio)
	}

	switch p.Kind {
	case KindImage:
		switch p.Placement {
		case "", PlacementBottomRight, PlacementTile:
		default:
			return fmt.Errorf("unknown placement %q", p.Placement)
		}
	case KindText:
		if p.Text.Blank() {
			return fmt.Errorf("sender and receiver text are both blank")
		}
	default:
		return fmt.Errorf("unknown watermark kind %q", p.Kind)
	}
	return nil
}

// JobSpec describes one batch run. WatermarkImageURL is downloaded when no
// local path is given.
type JobSpec struct {
	InputDir           string `json:"input_dir"`
	OutputDir          string `json:"output_dir"`
	WatermarkImagePath string `json:"watermark_image_path,omitempty"`
	WatermarkImageURL  string `json:"watermark_image_url,omitempty"`
	Params
}
