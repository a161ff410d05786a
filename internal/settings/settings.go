package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/phambaophuc/image-watermark/internal/models"
	"github.com/spf13/cast"
)

const DefaultFile = "watermarker_config.txt"

const (
	KeyInputFolder    = "input_folder"
	KeyOutputFolder   = "output_folder"
	KeyKind           = "selected_watermark_type"
	KeyWatermarkImage = "watermark_image"
	KeyPlacement      = "placement"
	KeySenderText     = "sender_text"
	KeyReceiverText   = "receiver_text"
	KeyFontFamily     = "text_font_family"
	KeyFontSize       = "text_font_size"
	KeyTextColor      = "text_color"
	KeyOutlineColor   = "outline_color"
	KeyOutline        = "outline_enabled"
	KeyRepeat         = "repetition_enabled"
	KeySize           = "watermark_size"
	KeyOpacity        = "watermark_opacity"

	// keyLegacyText is the single text field of older settings files.
	keyLegacyText = "watermark_text"
)

var ErrInvalidSetting = errors.New("invalid setting")

// Settings is the persisted form of a job. Size and opacity are percentages
// in [0, 100].
type Settings struct {
	InputFolder    string
	OutputFolder   string
	Kind           models.Kind
	WatermarkImage string
	Placement      models.Placement
	SenderText     string
	ReceiverText   string
	FontFamily     string
	FontSize       int
	TextColor      models.RGB
	OutlineColor   models.RGB
	Outline        bool
	Repeat         bool
	SizePercent    float64
	OpacityPercent float64
}

func Defaults() Settings {
	return Settings{
		Kind:           models.KindImage,
		Placement:      models.PlacementBottomRight,
		FontFamily:     "Arial",
		FontSize:       24,
		SizePercent:    15,
		OpacityPercent: 50,
	}
}

// Load reads path. A missing file yields Defaults.
func Load(path string) (Settings, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Defaults(), nil
		}
		return Defaults(), fmt.Errorf("failed to read settings: %w", err)
	}
	return FromMap(values)
}

// Save writes s to path, replacing any previous content.
func Save(path string, s Settings) error {
	if err := godotenv.Write(s.ToMap(), path); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// FromMap applies recognised keys on top of Defaults. Unknown keys are
// ignored.
func FromMap(values map[string]string) (Settings, error) {
	s := Defaults()
	var err error

	for key, raw := range values {
		value := strings.TrimSpace(raw)
		switch key {
		case KeyInputFolder:
			s.InputFolder = value
		case KeyOutputFolder:
			s.OutputFolder = value
		case KeyKind:
			if value == string(models.KindText) {
				s.Kind = models.KindText
			} else {
				s.Kind = models.KindImage
			}
		case KeyWatermarkImage:
			s.WatermarkImage = value
		case KeyPlacement:
			if value != "" {
				s.Placement = models.Placement(value)
			}
		case KeySenderText:
			s.SenderText = raw
		case KeyReceiverText:
			s.ReceiverText = raw
		case KeyFontFamily:
			if value != "" {
				s.FontFamily = value
			}
		case KeyFontSize:
			s.FontSize, err = cast.ToIntE(value)
		case KeyTextColor:
			s.TextColor, err = models.ParseRGB(value)
		case KeyOutlineColor:
			s.OutlineColor, err = models.ParseRGB(value)
		case KeyOutline:
			s.Outline, err = cast.ToBoolE(value)
		case KeyRepeat:
			s.Repeat, err = cast.ToBoolE(value)
		case KeySize:
			s.SizePercent, err = percent(value)
		case KeyOpacity:
			s.OpacityPercent, err = percent(value)
		}
		if err != nil {
			return Defaults(), fmt.Errorf("%w %s=%q: %v", ErrInvalidSetting, key, raw, err)
		}
	}

	if legacy, ok := values[keyLegacyText]; ok && s.SenderText == "" {
		s.SenderText = legacy
	}
	return s, nil
}

func percent(value string) (float64, error) {
	v, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, err
	}
	if !(v >= 0 && v <= 100) {
		return 0, fmt.Errorf("%.2f outside [0,100]", v)
	}
	return v, nil
}

func (s Settings) ToMap() map[string]string {
	return map[string]string{
		KeyInputFolder:    s.InputFolder,
		KeyOutputFolder:   s.OutputFolder,
		KeyKind:           string(s.Kind),
		KeyWatermarkImage: s.WatermarkImage,
		KeyPlacement:      string(s.Placement),
		KeySenderText:     s.SenderText,
		KeyReceiverText:   s.ReceiverText,
		KeyFontFamily:     s.FontFamily,
		KeyFontSize:       cast.ToString(s.FontSize),
		KeyTextColor:      s.TextColor.Hex(),
		KeyOutlineColor:   s.OutlineColor.Hex(),
		KeyOutline:        cast.ToString(s.Outline),
		KeyRepeat:         cast.ToString(s.Repeat),
		KeySize:           cast.ToString(s.SizePercent),
		KeyOpacity:        cast.ToString(s.OpacityPercent),
	}
}

// JobSpec converts the stored percentages to ratios.
func (s Settings) JobSpec() models.JobSpec {
	spec := models.JobSpec{
		InputDir:  s.InputFolder,
		OutputDir: s.OutputFolder,
		Params: models.Params{
			Kind:         s.Kind,
			SizeRatio:    s.SizePercent / 100,
			OpacityRatio: s.OpacityPercent / 100,
		},
	}

	switch s.Kind {
	case models.KindImage:
		spec.WatermarkImagePath = s.WatermarkImage
		spec.Placement = s.Placement
	case models.KindText:
		spec.Text = &models.TextSpec{
			SenderText:   s.SenderText,
			ReceiverText: s.ReceiverText,
			FontFamily:   s.FontFamily,
			FontSizeHint: s.FontSize,
			Color:        s.TextColor,
			OutlineColor: s.OutlineColor,
			Outline:      s.Outline,
			Repeat:       s.Repeat,
		}
	}
	return spec
}
