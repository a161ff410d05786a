package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/phambaophuc/image-watermark/internal/config"
	"github.com/phambaophuc/image-watermark/internal/logger"
	"github.com/phambaophuc/image-watermark/internal/models"
	"github.com/phambaophuc/image-watermark/internal/services/batch"
	"github.com/phambaophuc/image-watermark/internal/services/watermark"
	"github.com/phambaophuc/image-watermark/internal/settings"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("watermark", flag.ContinueOnError)
	var (
		settingsPath = fs.String("settings", "", "key=value settings file loaded before the flags")
		saveSettings = fs.Bool("save-settings", false, "write the effective settings back to -settings (or "+settings.DefaultFile+")")
		quality      = fs.Int("quality", watermark.DefaultQuality, "JPEG quality 1-100")
		logLevel     = fs.String("log-level", "warn", "log level")
		fontDirs     = fs.String("font-dirs", "", "font directories, path-list separated (defaults to the system font dirs)")

		inputDir     = fs.String("in", "", "input directory")
		outputDir    = fs.String("out", "", "output directory (created if missing)")
		kind         = fs.String("kind", "", "watermark kind: image or text")
		size         = fs.Float64("size", 0, "watermark size, percent of the smaller image side")
		opacity      = fs.Float64("opacity", 0, "watermark opacity, percent")
		wmImage      = fs.String("watermark", "", "watermark image path (kind=image)")
		placement    = fs.String("placement", "", "image placement: bottom-right or tile")
		sender       = fs.String("sender", "", "sender line (kind=text)")
		receiver     = fs.String("receiver", "", "receiver line (kind=text)")
		font         = fs.String("font", "", "font family name or font file path")
		fontSize     = fs.Int("font-size", 0, "font size hint")
		textColor    = fs.String("color", "", "text color, #rrggbb or r,g,b")
		outlineColor = fs.String("outline-color", "", "outline color, #rrggbb or r,g,b")
		outline      = fs.Bool("outline", false, "draw text as an outline")
		repeat       = fs.Bool("repeat", false, "repeat the text over the whole image")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	s := settings.Defaults()
	if *settingsPath != "" {
		loaded, err := settings.Load(*settingsPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
		s = loaded
	}

	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "in":
			s.InputFolder = *inputDir
		case "out":
			s.OutputFolder = *outputDir
		case "kind":
			s.Kind = models.Kind(*kind)
		case "size":
			s.SizePercent = *size
		case "opacity":
			s.OpacityPercent = *opacity
		case "watermark":
			s.WatermarkImage = *wmImage
		case "placement":
			s.Placement = models.Placement(*placement)
		case "sender":
			s.SenderText = *sender
		case "receiver":
			s.ReceiverText = *receiver
		case "font":
			s.FontFamily = *font
		case "font-size":
			s.FontSize = *fontSize
		case "color":
			s.TextColor, flagErr = parseColor(f.Name, *textColor, flagErr)
		case "outline-color":
			s.OutlineColor, flagErr = parseColor(f.Name, *outlineColor, flagErr)
		case "outline":
			s.Outline = *outline
		case "repeat":
			s.Repeat = *repeat
		}
	})
	if flagErr != nil {
		fmt.Fprintln(os.Stderr, "Error:", flagErr)
		return 2
	}

	spec := s.JobSpec()
	if err := checkSpec(spec); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		fs.Usage()
		return 2
	}

	log, err := logger.New(config.LogConfig{Mode: "development", Level: *logLevel})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 2
	}
	defer log.Sync()

	if *saveSettings {
		path := *settingsPath
		if path == "" {
			path = settings.DefaultFile
		}
		if err := settings.Save(path, s); err != nil {
			log.Warn("Failed to save settings", zap.String("path", path), zap.Error(err))
		}
	}

	if err := os.MkdirAll(spec.OutputDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, "Error: cannot create output directory:", err)
		return 1
	}

	dirs := watermark.DefaultFontDirs()
	if *fontDirs != "" {
		dirs = splitList(*fontDirs)
	}
	fonts := watermark.NewFontLoader(dirs, watermark.DefaultFamily, log)
	engine := watermark.NewWatermarker(fonts, watermark.WithQuality(*quality), watermark.WithLogger(log))

	if spec.Kind == models.KindImage {
		if err := engine.LoadWatermarkImage(spec.WatermarkImagePath); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := batch.NewRunner(engine, log)
	result := runner.Run(ctx, spec, batch.SinkFuncs{
		Progress: func(message string) {
			fmt.Println(message)
		},
	})

	printSummary(result)
	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "Interrupted")
		return 1
	}
	if result.Total == 0 || result.Processed < result.Total {
		return 1
	}
	return 0
}

func parseColor(name, value string, prev error) (models.RGB, error) {
	c, err := models.ParseRGB(value)
	if err != nil {
		return c, errors.Join(prev, fmt.Errorf("-%s: %w", name, err))
	}
	return c, prev
}

func checkSpec(spec models.JobSpec) error {
	if spec.InputDir == "" {
		return errors.New("-in is required")
	}
	if spec.OutputDir == "" {
		return errors.New("-out is required")
	}
	if spec.Kind == models.KindImage && spec.WatermarkImagePath == "" {
		return errors.New("-watermark is required for image watermarks")
	}
	return spec.Validate()
}

func printSummary(result models.BatchResult) {
	fmt.Printf("Processed %d/%d images\n", result.Processed, result.Total)
	for _, e := range result.Errors {
		fmt.Println("  -", e)
	}
}
