package watermark

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

const (
	// BuiltinFamily selects the fixed 7x13 bitmap face directly.
	BuiltinFamily = "builtin"
	DefaultFamily = "Arial"

	goRegularKey   = "\x00go-regular"
	fontCacheSize  = 32
	fontFileExtTTF = ".ttf"
	fontFileExtOTF = ".otf"
)

var errFontNotFound = errors.New("font not found")

// DefaultFontDirs lists the usual system font locations for the current OS.
func DefaultFontDirs() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{filepath.Join(os.Getenv("WINDIR"), "Fonts")}
	case "darwin":
		dirs := []string{"/Library/Fonts", "/System/Library/Fonts", "/System/Library/Fonts/Supplemental"}
		if home, err := os.UserHomeDir(); err == nil {
			dirs = append(dirs, filepath.Join(home, "Library", "Fonts"))
		}
		return dirs
	default:
		dirs := []string{"/usr/share/fonts", "/usr/local/share/fonts"}
		if home, err := os.UserHomeDir(); err == nil {
			dirs = append(dirs, filepath.Join(home, ".fonts"), filepath.Join(home, ".local", "share", "fonts"))
		}
		return dirs
	}
}

// FontLoader resolves font family names to faces. Lookup falls back from the
// requested family to the default family, then to the embedded Go Regular
// font, then to the built-in bitmap face, so it never fails.
type FontLoader struct {
	dirs          []string
	defaultFamily string
	cache         *lru.Cache[string, *opentype.Font]
	logger        *zap.Logger
}

func NewFontLoader(dirs []string, defaultFamily string, logger *zap.Logger) *FontLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, _ := lru.New[string, *opentype.Font](fontCacheSize)
	return &FontLoader{
		dirs:          dirs,
		defaultFamily: defaultFamily,
		cache:         cache,
		logger:        logger,
	}
}

// Face returns a face for family at size pixels.
func (l *FontLoader) Face(family string, size int) font.Face {
	if isBuiltin(family) {
		return basicfont.Face7x13
	}

	for _, name := range []string{family, l.defaultFamily} {
		if strings.TrimSpace(name) == "" || isBuiltin(name) {
			continue
		}
		f, err := l.load(name)
		if err != nil {
			l.logger.Debug("Font lookup failed", zap.String("family", name), zap.Error(err))
			continue
		}
		if face, err := newFace(f, size); err == nil {
			return face
		}
	}

	if f, err := l.goRegular(); err == nil {
		if face, err := newFace(f, size); err == nil {
			return face
		}
	}

	l.logger.Warn("Falling back to built-in bitmap font", zap.String("family", family))
	return basicfont.Face7x13
}

func newFace(f *opentype.Font, size int) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func isBuiltin(family string) bool {
	return strings.EqualFold(strings.TrimSpace(family), BuiltinFamily)
}

func (l *FontLoader) goRegular() (*opentype.Font, error) {
	if f, ok := l.cache.Get(goRegularKey); ok && f != nil {
		return f, nil
	}
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	l.cache.Add(goRegularKey, f)
	return f, nil
}

// load parses the font for family. Misses are cached as nil so directory
// walks happen once per family.
func (l *FontLoader) load(family string) (*opentype.Font, error) {
	key := strings.ToLower(strings.TrimSpace(family))
	if f, ok := l.cache.Get(key); ok {
		if f == nil {
			return nil, errFontNotFound
		}
		return f, nil
	}

	path := l.resolve(family)
	if path == "" {
		l.cache.Add(key, nil)
		return nil, errFontNotFound
	}

	data, err := os.ReadFile(path)
	if err != nil {
		l.cache.Add(key, nil)
		return nil, err
	}
	f, err := opentype.Parse(data)
	if err != nil {
		l.cache.Add(key, nil)
		return nil, err
	}

	l.cache.Add(key, f)
	return f, nil
}

// resolve maps a family to a font file: either family is itself a path, or a
// file named after it exists in one of the font directories.
func (l *FontLoader) resolve(family string) string {
	family = strings.TrimSpace(family)
	if info, err := os.Stat(family); err == nil && !info.IsDir() {
		return family
	}

	want := fontKey(family)
	candidates := map[string]bool{
		want:              true,
		want + "regular":  true,
		want + "-regular": true,
	}

	var found string
	for _, dir := range l.dirs {
		filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || found != "" {
				return fs.SkipDir
			}
			if d.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(path))
			if ext != fontFileExtTTF && ext != fontFileExtOTF {
				return nil
			}
			name := strings.ToLower(strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())))
			if candidates[strings.ReplaceAll(name, " ", "")] {
				found = path
				return fs.SkipAll
			}
			return nil
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func fontKey(family string) string {
	name := strings.ToLower(family)
	if ext := filepath.Ext(name); ext == fontFileExtTTF || ext == fontFileExtOTF {
		name = strings.TrimSuffix(name, ext)
	}
	return strings.ReplaceAll(name, " ", "")
}
