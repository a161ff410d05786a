package watermark

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

func TestFontLoader_Builtin(t *testing.T) {
	l := NewFontLoader(nil, DefaultFamily, nil)

	assert.Equal(t, basicfont.Face7x13, l.Face("builtin", 40))
	assert.Equal(t, basicfont.Face7x13, l.Face(" BUILTIN ", 12))
}

func TestFontLoader_FallsBackToGoRegular(t *testing.T) {
	l := NewFontLoader([]string{t.TempDir()}, "NoSuchDefault", nil)

	face := l.Face("Definitely Not A Font", 32)
	require.NotNil(t, face)
	_, isOpentype := face.(*opentype.Face)
	assert.True(t, isOpentype)
}

func TestFontLoader_ResolvesFamilyInFontDir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "truetype")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "Watermark Sans.ttf"), goregular.TTF, 0o644))

	l := NewFontLoader([]string{dir}, DefaultFamily, nil)

	assert.Equal(t, filepath.Join(sub, "Watermark Sans.ttf"), l.resolve("watermark sans"))
	assert.Equal(t, filepath.Join(sub, "Watermark Sans.ttf"), l.resolve("WatermarkSans.ttf"))
	assert.Empty(t, l.resolve("other"))

	f, err := l.load("Watermark Sans")
	require.NoError(t, err)
	assert.NotNil(t, f)
}

func TestFontLoader_DirectPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.ttf")
	require.NoError(t, os.WriteFile(path, goregular.TTF, 0o644))

	l := NewFontLoader(nil, DefaultFamily, nil)
	_, isOpentype := l.Face(path, 20).(*opentype.Face)
	assert.True(t, isOpentype)
}

func TestFontLoader_CachesMisses(t *testing.T) {
	dir := t.TempDir()
	l := NewFontLoader([]string{dir}, DefaultFamily, nil)

	_, err := l.load("late")
	assert.ErrorIs(t, err, errFontNotFound)

	// A font added after the first miss is not picked up again.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "late.ttf"), goregular.TTF, 0o644))
	_, err = l.load("late")
	assert.ErrorIs(t, err, errFontNotFound)
}

func TestFontLoader_CorruptFontFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.ttf"), []byte("not a font"), 0o644))

	l := NewFontLoader([]string{dir}, "", nil)
	face := l.Face("broken", 16)

	_, isOpentype := face.(*opentype.Face)
	assert.True(t, isOpentype, "embedded Go Regular is used")
}
