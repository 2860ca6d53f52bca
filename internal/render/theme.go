// Package render holds the drawing primitives shared by the quick view and the
// statistics images: fonts, palette, canvas helpers, rounded shapes, and the
// character-by-character text flow.
package render

import (
	"fmt"
	"image"
	"os"

	"gsabyss/internal/logging"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/opentype"
)

// Theme holds parsed fonts and marker icons. It is immutable and shared by every
// request; faces are created per region with NewFaces.
type Theme struct {
	Heavy   *opentype.Font // titles and body text
	Oblique *opentype.Font // section labels and numbers
	Star    image.Image    // 24x24 condition marker
	Half    image.Image    // 24x24 upper-half marker
}

// ThemeFiles names the optional files a Theme is loaded from.
type ThemeFiles struct {
	Heavy   string
	Oblique string
	Star    string
	Half    string
}

// LoadTheme parses the given files. Missing or unreadable files fall back to the Go
// fonts and drawn markers, so a Theme is always usable.
func LoadTheme(files ThemeFiles) *Theme {
	t := DefaultTheme()
	if f, err := parseFontFile(files.Heavy); err == nil {
		t.Heavy = f
	} else if files.Heavy != "" {
		logging.RenderWarn("heavy font unavailable, using Go Bold: %v", err)
	}
	if f, err := parseFontFile(files.Oblique); err == nil {
		t.Oblique = f
	} else if files.Oblique != "" {
		logging.RenderWarn("oblique font unavailable, using Go Italic: %v", err)
	}
	if img, err := loadMarker(files.Star); err == nil {
		t.Star = img
	}
	if img, err := loadMarker(files.Half); err == nil {
		t.Half = img
	}
	return t
}

// DefaultTheme uses the Go fonts and drawn markers only.
func DefaultTheme() *Theme {
	heavy, err := opentype.Parse(gobold.TTF)
	if err != nil {
		panic(fmt.Sprintf("parse embedded font: %v", err))
	}
	oblique, err := opentype.Parse(goitalic.TTF)
	if err != nil {
		panic(fmt.Sprintf("parse embedded font: %v", err))
	}
	return &Theme{
		Heavy:   heavy,
		Oblique: oblique,
		Star:    StarMarker(MarkerSize),
		Half:    HalfMarker(MarkerSize),
	}
}

func parseFontFile(path string) (*opentype.Font, error) {
	if path == "" {
		return nil, os.ErrNotExist
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return opentype.Parse(data)
}

func loadMarker(path string) (image.Image, error) {
	if path == "" {
		return nil, os.ErrNotExist
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return Resize(img, MarkerSize, MarkerSize), nil
}

// Faces are the sized faces one region draws with. Faces cache glyphs and must not
// be shared between goroutines.
type Faces struct {
	Heavy64   font.Face
	Heavy32   font.Face
	Heavy20   font.Face
	Heavy16   font.Face
	Oblique24 font.Face
	Oblique16 font.Face
}

// NewFaces creates a fresh set of faces.
func (t *Theme) NewFaces() (*Faces, error) {
	var f Faces
	var err error
	sizes := []struct {
		dst  *font.Face
		src  *opentype.Font
		size float64
	}{
		{&f.Heavy64, t.Heavy, 64},
		{&f.Heavy32, t.Heavy, 32},
		{&f.Heavy20, t.Heavy, 20},
		{&f.Heavy16, t.Heavy, 16},
		{&f.Oblique24, t.Oblique, 24},
		{&f.Oblique16, t.Oblique, 16},
	}
	for _, s := range sizes {
		*s.dst, err = opentype.NewFace(s.src, &opentype.FaceOptions{
			Size:    s.size,
			DPI:     72,
			Hinting: font.HintingNone,
		})
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("create %.0fpx face: %w", s.size, err)
		}
	}
	return &f, nil
}

// MustFaces is NewFaces for callers that hold a Theme built by LoadTheme or
// DefaultTheme, whose fonts are already known to parse.
func (t *Theme) MustFaces() *Faces {
	f, err := t.NewFaces()
	if err != nil {
		panic(err)
	}
	return f
}

// Close releases the faces.
func (f *Faces) Close() {
	for _, face := range []font.Face{f.Heavy64, f.Heavy32, f.Heavy20, f.Heavy16, f.Oblique24, f.Oblique16} {
		if face != nil {
			face.Close()
		}
	}
}
