package render

import (
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
)

// SizeClass selects one of the two body sizes text flows at.
type SizeClass int

const (
	Size20 SizeClass = 20
	Size16 SizeClass = 16
)

// Flow places text one symbol at a time, wrapping to a fixed line start whenever the
// next symbol would cross the right edge.
type Flow struct {
	Face       font.Face
	LineHeight int
	Spacing    int
}

// NewFlow returns the flow for a size class drawn with the heavy faces.
func NewFlow(f *Faces, size SizeClass) Flow {
	if size == Size16 {
		return Flow{Face: f.Heavy16, LineHeight: CharHeight(f.Heavy16), Spacing: 6}
	}
	return Flow{Face: f.Heavy20, LineHeight: CharHeight(f.Heavy20), Spacing: 10}
}

// Cursor is where the next symbol would be drawn.
type Cursor struct {
	X float64
	Y int
}

// Place positions one symbol. If it fits before maxWidth it is drawn at the cursor;
// otherwise it starts a new line at lineStartX, LineHeight+Spacing lower. next is the
// cursor just after the symbol.
func (fl Flow) Place(symbol string, c Cursor, maxWidth, lineStartX float64) (x float64, y int, next Cursor) {
	w := Width(fl.Face, symbol)
	if c.X+w <= maxWidth {
		return c.X, c.Y, Cursor{X: c.X + w, Y: c.Y}
	}
	y = c.Y + fl.LineHeight + fl.Spacing
	return lineStartX, y, Cursor{X: lineStartX + w, Y: y}
}

// Run is a piece of text in one colour. A nil Color draws in White.
type Run struct {
	Text  string
	Color color.Color
}

// Glyph is one placed symbol.
type Glyph struct {
	Text  string
	X     float64
	Y     int
	Color color.Color
}

// Layout places runs character by character starting at c and returns the glyphs
// and the cursor after the last one.
func (fl Flow) Layout(runs []Run, c Cursor, maxWidth, lineStartX float64) ([]Glyph, Cursor) {
	var glyphs []Glyph
	for _, run := range runs {
		col := run.Color
		if col == nil {
			col = White
		}
		for _, r := range run.Text {
			s := string(r)
			var x float64
			var y int
			x, y, c = fl.Place(s, c, maxWidth, lineStartX)
			glyphs = append(glyphs, Glyph{Text: s, X: x, Y: y, Color: col})
		}
	}
	return glyphs, c
}

// Draw renders glyphs placed by Layout, shifted down by dy.
func (fl Flow) Draw(dst draw.Image, glyphs []Glyph, dy int) {
	for _, g := range glyphs {
		DrawText(dst, fl.Face, g.X, g.Y+dy, g.Text, g.Color)
	}
}
