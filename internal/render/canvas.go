package render

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// NewCanvas returns a w×h canvas filled with bg.
func NewCanvas(w, h int, bg color.Color) *image.RGBA {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if bg != nil {
		draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	}
	return img
}

// FillRect replaces the pixels of r with c. r is half-open like image.Rectangle.
func FillRect(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r.Intersect(dst.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)
}

// BlendRect composites c over the pixels of r.
func BlendRect(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r.Intersect(dst.Bounds()), image.NewUniform(c), image.Point{}, draw.Over)
}

// Paste composites src over dst with src's top-left corner at at.
func Paste(dst draw.Image, src image.Image, at image.Point) {
	if src == nil {
		return
	}
	sb := src.Bounds()
	r := image.Rectangle{Min: at, Max: at.Add(sb.Size())}
	draw.Draw(dst, r, src, sb.Min, draw.Over)
}

// HLine draws a one-pixel horizontal line from x0 to x1 inclusive.
func HLine(dst draw.Image, x0, x1, y int, c color.Color) {
	FillRect(dst, image.Rect(x0, y, x1+1, y+1), c)
}

// Crop returns a copy of the top h rows of src.
func Crop(src *image.RGBA, h int) *image.RGBA {
	b := src.Bounds()
	if h > b.Dy() {
		h = b.Dy()
	}
	if h < 0 {
		h = 0
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), h))
	draw.Draw(out, out.Bounds(), src, b.Min, draw.Src)
	return out
}

// FlipVertical returns src upside down.
func FlipVertical(src image.Image) *image.RGBA {
	b := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Set(x, b.Dy()-1-y, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}

// Resize scales src to w×h.
func Resize(src image.Image, w, h int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(out, out.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return out
}

// FitLonger scales src so its longer side is n, keeping the aspect ratio.
func FitLonger(src image.Image, n int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	if w >= h {
		return Resize(src, n, h*n/w)
	}
	return Resize(src, w*n/h, n)
}

// Centered returns the offset that centres a size-long item in a span-long cell.
func Centered(span, size int) int {
	return (span - size) / 2
}

// =============================================================================
// TEXT
// =============================================================================

// Width returns the advance of s in pixels.
func Width(f font.Face, s string) float64 {
	return float64(font.MeasureString(f, s)) / 64
}

// TextBottom returns how far below the top of the line the ink of s reaches.
func TextBottom(f font.Face, s string) int {
	if s == "" {
		return 0
	}
	b, _ := font.BoundString(f, s)
	if b.Empty() {
		m := f.Metrics()
		return (m.Ascent + m.Descent).Ceil()
	}
	return (f.Metrics().Ascent + b.Max.Y).Ceil()
}

// CharHeight is the line height used for layout: the ink bottom of two tall CJK
// characters.
func CharHeight(f font.Face) int {
	return TextBottom(f, "高度")
}

// DrawText draws s with the top of its line at y.
func DrawText(dst draw.Image, f font.Face, x float64, y int, s string, c color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: f,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(x * 64),
			Y: fixed.I(y) + f.Metrics().Ascent,
		},
	}
	d.DrawString(s)
}

// DrawTextCentered draws s horizontally centred on cx.
func DrawTextCentered(dst draw.Image, f font.Face, cx float64, y int, s string, c color.Color) {
	DrawText(dst, f, float64(int(cx-Width(f, s)/2)), y, s, c)
}

// DrawTextRight draws s so that it ends at right.
func DrawTextRight(dst draw.Image, f font.Face, right float64, y int, s string, c color.Color) {
	DrawText(dst, f, right-Width(f, s), y, s, c)
}
