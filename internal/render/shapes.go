package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/vector"
)

// Supersample is the scale rounded shapes are rasterized at before being reduced.
const Supersample = 5

// MarkerSize is the side of the star and half markers.
const MarkerSize = 24

// RoundedMask returns a w×h alpha mask of a rounded rectangle.
func RoundedMask(w, h, radius int) *image.Alpha {
	sw, sh, sr := float32(w*Supersample), float32(h*Supersample), float32(radius*Supersample)
	if sr > sw/2 {
		sr = sw / 2
	}
	if sr > sh/2 {
		sr = sh / 2
	}

	z := vector.NewRasterizer(w*Supersample, h*Supersample)
	// Quadratic corners with the control point on the square corner.
	z.MoveTo(sr, 0)
	z.LineTo(sw-sr, 0)
	z.QuadTo(sw, 0, sw, sr)
	z.LineTo(sw, sh-sr)
	z.QuadTo(sw, sh, sw-sr, sh)
	z.LineTo(sr, sh)
	z.QuadTo(0, sh, 0, sh-sr)
	z.LineTo(0, sr)
	z.QuadTo(0, 0, sr, 0)
	z.ClosePath()

	big := image.NewAlpha(z.Bounds())
	z.Draw(big, big.Bounds(), image.Opaque, image.Point{})

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(mask, mask.Bounds(), big, big.Bounds(), xdraw.Src, nil)
	return mask
}

// RoundedRect returns a w×h rounded rectangle filled with c on transparency.
func RoundedRect(w, h, radius int, c color.Color) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.DrawMask(out, out.Bounds(), image.NewUniform(c), image.Point{}, RoundedMask(w, h, radius), image.Point{}, draw.Src)
	return out
}

// ApplyMask returns src with its alpha multiplied by mask.
func ApplyMask(src image.Image, mask *image.Alpha) *image.RGBA {
	b := mask.Bounds()
	out := image.NewRGBA(b)
	draw.DrawMask(out, b, src, src.Bounds().Min, mask, b.Min, draw.Src)
	return out
}

// StarMarker draws a five-pointed star, used when no star icon is cached.
func StarMarker(size int) *image.RGBA {
	s := float32(size * Supersample)
	z := vector.NewRasterizer(int(s), int(s))
	cx, cy := s/2, s/2
	outer, inner := s*0.48, s*0.2
	for i := 0; i < 10; i++ {
		r := outer
		if i%2 == 1 {
			r = inner
		}
		a := -math.Pi/2 + float64(i)*math.Pi/5
		x, y := cx+r*float32(math.Cos(a)), cy+r*float32(math.Sin(a))
		if i == 0 {
			z.MoveTo(x, y)
		} else {
			z.LineTo(x, y)
		}
	}
	z.ClosePath()
	return downsample(z, size, Yellow)
}

// HalfMarker draws the upper-half marker: a downward triangle in a disc.
func HalfMarker(size int) *image.RGBA {
	s := float32(size * Supersample)
	disc := vector.NewRasterizer(int(s), int(s))
	circle(disc, s/2, s/2, s*0.48)
	out := downsample(disc, size, Orange)

	tri := vector.NewRasterizer(int(s), int(s))
	tri.MoveTo(s*0.28, s*0.3)
	tri.LineTo(s*0.72, s*0.3)
	tri.LineTo(s*0.5, s*0.62)
	tri.ClosePath()
	Paste(out, downsample(tri, size, BgDeep), image.Point{})
	return out
}

func circle(z *vector.Rasterizer, cx, cy, r float32) {
	const k = 0.5523 // cubic approximation of a quarter circle
	z.MoveTo(cx+r, cy)
	z.CubeTo(cx+r, cy+k*r, cx+k*r, cy+r, cx, cy+r)
	z.CubeTo(cx-k*r, cy+r, cx-r, cy+k*r, cx-r, cy)
	z.CubeTo(cx-r, cy-k*r, cx-k*r, cy-r, cx, cy-r)
	z.CubeTo(cx+k*r, cy-r, cx+r, cy-k*r, cx+r, cy)
	z.ClosePath()
}

func downsample(z *vector.Rasterizer, size int, c color.Color) *image.RGBA {
	big := image.NewAlpha(z.Bounds())
	z.Draw(big, big.Bounds(), image.Opaque, image.Point{})
	mask := image.NewAlpha(image.Rect(0, 0, size, size))
	xdraw.BiLinear.Scale(mask, mask.Bounds(), big, big.Bounds(), xdraw.Src, nil)

	out := image.NewRGBA(mask.Bounds())
	draw.DrawMask(out, out.Bounds(), image.NewUniform(c), image.Point{}, mask, image.Point{}, draw.Src)
	return out
}

// Placeholder draws a w×h swatch in bg with name centred, for icons that could not
// be downloaded.
func Placeholder(w, h int, bg color.Color, f font.Face, name string) *image.RGBA {
	out := NewCanvas(w, h, bg)
	y := int(float64(h)/2 - float64(CharHeight(f))/2)
	DrawText(out, f, float64(int(float64(w)/2-Width(f, name)/2)), y, name, White)
	return out
}
