package render

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette.
var (
	BgColor = color.NRGBA{0x3F, 0x44, 0x54, 0xFF}
	BgLight = color.NRGBA{0x48, 0x4D, 0x5C, 0xFF}
	BgDeep  = color.NRGBA{0x33, 0x36, 0x43, 0xFF}
	BgCount = color.NRGBA{74, 81, 101, 250}

	Yellow = color.NRGBA{0xCF, 0xBD, 0x93, 0xFF}
	Orange = color.NRGBA{0xE5, 0x94, 0x35, 0xFF}
	White  = color.NRGBA{0xEB, 0xE5, 0xD9, 0xFF}
	Black  = color.NRGBA{0x51, 0x54, 0x5C, 0xFF}
	Brown  = color.NRGBA{0xAB, 0x9F, 0x83, 0xFF}

	PosColor = color.NRGBA{0xF1, 0x41, 0x6C, 0xFF}
	PosBg    = color.NRGBA{0xFF, 0xF5, 0xF8, 0xFF}
	NegColor = color.NRGBA{0x50, 0xCD, 0x89, 0xFF}
	NegBg    = color.NRGBA{0xE8, 0xFF, 0xF3, 0xFF}
)

var rarityColors = [5]color.NRGBA{
	{0x81, 0x84, 0x86, 0xFF},
	{0x5A, 0x97, 0x7A, 0xFF},
	{0x59, 0x87, 0xAD, 0xFF},
	{0x94, 0x70, 0xBB, 0xFF},
	{0xC8, 0x7C, 0x24, 0xFF},
}

// Rarity returns the background colour for a 1..5 rarity. Out-of-range values are
// clamped.
func Rarity(r int) color.NRGBA {
	switch {
	case r < 1:
		r = 1
	case r > len(rarityColors):
		r = len(rarityColors)
	}
	return rarityColors[r-1]
}

// ParseHex parses #RRGGBB or #RRGGBBAA. Invalid input yields White.
func ParseHex(s string) color.NRGBA {
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	alpha := uint64(0xFF)
	switch len(s) {
	case 7:
	case 9:
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return White
		}
		alpha, s = a, s[:7]
	default:
		return White
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return White
	}
	r, g, b := c.RGB255()
	return color.NRGBA{r, g, b, uint8(alpha)}
}
