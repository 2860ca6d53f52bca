package quickview

import (
	"fmt"
	"image"
	"time"

	"gsabyss/internal/cycle"
	"gsabyss/internal/hhw"
	"gsabyss/internal/render"
)

// paragraphWidth is the width header paragraphs wrap at.
const paragraphWidth = 530

// blessingParagraph flows the colourful blessing text.
func blessingParagraph(f *render.Faces, b hhw.Blessing) *image.RGBA {
	fl := render.NewFlow(f, render.Size20)

	var runs []render.Run
	for _, seg := range b.Segments() {
		run := render.Run{Text: seg.Text}
		if seg.Color != "" {
			run.Color = render.ParseHex(seg.Color)
		}
		runs = append(runs, run)
	}
	glyphs, end := fl.Layout(runs, render.Cursor{}, paragraphWidth, 0)

	out := render.NewCanvas(paragraphWidth, end.Y+fl.LineHeight, render.BgDeep)
	fl.Draw(out, glyphs, 0)
	return out
}

// disorderParagraph flows the disorders, each starting on a new line.
func disorderParagraph(f *render.Faces, disorders []string) *image.RGBA {
	fl := render.NewFlow(f, render.Size20)

	var glyphs []render.Glyph
	c := render.Cursor{}
	for _, d := range disorders {
		g, end := fl.Layout([]render.Run{{Text: d}}, c, paragraphWidth, 0)
		glyphs = append(glyphs, g...)
		c = render.Cursor{X: 0, Y: end.Y + fl.LineHeight + fl.Spacing}
	}

	out := render.NewCanvas(paragraphWidth, max(c.Y-fl.Spacing, 0), render.BgDeep)
	fl.Draw(out, glyphs, 0)
	return out
}

func headerTitle(key time.Time, floor int) string {
	return fmt.Sprintf("%s   深渊速览 %d 层", cycle.Title(key), floor)
}

// header draws the title, the blessing, and the disorders.
func (d *Drawer) header(req *request) (*image.RGBA, error) {
	f, err := d.theme.NewFaces()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	title := headerTitle(req.key, req.floor)
	bls := blessingParagraph(f, req.blessing)
	dsd := disorderParagraph(f, req.variant.Disorders)

	titleH := render.CharHeight(f.Heavy32)
	labelH := render.CharHeight(f.Oblique24)
	titleX := float64(int((Width - render.Width(f.Heavy32, title)) / 2))

	var width, height int
	var titleY int
	var blsTitle, blsPara, dsdTitle, dsdPara image.Point
	if req.mode == Horizontal {
		width = Width * 3
		height = 40 + max(titleH, labelH*2+10, bls.Bounds().Dy(), dsd.Bounds().Dy())
		titleY = (height - titleH) / 2
		blsTitle = image.Pt(Width+30, (height-labelH*2-10)/2)
		blsPara = image.Pt(Width+140, (height-bls.Bounds().Dy())/2)
		dsdTitle = image.Pt(Width*2+30, (height-labelH)/2)
		dsdPara = image.Pt(Width*2+140, (height-dsd.Bounds().Dy())/2)
	} else {
		blsPerch := max(labelH*2+10, bls.Bounds().Dy())
		dsdPerch := max(labelH, dsd.Bounds().Dy())
		width = Width
		height = 20 + titleH + 20 + blsPerch + 20 + dsdPerch + 20
		titleY = 20
		blsTitle = image.Pt(30, 40+titleH+(blsPerch-labelH*2-10)/2)
		blsPara = image.Pt(140, 40+titleH+(blsPerch-bls.Bounds().Dy())/2)
		dsdTitle = image.Pt(30, 60+titleH+blsPerch+(dsdPerch-labelH)/2)
		dsdPara = image.Pt(140, 60+titleH+blsPerch+(dsdPerch-dsd.Bounds().Dy())/2)
	}

	out := render.NewCanvas(width, height, render.BgDeep)
	render.DrawText(out, f.Heavy32, titleX, titleY, title, render.Yellow)

	render.DrawText(out, f.Oblique24, float64(blsTitle.X), blsTitle.Y, "渊月祝福", render.Yellow)
	render.DrawText(out, f.Oblique24, float64(blsTitle.X), blsTitle.Y+labelH+10, req.blessing.Name, render.Yellow)
	render.Paste(out, bls, blsPara)

	if req.mode == Vertical {
		render.HLine(out, 25, Width-25, dsdPara.Y-9, render.BgCount)
	}
	render.DrawText(out, f.Oblique24, float64(dsdTitle.X), dsdTitle.Y, "地脉异常", render.Yellow)
	render.Paste(out, dsd, dsdPara)
	return out, nil
}
