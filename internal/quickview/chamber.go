package quickview

import (
	"context"
	"fmt"
	"image"
	"strconv"

	"gsabyss/internal/hhw"
	"gsabyss/internal/logging"
	"gsabyss/internal/render"
	"gsabyss/internal/store"

	"golang.org/x/sync/errgroup"
)

// Icon categories in the asset cache.
const (
	CategoryReward  = "reward"
	CategoryMonster = "monster"
)

// Chamber geometry.
const (
	topHeight     = 165
	sectionTop    = 65 // first row under a section label
	rewardPitch   = 60
	monsterRow    = 50
	monsterBox    = 40
	buffLineStart = 95
	buffMaxWidth  = buffLineStart + 550
)

// icons maps an icon request to the file it was saved as.
type icons map[store.IconRequest]string

func iconRequests(ch hhw.Chamber) []store.IconRequest {
	var reqs []store.IconRequest
	for _, r := range ch.Reward {
		reqs = append(reqs, store.IconRequest{URL: r.Icon, Category: CategoryReward, Name: r.Name})
	}
	for _, half := range ch.Monsters.Halves() {
		for _, m := range half {
			reqs = append(reqs, store.IconRequest{URL: m.Icon, Category: CategoryMonster, Name: m.Name})
		}
	}
	return reqs
}

// load returns the cached icon for it, or nil when it could not be downloaded or
// decoded.
func (ic icons) load(category string, it hhw.Item) *image.RGBA {
	path, ok := ic[store.IconRequest{URL: it.Icon, Category: category, Name: it.Name}]
	if !ok {
		return nil
	}
	img, err := store.LoadImage(path)
	if err != nil {
		logging.RenderWarn("Icon %s unreadable: %v", path, err)
		return nil
	}
	return img
}

// initial is what a placeholder shows in place of an icon.
func initial(name string) string {
	for _, r := range name {
		return string(r)
	}
	return "?"
}

// chamber downloads the chamber's icons, then draws its three parts concurrently and
// stacks them.
func (d *Drawer) chamber(ctx context.Context, floor int, ch numberedChamber) (*image.RGBA, error) {
	var ic icons
	if d.icons != nil {
		ic = d.icons.Prefetch(ctx, iconRequests(ch.data))
	}

	parts := make([]*image.RGBA, 3)
	var eg errgroup.Group
	eg.Go(func() error {
		img, err := d.withFaces(func(f *render.Faces) *image.RGBA {
			return chamberTop(f, d.theme, fmt.Sprintf("%d-%d", floor, ch.number), ch.data.Conditions, ch.data.Reward, ic)
		})
		parts[0] = img
		return err
	})
	eg.Go(func() error {
		img, err := d.withFaces(func(f *render.Faces) *image.RGBA {
			return chamberMiddle(f, d.theme, ch.data.MonsterLevel, ch.data.Monsters, ic)
		})
		parts[1] = img
		return err
	})
	eg.Go(func() error {
		img, err := d.withFaces(func(f *render.Faces) *image.RGBA {
			return chamberBottom(f, ch.data.PossibleBuff)
		})
		parts[2] = img
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	h := 0
	for _, p := range parts {
		h += p.Bounds().Dy()
	}
	out := render.NewCanvas(Width, h, nil)
	y := 0
	for _, p := range parts {
		render.Paste(out, p, image.Pt(0, y))
		y += p.Bounds().Dy()
	}
	return out, nil
}

// withFaces runs draw with a private set of faces.
func (d *Drawer) withFaces(draw func(*render.Faces) *image.RGBA) (*image.RGBA, error) {
	f, err := d.theme.NewFaces()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return draw(f), nil
}

// chamberTop draws the title watermark, the challenge conditions, and the rewards.
func chamberTop(f *render.Faces, theme *render.Theme, title string, conditions []string, rewards []hhw.Reward, ic icons) *image.RGBA {
	out := render.NewCanvas(Width, topHeight, render.BgColor)

	render.DrawText(out, f.Heavy64, Width-render.Width(f.Heavy64, title)-30, 10, title, render.Black)

	render.DrawText(out, f.Oblique24, 25, 25, "挑战目标", render.Yellow)
	render.FillRect(out, image.Rect(30, sectionTop, 350, topHeight), render.BgLight)
	for i, cond := range conditions {
		y := 73 + i*30
		render.Paste(out, theme.Star, image.Pt(43, y))
		ty := int(float64(y) + render.MarkerSize/2 - float64(render.TextBottom(f.Heavy20, cond))/2)
		render.DrawText(out, f.Heavy20, 80, ty, cond, render.White)
	}

	render.DrawText(out, f.Oblique24, 365, 55, "间之秘宝", render.Yellow)
	for i, r := range rewards {
		x := 370 + i*rewardPitch
		render.FillRect(out, image.Rect(x, 95, x+rewardPitch, 155), render.Rarity(r.Rarity))

		var icon *image.RGBA
		if img := ic.load(CategoryReward, r.Item); img != nil {
			icon = render.FitLonger(img, 50)
		} else {
			icon = render.Placeholder(50, 50, render.Rarity(r.Rarity), f.Heavy20, initial(r.Name))
		}
		ib := icon.Bounds()
		render.Paste(out, icon, image.Pt(x+render.Centered(rewardPitch, ib.Dx()), 95+render.Centered(rewardPitch, ib.Dy())))

		render.Paste(out, render.NewCanvas(rewardPitch, 20, render.BgCount), image.Pt(x, 145))
		count := strconv.Itoa(r.Count)
		cx := float64(x) + rewardPitch/2 - render.Width(f.Oblique16, count)/2
		render.DrawText(out, f.Oblique16, float64(int(cx)), 145+20-render.TextBottom(f.Oblique16, count)-2, count, render.White)
	}
	return out
}

// middleHeight is the height of the monster list for the given halves.
func middleHeight(halves [][]hhw.Item) int {
	h := 0
	for _, half := range halves {
		h += 30 + monsterRows(len(half))*monsterRow
	}
	return sectionTop + h - 20
}

func monsterRows(n int) int {
	return (n + 1) / 2
}

// chamberMiddle draws the monster list in two columns per half. Half markers are only
// drawn when the chamber is split; the lower marker is the upper one flipped.
func chamberMiddle(f *render.Faces, theme *render.Theme, level int, monsters hhw.Monsters, ic icons) *image.RGBA {
	halves := monsters.Halves()
	out := render.NewCanvas(Width, middleHeight(halves), render.BgColor)

	render.DrawText(out, f.Oblique24, 25, 25, "讨伐列表", render.Yellow)
	render.DrawText(out, f.Oblique16, 115, 25+8, fmt.Sprintf("敌人等级 Lv.%d", level), render.Brown)

	yAdd := 0
	for hi, half := range halves {
		bgH := monsterRows(len(half))*monsterRow + 10
		top := sectionTop + yAdd
		render.FillRect(out, image.Rect(30, top, 670, top+bgH), render.BgLight)

		if len(halves) == 2 {
			marker := theme.Half
			if hi == 1 {
				marker = render.FlipVertical(theme.Half)
			}
			render.Paste(out, marker, image.Pt(670-render.MarkerSize/2, top-render.MarkerSize/2))
		}

		for mi, m := range half {
			x := 40
			if mi%2 == 1 {
				x = 360
			}
			y := top + 10 + (mi/2)*monsterRow
			render.FillRect(out, image.Rect(x, y, x+monsterBox, y+monsterBox), render.Rarity(1))

			var icon *image.RGBA
			if img := ic.load(CategoryMonster, m); img != nil {
				icon = render.Resize(img, monsterBox-2, monsterBox-2)
			} else {
				icon = render.Placeholder(monsterBox-2, monsterBox-2, render.Rarity(1), f.Heavy16, initial(m.Name))
			}
			render.Paste(out, icon, image.Pt(x+1, y+1))

			ty := int(float64(y) + monsterBox/2 - float64(render.TextBottom(f.Heavy20, m.Name))/2)
			render.DrawText(out, f.Heavy20, float64(x+55), ty, m.Name, render.Yellow)
		}
		yAdd += bgH + 20
	}
	return out
}

// durationRunes is how many trailing characters of a buff line name its duration.
const durationRunes = 4

// buffLayout places every buff option and returns the glyphs, the group labels, and
// the y just past the last group.
func buffLayout(f *render.Faces, groups [][]hhw.BuffOption) (render.Flow, []render.Glyph, []render.Glyph, int) {
	fl := render.NewFlow(f, render.Size16)
	var glyphs, labels []render.Glyph

	y := sectionTop + 20
	for gi, buffs := range groups {
		labels = append(labels, render.Glyph{Text: fmt.Sprintf("#%d", gi+1), X: 50, Y: y - 2, Color: render.Orange})
		for _, b := range buffs {
			text := []rune(b.Effect + b.Duration)
			split := max(len(text)-durationRunes, 0)
			runs := []render.Run{
				{Text: string(text[:split]), Color: render.White},
				{Text: string(text[split:]), Color: render.Brown},
			}
			g, end := fl.Layout(runs, render.Cursor{X: buffLineStart, Y: y}, buffMaxWidth, buffLineStart)
			glyphs = append(glyphs, g...)
			y = end.Y + fl.LineHeight + 10
		}
		y += 10
	}
	return fl, glyphs, labels, y
}

// chamberBottom draws the numbered buff option groups and is cropped to the text it
// holds plus a 20px margin.
func chamberBottom(f *render.Faces, groups [][]hhw.BuffOption) *image.RGBA {
	fl, glyphs, labels, used := buffLayout(f, groups)

	options := 0
	for _, g := range groups {
		options += len(g)
	}
	panelBottom := min(sectionTop+80+options*50, used)

	out := render.NewCanvas(Width, used+20, render.BgColor)
	render.DrawText(out, f.Oblique24, 25, 25, "深秘降福", render.Yellow)
	render.FillRect(out, image.Rect(30, sectionTop, 670, panelBottom), render.BgLight)
	for _, l := range labels {
		render.DrawText(out, f.Heavy20, l.X, l.Y, l.Text, l.Color)
	}
	fl.Draw(out, glyphs, 0)
	return out
}
