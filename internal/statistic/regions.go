package statistic

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"gsabyss/internal/akasha"
	"gsabyss/internal/render"
)

const (
	iconSize   = 50
	iconRadius = 7
	maxRanked  = 30
	perRow     = 10
	maxTeams   = 5
)

// summaryItem is one line of the period summary.
type summaryItem struct {
	Label   string
	Value   string
	Delta   string
	Percent bool
}

func summaryItems(tv akasha.TotalView, lr akasha.LastRate) []summaryItem {
	return []summaryItem{
		{"人均获得渊星", tv.AvgStar.String(), lr.AvgStar.String(), false},
		{"平均战斗次数", tv.AvgBattleCount.String(), lr.AvgBattleCount.String(), false},
		{"满星战斗次数", tv.AvgMaxStarBattleCount.String(), lr.AvgMaxStarBattleCount.String(), false},
		{"通关比例", tv.PassRate.String(), lr.PassRate.String(), true},
		{"满星比例", tv.MaxStarRate.String(), lr.MaxStarRate.String(), true},
		{"一遍满星", tv.MaxStar12Rate.String(), lr.MaxStar12Rate.String(), true},
	}
}

// deltaText always carries a sign.
func deltaText(delta string) string {
	if strings.HasPrefix(delta, "-") {
		return delta
	}
	return "+" + delta
}

// deltaColors picks the badge colours: the positive pair for zero and up.
func deltaColors(delta string) (fg, bg color.NRGBA) {
	if akasha.Number(delta).Float() >= 0 {
		return render.PosColor, render.PosBg
	}
	return render.NegColor, render.NegBg
}

// usageText renders a usage rate the way the ranking always has, e.g. "80.0%".
func usageText(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s + "%"
}

func statisticTitle(desc string) string {
	r := []rune(desc)
	split := min(3, len(r))
	return fmt.Sprintf("%s %s 深渊统计", string(r[:split]), string(r[split:]))
}

// drawTop draws the title, the description, and six summary items with their change
// against the previous period.
func drawTop(f *render.Faces, data *akasha.Data) *image.RGBA {
	out := render.NewCanvas(Width, topHeight, render.BgDeep)

	title := statisticTitle(data.ScheduleVersionDesc)
	render.DrawText(out, f.Heavy32, float64(int((Width-render.Width(f.Heavy32, title))/2)), 20, title, render.Yellow)

	desc := fmt.Sprintf("虚空数据库出战人数 %d    更新时间 %s", data.TotalView.PersonWar, data.ModifyTime)
	render.DrawText(out, f.Oblique24, float64(int((Width-render.Width(f.Oblique24, desc))/2)), 70, desc, render.Orange)

	lineH := render.CharHeight(f.Heavy20)
	for i, it := range summaryItems(data.TotalView, data.LastRate) {
		startX, endX := 40.0, 330.0
		if i >= 3 {
			startX, endX = 370, Width-40
		}
		startY := 120 + 40*(i%3)
		render.DrawText(out, f.Oblique24, startX, startY, it.Label, render.Yellow)

		valueY := int(float64(startY) + 13 - float64(lineH)/2)
		value, delta := it.Value, it.Delta
		if it.Percent {
			value, delta = value+"%", delta+"%"
		}
		delta = deltaText(delta)
		fg, bg := deltaColors(it.Delta)

		dw := render.Width(f.Heavy20, delta)
		badge := render.RoundedRect(int(dw+10), 26, 5, bg)
		render.Paste(out, badge, image.Pt(int(endX-dw-10), startY))
		render.DrawText(out, f.Heavy20, endX-dw-5, valueY, delta, fg)
		render.DrawText(out, f.Heavy20, endX-dw-20-render.Width(f.Heavy20, value), valueY, value, render.White)
	}
	return out
}

// portrait returns a character's rounded icon, or a named swatch in the rarity colour.
func portrait(f *render.Faces, pics portraits, c akasha.Character) *image.RGBA {
	if img := pics.load(c); img != nil {
		return render.ApplyMask(render.Resize(img, iconSize, iconSize), render.RoundedMask(iconSize, iconSize, iconRadius))
	}
	bg := render.Rarity(4)
	if c.Rarity == 5 {
		bg = render.Rarity(5)
	}
	return render.Placeholder(iconSize, iconSize, bg, f.Heavy16, c.Name)
}

// drawMiddle draws the 30 most used characters, ten per row.
func drawMiddle(f *render.Faces, chars []akasha.Character, pics portraits) *image.RGBA {
	out := render.NewCanvas(Width, middleHeight, render.BgColor)
	render.DrawText(out, f.Oblique24, 20, 25, "第 12 层使用排行", render.Yellow)
	render.FillRect(out, image.Rect(20, 65, 681, middleHeight), render.BgLight)

	for i, c := range chars[:min(len(chars), maxRanked)] {
		x := 32 + 65*(i%perRow)
		y := 85 + 100*(i/perRow)
		render.Paste(out, portrait(f, pics, c), image.Pt(x, y))

		usage := usageText(c.Value)
		ux := float64(x) + iconSize/2 - render.Width(f.Oblique16, usage)/2
		render.DrawText(out, f.Oblique16, float64(int(ux)), y+59, usage, render.White)
	}
	return out
}

// drawBottom draws the five most used teams of each half side by side.
func drawBottom(f *render.Faces, theme *render.Theme, data *akasha.Data, pics portraits) *image.RGBA {
	out := render.NewCanvas(Width, bottomHeight, render.BgColor)
	render.DrawText(out, f.Oblique24, 20, 25, "第 12 层热门队伍", render.Yellow)

	groups := [][]akasha.Team{data.TeamsUp, data.TeamsDown}
	for gi, teams := range groups {
		gx, gy := 20, 65
		marker := theme.Half
		if gi == 1 {
			gx = 360
			marker = render.FlipVertical(theme.Half)
		}
		render.FillRect(out, image.Rect(gx, gy, gx+320, gy+510), render.BgLight)
		render.Paste(out, marker, image.Pt(gx+320-render.MarkerSize/2, gy-render.MarkerSize/2))

		for ti, team := range teams[:min(len(teams), maxTeams)] {
			tx := gx + 30
			ty := gy + 20 + 100*ti

			count, rate := team.UpCount, team.UpMaxStarRate
			if gi == 1 {
				count, rate = team.DownCount, team.DownMaxStarRate
			}
			render.DrawText(out, f.Heavy16, float64(tx+3), ty+59, "出场 "+count.String(), render.White)
			render.DrawTextRight(out, f.Heavy16, float64(tx+260-3), ty+59, "满星 "+rate.String()+"%", render.White)

			for ci, id := range team.AvatarIDs() {
				c, ok := data.Character(id)
				if !ok {
					c = akasha.Character{AvatarID: id, Name: "?", Rarity: 4}
				}
				render.Paste(out, portrait(f, pics, c), image.Pt(tx+70*ci, ty))
			}
		}
	}
	return out
}
