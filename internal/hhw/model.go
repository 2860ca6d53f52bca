// Package hhw models the Honey Hunter World Spiral Abyss dataset: floors with their
// variants and chambers, and the schedule of variant arrangements and blessings.
//
// Raw upstream values are normalized once while decoding (HD icon URLs, Chinese
// condition and duration wording, actual monster levels) so renderers only read values.
package hhw

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Item is a reward, monster, or any other entry with an icon.
type Item struct {
	Icon   string `json:"Icon"`
	ID     int    `json:"Id"`
	Rarity int    `json:"Rarity"`
	Name   string `json:"Name"`
}

var iconSizeSuffixRe = regexp.MustCompile(`(\w+_\w?\d+)_\d+\.webp$`)

// hdIcon rewrites a thumbnail URL to its full-size variant.
func hdIcon(url string) string {
	return iconSizeSuffixRe.ReplaceAllString(url, "${1}.webp")
}

func (it *Item) UnmarshalJSON(data []byte) error {
	type plain Item
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*it = Item(p)
	it.Icon = hdIcon(it.Icon)
	return nil
}

// Reward is an item granted with a count.
type Reward struct {
	Item
	Count int `json:"Count"`
}

func (r *Reward) UnmarshalJSON(data []byte) error {
	var it Item
	if err := json.Unmarshal(data, &it); err != nil {
		return err
	}
	var c struct {
		Count int `json:"Count"`
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	*r = Reward{Item: it, Count: c.Count}
	return nil
}

// Buff durations, as shown to players.
const (
	DurationFloor     = "此层生效"
	DurationChamber   = "本间生效"
	DurationImmediate = "立即生效"
)

// BuffOption is one possible blessing granted between chambers.
type BuffOption struct {
	Icon     string `json:"Icon"`
	Effect   string `json:"Buff"`
	Duration string `json:"Time"`
}

func (b *BuffOption) UnmarshalJSON(data []byte) error {
	type plain BuffOption
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*b = BuffOption(p)
	switch b.Duration {
	case DurationFloor, DurationChamber, DurationImmediate:
	case "Whole Floor":
		b.Duration = DurationFloor
	case "Single Chamber":
		b.Duration = DurationChamber
	default:
		b.Duration = DurationImmediate
	}
	return nil
}

// Monsters lists the enemies of a chamber. SecondHalf is nil unless the chamber is split.
type Monsters struct {
	FirstHalf  []Item `json:"FirstHalf"`
	SecondHalf []Item `json:"SecondHalf"`
}

// Halves returns the non-empty halves in order.
func (m Monsters) Halves() [][]Item {
	var out [][]Item
	for _, half := range [][]Item{m.FirstHalf, m.SecondHalf} {
		if len(half) > 0 {
			out = append(out, half)
		}
	}
	return out
}

// Count returns the total number of monsters.
func (m Monsters) Count() int {
	return len(m.FirstHalf) + len(m.SecondHalf)
}

// Chamber is one room of a floor variant.
type Chamber struct {
	MonsterLevel int            `json:"MonsterLvlOverwrite"`
	Teams        int            `json:"Teams"`
	Conditions   []string       `json:"Conditions"`
	PossibleBuff [][]BuffOption `json:"PossibleBuff"`
	Monsters     Monsters       `json:"Monsters"`
	Reward       []Reward       `json:"Reward"`
}

var digitsRe = regexp.MustCompile(`\d+`)

func chineseCondition(cond string) string {
	n := digitsRe.FindString(cond)
	switch {
	case n == "":
		return cond
	case strings.HasSuffix(cond, "s"):
		return fmt.Sprintf("挑战剩余时间大于%s秒", n)
	case strings.HasSuffix(cond, "%"):
		return fmt.Sprintf("守护目标完整度大于%s%%", n)
	default:
		return cond
	}
}

func (c *Chamber) UnmarshalJSON(data []byte) error {
	type plain Chamber
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Chamber(p)
	for i, cond := range c.Conditions {
		c.Conditions[i] = chineseCondition(cond)
	}
	// Upstream stores the level one below the in-game value.
	c.MonsterLevel++
	return nil
}

// Variant is one arrangement of a floor.
type Variant struct {
	Icon         string     `json:"Icon"`
	MonsterLevel int        `json:"MonsterLvlGlobal"`
	Teams        int        `json:"Teams"`
	Unlock       int        `json:"Unlock"`
	Disorders    []string   `json:"Disorders"`
	Reward       [][]Reward `json:"Reward"`
	Chambers     []Chamber  `json:"Chambers"`
}

func (v *Variant) UnmarshalJSON(data []byte) error {
	type plain Variant
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*v = Variant(p)
	kept := v.Disorders[:0]
	for _, d := range v.Disorders {
		if strings.HasPrefix(d, "(test)") || strings.HasPrefix(d, "n/a") {
			continue
		}
		kept = append(kept, d)
	}
	v.Disorders = kept
	return nil
}

// Chamber returns the 1-based chamber, if present.
func (v Variant) Chamber(n int) (Chamber, bool) {
	if n < 1 || n > len(v.Chambers) {
		return Chamber{}, false
	}
	return v.Chambers[n-1], true
}

// flexInt accepts both 12 and "12".
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid integer %s: %w", data, err)
	}
	*f = flexInt(n)
	return nil
}

// Arrangement maps floors 9..12 to the variant used in a period.
type Arrangement map[int]int

func (a *Arrangement) UnmarshalJSON(data []byte) error {
	var raw map[string]flexInt
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Arrangement, len(raw))
	for k, v := range raw {
		floor, err := strconv.Atoi(k)
		if err != nil {
			return fmt.Errorf("invalid floor %q in arrangement: %w", k, err)
		}
		out[floor] = int(v)
	}
	*a = out
	return nil
}

// Blessing is the period-wide Abyssal Moon blessing.
type Blessing struct {
	Icon           string `json:"Icon"`
	Name           string `json:"Name"`
	Detail         string `json:"Detail"`
	ColorfulDetail string `json:"ColorfulDetail"`
}

// ScheduleItem is the content of one period.
type ScheduleItem struct {
	Arrangement Arrangement `json:"arrangement"`
	Blessing    Blessing    `json:"blessing"`
}

// HighlightColor is the colour upstream uses for emphasised blessing text.
const HighlightColor = "#f39000ff"

// Segment is a piece of blessing text. Color is empty for default text.
type Segment struct {
	Text  string
	Color string
}

var (
	highlightRe = regexp.MustCompile(`<color=#f39000ff>(.+?)(，|。)`)
	colorTagRe  = regexp.MustCompile(`</?color=#f39000ff>`)
)

// Segments splits ColorfulDetail into plain and highlighted pieces.
// Line breaks and spaces are dropped; highlighted text ends at the first clause mark.
func (b Blessing) Segments() []Segment {
	raw := strings.NewReplacer("<br>", "", " ", "").Replace(b.ColorfulDetail)

	var out []Segment
	plain := func(s string) {
		s = colorTagRe.ReplaceAllString(s, "")
		if s == "" {
			return
		}
		if n := len(out); n > 0 && out[n-1].Color == "" {
			out[n-1].Text += s
			return
		}
		out = append(out, Segment{Text: s})
	}

	last := 0
	for _, m := range highlightRe.FindAllStringSubmatchIndex(raw, -1) {
		plain(raw[last:m[0]])
		out = append(out, Segment{Text: colorTagRe.ReplaceAllString(raw[m[2]:m[3]], ""), Color: HighlightColor})
		plain(raw[m[4]:m[5]])
		last = m[1]
	}
	plain(raw[last:])
	return out
}
