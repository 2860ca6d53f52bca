// Package query turns quick-view command text into a structured Query.
//
// The command text is split on whitespace and every token is matched against an ordered
// list of rules. The first rule that matches a token wins; tokens no rule matches are
// ignored. Later tokens overwrite fields set by earlier ones.
package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gsabyss/internal/cycle"
	"gsabyss/internal/logging"

	"golang.org/x/text/width"
)

const (
	DefaultFloor = 12
	MaxFloor     = 12
	MaxChamber   = 3
)

// Query selects what the quick view renders.
type Query struct {
	Floor   int       // 1..12
	Chamber int       // 0 = all chambers, otherwise 1..3
	Key     time.Time // schedule key, always canonical
}

// AllChambers reports whether every chamber of the floor is requested.
func (q Query) AllChambers() bool {
	return q.Chamber == 0
}

// ScheduleKey returns the key in the dataset's textual form.
func (q Query) ScheduleKey() string {
	return cycle.Format(q.Key)
}

func (q Query) String() string {
	return fmt.Sprintf("floor=%d chamber=%d key=%s", q.Floor, q.Chamber, q.ScheduleKey())
}

// update is the partial result of one matched token. Zero fields are unset.
type update struct {
	floor   int
	chamber int
	period  cycle.Period
	key     time.Time
}

type rule struct {
	name  string
	match func(token string, now time.Time) (update, bool)
}

var (
	floorDigitsRe  = regexp.MustCompile(`^第?(\d+)层?$`)
	floorWordRe    = regexp.MustCompile(`^第?(` + numeralPattern + `)层?$`)
	floorChamberRe = regexp.MustCompile(`^(1[0-2]|[1-9])[-_—－]([1-3])$`)
	monthHalfRe    = regexp.MustCompile(`^(\d{4}|\d{2})?年?(1[0-2]|[1-9]|` + numeralPattern + `)月(上|下)`)
)

// rules in priority order.
var rules = []rule{
	{name: "floor", match: matchFloorDigits},
	{name: "floor-word", match: matchFloorWord},
	{name: "floor-chamber", match: matchFloorChamber},
	{name: "relative-period", match: matchRelativePeriod},
	{name: "month-half", match: matchMonthHalf},
}

func matchFloorDigits(token string, _ time.Time) (update, bool) {
	m := floorDigitsRe.FindStringSubmatch(token)
	if m == nil {
		return update{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > MaxFloor {
		return update{}, false
	}
	return update{floor: n}, true
}

func matchFloorWord(token string, _ time.Time) (update, bool) {
	m := floorWordRe.FindStringSubmatch(token)
	if m == nil {
		return update{}, false
	}
	return update{floor: numeralWords[m[1]]}, true
}

func matchFloorChamber(token string, _ time.Time) (update, bool) {
	m := floorChamberRe.FindStringSubmatch(token)
	if m == nil {
		return update{}, false
	}
	floor, _ := strconv.Atoi(m[1])
	chamber, _ := strconv.Atoi(m[2])
	return update{floor: floor, chamber: chamber}, true
}

func matchRelativePeriod(token string, _ time.Time) (update, bool) {
	switch token {
	case "上期":
		return update{period: cycle.Last}, true
	case "下期":
		return update{period: cycle.Next}, true
	}
	return update{}, false
}

func matchMonthHalf(token string, now time.Time) (update, bool) {
	m := monthHalfRe.FindStringSubmatch(token)
	if m == nil {
		return update{}, false
	}

	year := now.In(cycle.Zone).Year()
	switch len(m[1]) {
	case 2:
		yy, _ := strconv.Atoi(m[1])
		year = 2000 + yy
	case 4:
		year, _ = strconv.Atoi(m[1])
	}

	month, ok := numeralWords[m[2]]
	if !ok {
		month, _ = strconv.Atoi(m[2])
	}

	return update{key: cycle.Month(year, time.Month(month), m[3] == "下")}, true
}

// Parser parses command text against a clock.
type Parser struct {
	now func() time.Time
}

// NewParser returns a parser that resolves relative periods against now.
// A nil clock means time.Now.
func NewParser(now func() time.Time) *Parser {
	if now == nil {
		now = time.Now
	}
	return &Parser{now: now}
}

var defaultParser = NewParser(nil)

// Parse parses input with the wall clock.
func Parse(input string) Query {
	return defaultParser.Parse(input)
}

// Parse never fails: with no matching token the result is the current period's floor 12,
// all chambers.
func (p *Parser) Parse(input string) Query {
	now := p.now()

	q := Query{Floor: DefaultFloor}
	period := cycle.Now
	var absolute time.Time

	for _, raw := range strings.Fields(input) {
		token := width.Narrow.String(raw)
		for _, r := range rules {
			u, ok := r.match(token, now)
			if !ok {
				continue
			}
			logging.QueryDebug("token %q matched rule %s", raw, r.name)
			if u.floor != 0 {
				q.Floor = u.floor
			}
			if u.chamber != 0 {
				q.Chamber = u.chamber
			}
			if u.period != "" {
				period, absolute = u.period, time.Time{}
			}
			if !u.key.IsZero() {
				absolute = u.key
			}
			break
		}
	}

	if absolute.IsZero() {
		q.Key = cycle.KeyFor(period, now)
	} else {
		q.Key = absolute
	}
	return q
}
