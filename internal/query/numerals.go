package query

// numeralWords maps the Chinese numerals accepted for floors and months.
var numeralWords = map[string]int{
	"一":  1,
	"二":  2,
	"三":  3,
	"四":  4,
	"五":  5,
	"六":  6,
	"七":  7,
	"八":  8,
	"九":  9,
	"十":  10,
	"十一": 11,
	"十二": 12,
}

// numeralPattern lists compound words before their prefixes.
const numeralPattern = `十一|十二|一|二|三|四|五|六|七|八|九|十`
