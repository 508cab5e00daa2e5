package game

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// Category identifies a categorical field. Its value is the record field name it decodes.
type Category string

const (
	CategoryStatus     Category = "status"
	CategoryPriority   Category = "priority"
	CategoryOwn        Category = "own"
	CategoryPhysDigi   Category = "phys_digi"
	CategoryRegion     Category = "region"
	CategoryRating     Category = "rating"
	CategoryDifficulty Category = "difficulty"
)

var categories = []Category{
	CategoryStatus,
	CategoryPriority,
	CategoryOwn,
	CategoryPhysDigi,
	CategoryRegion,
	CategoryRating,
	CategoryDifficulty,
}

var labels = map[Category]map[int64]string{
	CategoryStatus: {
		10: "Unplayed",
		20: "Unfinished",
		30: "Beaten",
		40: "Completed",
		60: "Endless",
		80: "None",
	},
	CategoryPriority: {
		10: "Shelved",
		20: "Replay",
		30: "Low",
		40: "Normal",
		50: "High",
		60: "Paused",
		70: "Ongoing",
		80: "Now Playing",
	},
	CategoryOwn: {
		0: "",
		1: "Own",
		2: "Formerly Owned",
		3: "Played It",
		4: "Other",
		5: "Household",
		6: "Subscription",
		7: "Wishlist",
	},
	CategoryPhysDigi: {
		0:  "",
		1:  "Digital",
		20: "Physical",
		21: "Physical (Game Only)",
		22: "Physical (Incomplete)",
		28: "Physical (Complete In Box)",
		29: "Physical (Sealed)",
		30: "Physical (Licensed Repro)",
		31: "Physical (Unlicensed Repro)",
	},
	CategoryRegion: {
		0: "",
		1: "Free",
		2: "North America",
		3: "Japan",
		4: "PAL",
		5: "China",
		6: "Korea",
		7: "Brazil",
		8: "Asia",
	},
	CategoryRating: {
		1:  "0.5 Stars",
		2:  "1.0 Star",
		3:  "1.5 Stars",
		4:  "2.0 Stars",
		5:  "2.5 Stars",
		6:  "3.0 Stars",
		7:  "3.5 Stars",
		8:  "4.0 Stars",
		9:  "4.5 Stars",
		10: "5.0 Stars",
	},
	CategoryDifficulty: {
		0:  "",
		10: "Too Easy",
		20: "Relaxing",
		30: "Moderate",
		40: "Hurts So Good",
		50: "Too Hard",
		60: "Unfair",
	},
}

// Categories returns the categorical fields in declaration order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// IsCategorical reports whether the named field is decoded through a label table.
func IsCategorical(field string) bool {
	_, ok := labels[Category(field)]
	return ok
}

// Label returns the canonical label for code, or "" when the code is not listed.
func Label(cat Category, code int64) string {
	return labels[cat][code]
}

// Codes returns the listed codes of a category in ascending order.
func Codes(cat Category) []int64 {
	table := labels[cat]
	codes := make([]int64, 0, len(table))
	for code := range table {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// Decode renders a raw categorical value. Booleans decode as codes 0 and 1.
// Null and non-integer values decode to "".
func Decode(cat Category, v Value) string {
	code, ok := codeOf(v)
	if !ok {
		return ""
	}
	return Label(cat, code)
}

// codeOf extracts an integer code from a value as the service may send it.
func codeOf(v Value) (int64, bool) {
	switch v.Kind() {
	case KindInt:
		return v.Int(), true
	case KindFloat:
		f := v.Float()
		if f != math.Trunc(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
			return 0, false
		}
		return int64(f), true
	case KindString:
		code, err := strconv.ParseInt(strings.TrimSpace(v.Str()), 10, 64)
		if err != nil {
			return 0, false
		}
		return code, true
	case KindBool:
		if v.Bool() {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
