package report

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/apsas/core"
)

// Normalize converts a value into what a cell of the given kind holds:
// float64 for numbers and percents (percents rounded to 2 decimals),
// a YYYY-MM-DD string for dates, a string for text. Missing values give nil.
func Normalize(kind Kind, v interface{}) interface{} {
	v = unwrapNull(v)
	if v == nil {
		return nil
	}
	switch kind {
	case Number:
		if f, ok := toFloat(v); ok {
			return f
		}
	case Percent:
		if f, ok := toFloat(v); ok {
			return math.Round(f*100) / 100
		}
	case Date:
		switch t := v.(type) {
		case time.Time:
			if t.IsZero() {
				return nil
			}
			return t.Format(core.DateLayout)
		case *time.Time:
			if t == nil || t.IsZero() {
				return nil
			}
			return t.Format(core.DateLayout)
		}
	}
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	}
	return fmt.Sprint(v)
}

func unwrapNull(v interface{}) interface{} {
	switch n := v.(type) {
	case null.Int:
		if !n.Valid {
			return nil
		}
		return n.Int
	case null.Float64:
		if !n.Valid {
			return nil
		}
		return n.Float64
	case null.String:
		if !n.Valid {
			return nil
		}
		return n.String
	case null.Time:
		if !n.Valid {
			return nil
		}
		return n.Time
	}
	return v
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, true
		}
		return n, true
	}
	return 0, false
}

const maxSheetName = 31

var sheetNameReplacer = strings.NewReplacer(
	":", " ", `\`, " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")",
)

// SheetName strips the characters spreadsheet sheet names cannot hold and
// truncates the result to 31 characters.
func SheetName(name string) string {
	name = strings.Join(strings.Fields(sheetNameReplacer.Replace(name)), " ")
	name = strings.Trim(name, "'")
	if name == "" {
		name = "Sheet"
	}
	return truncate(name, maxSheetName)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}

// sheetNamer hands out unique sheet names, case-insensitively.
type sheetNamer struct {
	used map[string]bool
}

func newSheetNamer() *sheetNamer {
	return &sheetNamer{used: make(map[string]bool)}
}

func (n *sheetNamer) next(name string) string {
	base := SheetName(name)
	candidate := base
	for i := 2; n.used[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		candidate = truncate(base, maxSheetName-utf8.RuneCountInString(suffix)) + suffix
	}
	n.used[strings.ToLower(candidate)] = true
	return candidate
}
