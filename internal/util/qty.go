package util

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	reDecimal    = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
	reGroupedDot = regexp.MustCompile(`^[+-]?\d{1,3}(\.\d{3}){2,}$`)
	reGroupedCom = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3}){2,}$`)
)

// ParseDecimal parses "1234.5", "1234,5", "1.234,5", "1,234.5" and "1 234,50"
// (NBSP and narrow NBSP included). A single separator is always a decimal
// separator; a repeated one is a thousands grouping.
func ParseDecimal(s string) (float64, bool) {
	compact := strings.NewReplacer(" ", "", "\u00A0", "", "\u202F", "", "\t", "", "'", "").Replace(strings.TrimSpace(s))
	if compact == "" {
		return 0, false
	}

	normalized := normalizeNumericToken(compact)
	if !reDecimal.MatchString(normalized) {
		return 0, false
	}
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// LenientFloat never fails: anything unparsable is 0.
func LenientFloat(s string) float64 {
	v, ok := ParseDecimal(s)
	if !ok {
		return 0
	}
	return v
}

func normalizeNumericToken(compact string) string {
	hasDot := strings.Contains(compact, ".")
	hasComma := strings.Contains(compact, ",")

	switch {
	case hasDot && hasComma:
		if strings.LastIndex(compact, ",") > strings.LastIndex(compact, ".") {
			return strings.ReplaceAll(strings.ReplaceAll(compact, ".", ""), ",", ".")
		}
		return strings.ReplaceAll(compact, ",", "")
	case reGroupedDot.MatchString(compact):
		return strings.ReplaceAll(compact, ".", "")
	case reGroupedCom.MatchString(compact):
		return strings.ReplaceAll(compact, ",", "")
	case hasComma:
		return strings.ReplaceAll(compact, ",", ".")
	default:
		return compact
	}
}

// Round rounds half away from zero.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// FormatFloat prints the shortest decimal that round-trips, always with a
// fractional part ("10" prints as "10.0").
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return s
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
