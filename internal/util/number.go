package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	amountPattern = regexp.MustCompile(`\d{1,3}(?:[ \x{00A0}.,]\d{3})+(?:[.,]\d{1,2})?|\d+(?:[.,]\d+)?`)
	dotGrouped    = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)
	commaGrouped  = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)
)

// AmountSpan is the first numeric run found in a text, with the text around it.
type AmountSpan struct {
	Value  float64
	Raw    string
	Prefix string
	Suffix string
}

// FindAmount locates the first contiguous numeric run (grouping separators
// allowed). ok is false when the text holds no number.
func FindAmount(input string) (AmountSpan, bool) {
	loc := amountPattern.FindStringIndex(input)
	if loc == nil {
		return AmountSpan{}, false
	}
	raw := input[loc[0]:loc[1]]
	value, err := strconv.ParseFloat(normalizeNumericToken(raw), 64)
	if err != nil {
		return AmountSpan{}, false
	}
	return AmountSpan{Value: value, Raw: raw, Prefix: input[:loc[0]], Suffix: input[loc[1]:]}, true
}

// FindLastAmount is FindAmount for the last numeric run, where price lists
// put the price.
func FindLastAmount(input string) (AmountSpan, bool) {
	locs := amountPattern.FindAllStringIndex(input, -1)
	if len(locs) == 0 {
		return AmountSpan{}, false
	}
	loc := locs[len(locs)-1]
	raw := input[loc[0]:loc[1]]
	value, err := strconv.ParseFloat(normalizeNumericToken(raw), 64)
	if err != nil {
		return AmountSpan{}, false
	}
	return AmountSpan{Value: value, Raw: raw, Prefix: input[:loc[0]], Suffix: input[loc[1]:]}, true
}

func normalizeNumericToken(token string) string {
	compact := strings.NewReplacer(" ", "", "\u00a0", "").Replace(token)
	if dotGrouped.MatchString(compact) {
		return strings.ReplaceAll(compact, ".", "")
	}
	if commaGrouped.MatchString(compact) {
		return strings.ReplaceAll(compact, ",", "")
	}
	lastDot := strings.LastIndex(compact, ".")
	lastComma := strings.LastIndex(compact, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0 && lastComma > lastDot:
		// 1.234,50
		compact = strings.ReplaceAll(compact, ".", "")
		return strings.Replace(compact, ",", ".", 1)
	case lastDot >= 0 && lastComma >= 0:
		// 1,234.50
		return strings.ReplaceAll(compact, ",", "")
	case lastComma >= 0:
		return strings.Replace(compact, ",", ".", 1)
	}
	return compact
}
