package render

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"vitrina/internal/util"
)

// PriceFormatter renders amounts as "<symbol> <grouped number>" in a locale.
type PriceFormatter struct {
	printer      *message.Printer
	symbol       string
	leadingCode  *regexp.Regexp
	trailingCode *regexp.Regexp
}

func NewPriceFormatter(locale, currencyCode, symbol string) PriceFormatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Spanish
	}
	tokens := []string{}
	for _, t := range []string{currencyCode, symbol} {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, codeToken(t))
		}
	}
	alt := strings.Join(tokens, "|")
	if alt == "" {
		alt = `\$`
	}
	return PriceFormatter{
		printer:      message.NewPrinter(tag),
		symbol:       strings.TrimSpace(symbol),
		leadingCode:  regexp.MustCompile(`(?i)(?:\s*(?:` + alt + `))+\s*$`),
		trailingCode: regexp.MustCompile(`(?i)^(?:\s*(?:` + alt + `))+`),
	}
}

// codeToken matches t only as a whole word, so "COP" never eats the start of
// "copas".
func codeToken(t string) string {
	pattern := regexp.QuoteMeta(t)
	if isWordByte(t[0]) {
		pattern = `\b` + pattern
	}
	if isWordByte(t[len(t)-1]) {
		pattern += `\b`
	}
	return pattern
}

func isWordByte(b byte) bool {
	return b == '_' || '0' <= b && b <= '9' || 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z'
}

var defaultPrices = NewPriceFormatter("es-CO", "COP", "$")

// FormatPrice formats with the default Colombian peso formatter.
func FormatPrice(v any) string {
	return defaultPrices.Format(v)
}

// Format takes the first numeric run of v (a string or a number) and returns
// it as a currency amount, keeping the text around it minus any currency code
// or symbol touching the number. Input without digits yields "".
func (f PriceFormatter) Format(v any) string {
	var text string
	switch t := v.(type) {
	case string:
		text = t
	case json.Number:
		text = t.String()
	case float64:
		text = strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		text = strconv.Itoa(t)
	case int64:
		text = strconv.FormatInt(t, 10)
	default:
		return ""
	}

	span, ok := util.FindAmount(text)
	if !ok {
		return ""
	}

	prefix := strings.TrimSpace(f.leadingCode.ReplaceAllString(span.Prefix, ""))
	suffix := strings.TrimRight(f.trailingCode.ReplaceAllString(span.Suffix, ""), " ")

	amount := f.printer.Sprintf("%v", number.Decimal(span.Value, number.MaxFractionDigits(2)))
	if f.symbol != "" {
		amount = f.symbol + " " + amount
	}
	if prefix != "" {
		amount = prefix + " " + amount
	}
	return amount + suffix
}
