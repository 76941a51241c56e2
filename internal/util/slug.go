package util

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const DefaultSlug = "categoria"

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify never fails; text without any usable character becomes DefaultSlug.
func Slugify(text string) string {
	return SlugifyOr(text, DefaultSlug)
}

func SlugifyOr(text, fallback string) string {
	folded, _, err := transform.String(stripMarks, text)
	if err != nil {
		folded = text
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	pendingHyphen := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	if b.Len() == 0 {
		return fallback
	}
	return b.String()
}

// Uniquify appends -1, -2, ... to candidate until it is not in existing.
func Uniquify(candidate string, existing map[string]struct{}) string {
	if _, taken := existing[candidate]; !taken {
		return candidate
	}
	for n := 1; ; n++ {
		next := candidate + "-" + strconv.Itoa(n)
		if _, taken := existing[next]; !taken {
			return next
		}
	}
}

func IsSlug(s string) bool {
	return s != "" && Slugify(s) == s
}
