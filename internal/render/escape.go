package render

import (
	"bytes"
	"encoding/json"
	"strings"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

var scriptEscaper = strings.NewReplacer(
	"<", `\u003c`,
	">", `\u003e`,
	"&", `\u0026`,
	"\u2028", `\u2028`,
	"\u2029", `\u2029`,
)

// ScriptJSON serialises v for embedding inside an inline <script> element.
// None of < > & U+2028 U+2029 survive literally, so the data can never close
// the element or break a JavaScript string.
func ScriptJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return scriptEscaper.Replace(strings.TrimRight(buf.String(), "\n")), nil
}

// safeURL keeps absolute http(s) URLs and site-relative paths only.
func safeURL(raw string) string {
	u := strings.TrimSpace(raw)
	lower := strings.ToLower(u)
	switch {
	case strings.HasPrefix(lower, "https://"), strings.HasPrefix(lower, "http://"):
		return u
	case strings.HasPrefix(u, "/") && !strings.HasPrefix(u, "//"):
		return u
	case strings.HasPrefix(u, "./"), strings.HasPrefix(u, "images/"):
		return u
	default:
		return ""
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
