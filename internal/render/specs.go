package render

import "strings"

type Spec struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ParseSpecs keeps "Label: value" lines whose label and value are both
// non-empty; the value may itself contain colons.
func ParseSpecs(text string) []Spec {
	out := []Spec{}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		label = strings.TrimSpace(label)
		value = strings.TrimSpace(value)
		if label == "" || value == "" {
			continue
		}
		out = append(out, Spec{Label: label, Value: value})
	}
	return out
}
