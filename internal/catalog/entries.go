package catalog

import (
	"encoding/json"
	"strings"

	"vitrina/internal"
)

// rawCategory is one element of a stored category list. Stored lists mix
// three shapes over the schema's history; each shape knows which of its
// fields can answer for the id, name, icon and description.
type rawCategory interface {
	fields() categoryFields
}

type categoryFields struct {
	ids          []string
	categories   []string
	names        []string
	icons        []string
	descriptions []string
}

// labelEntry is a bare category title such as "Ropa".
type labelEntry struct {
	label string
}

func (e labelEntry) fields() categoryFields {
	return categoryFields{names: []string{e.label}}
}

type objectEntry struct {
	obj *internal.Object
}

func (e objectEntry) fields() categoryFields {
	return categoryFields{
		ids:          fieldTexts(e.obj, "id"),
		categories:   fieldTexts(e.obj, "category"),
		names:        fieldTexts(e.obj, "name", "title", "label", "category"),
		icons:        fieldTexts(e.obj, "icon", "emoji"),
		descriptions: fieldTexts(e.obj, "description", "desc"),
	}
}

// malformedEntry stands for null, empty strings, arrays and anything else that
// carries no usable field. It still becomes a category with fallback values.
type malformedEntry struct{}

func (malformedEntry) fields() categoryFields {
	return categoryFields{}
}

func classifyEntry(v any) rawCategory {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return labelEntry{label: s}
		}
	case json.Number, float64, int:
		if s := asText(t); s != "" {
			return labelEntry{label: s}
		}
	default:
		if obj, ok := internal.AsObject(v); ok {
			return objectEntry{obj: obj}
		}
	}
	return malformedEntry{}
}
