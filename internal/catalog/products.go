package catalog

import (
	"strings"

	"vitrina/internal"
	"vitrina/internal/util"
)

const (
	productIDPrefix  = "prod-"
	defaultProductID = "producto"
)

// coerceProduct reads only the known product fields, so inline image payloads
// (imageData, imageBase64) never survive.
func coerceProduct(v any) (internal.Product, bool) {
	if s, ok := v.(string); ok {
		name := strings.TrimSpace(s)
		if name == "" {
			return internal.Product{}, false
		}
		return internal.Product{ID: productIDFor(name), Name: name, Features: []string{}}, true
	}

	obj, ok := internal.AsObject(v)
	if !ok {
		return internal.Product{}, false
	}

	p := internal.Product{
		ID:        firstField(obj, "id"),
		Name:      firstField(obj, "name", "title"),
		ShortDesc: firstField(obj, "shortDesc", "shortDescription", "summary"),
		LongDesc:  firstField(obj, "longDesc", "longDescription", "description"),
		Price:     firstField(obj, "price", "precio"),
		Features:  coerceFeatures(valueOf(obj, "features", "caracteristicas")),
		Specs:     coerceSpecs(valueOf(obj, "specs", "specifications", "especificaciones")),
		Image:     firstField(obj, "image", "imageUrl", "img"),
		Icon:      firstField(obj, "icon", "emoji"),
	}
	if p.ID == "" {
		p.ID = productIDFor(p.Name)
	}
	return p, true
}

func productIDFor(name string) string {
	slug := util.SlugifyOr(name, "")
	if slug == "" {
		return defaultProductID
	}
	return productIDPrefix + slug
}

func coerceFeatures(v any) []string {
	out := []string{}
	if list, ok := asList(v); ok {
		for _, item := range list {
			if s := asText(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	for _, line := range util.SplitLines(asText(v)) {
		if item := strings.TrimSpace(strings.TrimLeft(line, "•-*")); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func coerceSpecs(v any) string {
	if list, ok := asList(v); ok {
		lines := make([]string, 0, len(list))
		for _, item := range list {
			if s := asText(item); s != "" {
				lines = append(lines, s)
			}
		}
		return strings.Join(lines, "\n")
	}
	if obj, ok := internal.AsObject(v); ok {
		lines := make([]string, 0, obj.Len())
		for _, key := range obj.Keys {
			if value := asText(obj.Values[key]); value != "" {
				lines = append(lines, key+": "+value)
			}
		}
		return strings.Join(lines, "\n")
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
	}
	return asText(v)
}
