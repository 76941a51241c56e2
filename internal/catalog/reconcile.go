package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"vitrina/internal"
	"vitrina/internal/util"
)

type resolvedCategory struct {
	category   internal.Category
	originalID string
	// candidates holds every string the category was ever known by, final id
	// first, then the stored id, then the rest in discovery order.
	candidates []string
}

// Reconcile turns any raw catalog tree into a catalog where category ids are
// unique, product ids are unique across buckets, every category owns exactly
// one bucket, the selection points at an existing category and no product
// carries an inline image payload. It never fails and
// Reconcile(Reconcile(x)) equals Reconcile(x).
func Reconcile(raw any) internal.Catalog {
	switch t := raw.(type) {
	case internal.Catalog:
		raw = Tree(t)
	case *internal.Catalog:
		if t == nil {
			return DefaultCatalog()
		}
		raw = Tree(*t)
	}

	root, ok := internal.AsObject(raw)
	if !ok {
		return DefaultCatalog()
	}

	info, _ := internal.AsObject(valueOf(root, "categoryInfo"))
	legacy := NewLegacyResolver(info)

	entries, _ := asList(valueOf(root, "categories"))
	if len(entries) == 0 {
		if legacy.Len() > 0 {
			entries = legacy.fallbackEntries()
		} else {
			entries = defaultCategoryEntries()
		}
	}

	resolved := resolveCategories(entries, legacy)
	buckets, _ := internal.AsObject(valueOf(root, "products", "productsByCategory"))

	out := internal.Catalog{
		Config:     coerceConfig(valueOf(root, "config")),
		Categories: make([]internal.Category, 0, len(resolved)),
		Products:   remapBuckets(resolved, buckets),
	}
	for _, rc := range resolved {
		out.Categories = append(out.Categories, rc.category)
	}
	out.CurrentCategory = resolveSelection(asText(valueOf(root, "currentCategory", "selectedCategory")), out.Categories)
	return out
}

func valueOf(obj *internal.Object, keys ...string) any {
	for _, key := range keys {
		if v, ok := obj.Get(key); ok && v != nil {
			return v
		}
	}
	return nil
}

func resolveCategories(entries []any, legacy *LegacyResolver) []resolvedCategory {
	out := make([]resolvedCategory, 0, len(entries))
	seen := map[string]struct{}{}

	for _, raw := range entries {
		f := classifyEntry(raw).fields()

		lookupKeys := make([]string, 0, len(f.ids)+len(f.categories)+len(f.names))
		lookupKeys = append(lookupKeys, f.ids...)
		lookupKeys = append(lookupKeys, f.categories...)
		lookupKeys = append(lookupKeys, f.names...)
		meta, _ := legacy.Lookup(lookupKeys...)

		originalID := first(f.ids)
		name := util.FirstNonEmpty(append(append([]string{}, f.names...), meta.Title)...)
		if name == "" {
			if originalID != "" {
				name = titleFromID(originalID)
			} else {
				name = PlaceholderCategory
			}
		}
		icon := util.FirstNonEmpty(append(append([]string{}, f.icons...), meta.Icon, DefaultIcon)...)
		description := util.FirstNonEmpty(append(append([]string{}, f.descriptions...), meta.Description)...)

		provisional := util.DefaultSlug
		for _, candidate := range []string{originalID, first(f.categories), name, meta.Title} {
			if slug := util.SlugifyOr(candidate, ""); slug != "" {
				provisional = slug
				break
			}
		}
		id := util.Uniquify(provisional, seen)
		seen[id] = struct{}{}

		candidates := []string{id, originalID}
		candidates = append(candidates, f.ids...)
		candidates = append(candidates, f.categories...)
		candidates = append(candidates, f.names...)
		candidates = append(candidates, meta.Title)

		out = append(out, resolvedCategory{
			category: internal.Category{
				ID:          id,
				Name:        name,
				Icon:        icon,
				Description: description,
			},
			originalID: originalID,
			candidates: dedupeStrings(candidates),
		})
	}
	return out
}

// remapBuckets gives each category the first stored bucket reachable through
// its candidates. A stored bucket is claimed at most once; unclaimed buckets
// are dropped, as are later matches for an already satisfied category.
func remapBuckets(resolved []resolvedCategory, stored *internal.Object) map[string][]internal.Product {
	out := make(map[string][]internal.Product, len(resolved))
	claimed := map[string]struct{}{}
	productIDs := map[string]struct{}{}

	for _, rc := range resolved {
		var items []any
		for _, key := range rc.candidates {
			if _, taken := claimed[key]; taken {
				continue
			}
			v, ok := stored.Get(key)
			if !ok {
				continue
			}
			list, ok := asList(v)
			if !ok {
				continue
			}
			claimed[key] = struct{}{}
			items = list
			break
		}

		bucket := make([]internal.Product, 0, len(items))
		for _, item := range items {
			p, ok := coerceProduct(item)
			if !ok {
				continue
			}
			p.ID = util.Uniquify(p.ID, productIDs)
			productIDs[p.ID] = struct{}{}
			bucket = append(bucket, p)
		}
		out[rc.category.ID] = bucket
	}
	return out
}

func resolveSelection(current string, categories []internal.Category) string {
	for _, c := range categories {
		if c.ID == current {
			return current
		}
	}
	if len(categories) == 0 {
		return ""
	}
	return categories[0].ID
}

func titleFromID(id string) string {
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(id))
	if len(words) == 0 {
		return PlaceholderCategory
	}
	return cases.Title(language.Spanish).String(strings.Join(words, " "))
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func dedupeStrings(values []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
