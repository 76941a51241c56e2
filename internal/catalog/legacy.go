package catalog

import (
	"strings"

	"vitrina/internal"
	"vitrina/internal/util"
)

// LegacyMeta is the normalized form of one categoryInfo entry.
type LegacyMeta struct {
	Icon        string
	Title       string
	Description string
}

type legacyEntry struct {
	key  string
	meta LegacyMeta
}

// LegacyResolver answers "what did the old categoryInfo table say about this
// category" for any of the spellings the entry could have been stored under.
type LegacyResolver struct {
	table   map[string]LegacyMeta
	entries []legacyEntry
}

func NewLegacyResolver(info *internal.Object) *LegacyResolver {
	r := &LegacyResolver{table: map[string]LegacyMeta{}}
	if info == nil {
		return r
	}

	for _, key := range info.Keys {
		meta := legacyMetaOf(info.Values[key])
		r.entries = append(r.entries, legacyEntry{key: key, meta: meta})

		for _, candidate := range []string{key, meta.Title} {
			candidate = strings.TrimSpace(candidate)
			if candidate == "" {
				continue
			}
			slug := util.SlugifyOr(candidate, "")
			for _, k := range []string{candidate, slug, strings.ToLower(candidate), strings.ToLower(slug)} {
				r.add(k, meta)
			}
		}
	}
	return r
}

func legacyMetaOf(v any) LegacyMeta {
	if s, ok := v.(string); ok {
		return LegacyMeta{Title: strings.TrimSpace(s)}
	}
	obj, ok := internal.AsObject(v)
	if !ok {
		return LegacyMeta{}
	}
	return LegacyMeta{
		Title:       firstField(obj, "title", "name"),
		Description: firstField(obj, "description", "desc"),
		Icon:        firstField(obj, "icon", "emoji"),
	}
}

func (r *LegacyResolver) add(key string, meta LegacyMeta) {
	if key == "" {
		return
	}
	if _, exists := r.table[key]; exists {
		return
	}
	r.table[key] = meta
}

// Lookup tries every candidate in order against the exact, lowercase, slug and
// lowercase-slug keys and returns the first hit.
func (r *LegacyResolver) Lookup(candidates ...string) (LegacyMeta, bool) {
	if r == nil || len(r.table) == 0 {
		return LegacyMeta{}, false
	}
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		slug := util.SlugifyOr(candidate, "")
		for _, k := range []string{candidate, strings.ToLower(candidate), slug, strings.ToLower(slug)} {
			if k == "" {
				continue
			}
			if meta, ok := r.table[k]; ok {
				return meta, true
			}
		}
	}
	return LegacyMeta{}, false
}

func (r *LegacyResolver) Len() int {
	return len(r.entries)
}

// Fallback lists one category per categoryInfo key, in table order, with
// slug-deduplicated ids.
func (r *LegacyResolver) Fallback() []internal.Category {
	out := make([]internal.Category, 0, len(r.entries))
	seen := map[string]struct{}{}
	for _, e := range r.entries {
		id := util.Uniquify(util.Slugify(e.key), seen)
		seen[id] = struct{}{}
		out = append(out, internal.Category{
			ID:          id,
			Name:        util.FirstNonEmpty(e.meta.Title, e.key),
			Icon:        e.meta.Icon,
			Description: e.meta.Description,
		})
	}
	return out
}

func (r *LegacyResolver) fallbackEntries() []any {
	cats := r.Fallback()
	out := make([]any, 0, len(cats))
	for _, c := range cats {
		entry := internal.NewObject()
		entry.Set("id", c.ID)
		entry.Set("name", c.Name)
		entry.Set("icon", c.Icon)
		entry.Set("description", c.Description)
		out = append(out, entry)
	}
	return out
}
