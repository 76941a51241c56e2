package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"vitrina/internal"
)

// DecodeTree parses a JSON document into a raw tree whose objects keep their
// key order (*internal.Object). Numbers are kept as json.Number.
func DecodeTree(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after catalog document")
	}
	return v, nil
}

func DecodeTreeBytes(blob []byte) (any, error) {
	return DecodeTree(strings.NewReader(string(blob)))
}

// MarshalTree renders the normalized catalog as indented JSON in display order.
func MarshalTree(c internal.Catalog) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Tree(c)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := internal.NewObject()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("invalid object key %v", keyTok)
			}
			value, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj.Set(key, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			value, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %v", delim)
	}
}

// Tree renders a catalog back into the raw shape Reconcile consumes. Buckets
// follow category order; buckets without a category come last, sorted.
func Tree(c internal.Catalog) *internal.Object {
	root := internal.NewObject()

	cfg := internal.NewObject()
	for _, f := range configFields {
		cfg.Set(f.key, *f.field(&c.Config))
	}
	root.Set("config", cfg)

	categories := make([]any, 0, len(c.Categories))
	for _, cat := range c.Categories {
		entry := internal.NewObject()
		entry.Set("id", cat.ID)
		entry.Set("name", cat.Name)
		entry.Set("icon", cat.Icon)
		entry.Set("description", cat.Description)
		categories = append(categories, entry)
	}
	root.Set("categories", categories)

	products := internal.NewObject()
	for _, cat := range c.Categories {
		if bucket, ok := c.Products[cat.ID]; ok {
			products.Set(cat.ID, productList(bucket))
		}
	}
	extra := make([]string, 0)
	for key := range c.Products {
		if _, ok := products.Values[key]; !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		products.Set(key, productList(c.Products[key]))
	}
	root.Set("products", products)
	root.Set("currentCategory", c.CurrentCategory)
	return root
}

func productList(bucket []internal.Product) []any {
	out := make([]any, 0, len(bucket))
	for _, p := range bucket {
		entry := internal.NewObject()
		entry.Set("id", p.ID)
		entry.Set("name", p.Name)
		entry.Set("shortDesc", p.ShortDesc)
		entry.Set("longDesc", p.LongDesc)
		entry.Set("price", p.Price)
		features := make([]any, 0, len(p.Features))
		for _, f := range p.Features {
			features = append(features, f)
		}
		entry.Set("features", features)
		entry.Set("specs", p.Specs)
		if p.Image != "" {
			entry.Set("image", p.Image)
		}
		if p.Icon != "" {
			entry.Set("icon", p.Icon)
		}
		out = append(out, entry)
	}
	return out
}

// asText coerces scalar values to trimmed text.
func asText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

func asList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, 0, len(t))
		for _, s := range t {
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// fieldTexts returns the non-empty text values of the given keys, in key order.
func fieldTexts(obj *internal.Object, keys ...string) []string {
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		v, ok := obj.Get(key)
		if !ok {
			continue
		}
		if s := asText(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func firstField(obj *internal.Object, keys ...string) string {
	if values := fieldTexts(obj, keys...); len(values) > 0 {
		return values[0]
	}
	return ""
}
