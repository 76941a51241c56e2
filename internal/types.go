package internal

import (
	"bytes"
	"encoding/json"
	"sort"
)

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

type Product struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	ShortDesc string   `json:"shortDesc"`
	LongDesc  string   `json:"longDesc"`
	Price     string   `json:"price"`
	Features  []string `json:"features"`
	Specs     string   `json:"specs"`
	Image     string   `json:"image,omitempty"`
	Icon      string   `json:"icon,omitempty"`
}

type Config struct {
	BusinessName string `json:"businessName"`
	Tagline      string `json:"tagline"`
	Description  string `json:"description"`
	Logo         string `json:"logo"`
	WhatsApp     string `json:"whatsapp"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Address      string `json:"address"`
	Website      string `json:"website"`
	Instagram    string `json:"instagram"`
	Facebook     string `json:"facebook"`
	TikTok       string `json:"tiktok"`
	FooterText   string `json:"footerText"`
}

// Catalog is the normalized aggregate. Categories carry display order; Products
// holds exactly one bucket per category id.
type Catalog struct {
	Config          Config               `json:"config"`
	Categories      []Category           `json:"categories"`
	Products        map[string][]Product `json:"products"`
	CurrentCategory string               `json:"currentCategory"`
}

func (c Catalog) Clone() Catalog {
	out := Catalog{
		Config:          c.Config,
		Categories:      append([]Category{}, c.Categories...),
		Products:        make(map[string][]Product, len(c.Products)),
		CurrentCategory: c.CurrentCategory,
	}
	for id, bucket := range c.Products {
		copied := make([]Product, 0, len(bucket))
		for _, p := range bucket {
			p.Features = append([]string{}, p.Features...)
			copied = append(copied, p)
		}
		out.Products[id] = copied
	}
	return out
}

func (c Catalog) CategoryByID(id string) (Category, bool) {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}

func (c Catalog) ProductCount() int {
	total := 0
	for _, bucket := range c.Products {
		total += len(bucket)
	}
	return total
}

// Object is a JSON object that remembers key order.
type Object struct {
	Keys   []string
	Values map[string]any
}

func NewObject() *Object {
	return &Object{Values: map[string]any{}}
}

func (o *Object) Set(key string, value any) {
	if _, ok := o.Values[key]; !ok {
		o.Keys = append(o.Keys, key)
	}
	o.Values[key] = value
}

func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.Values[key]
	return v, ok
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.Keys)
}

// MarshalJSON writes the keys in their stored order.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshalPlain(key)
		if err != nil {
			return nil, err
		}
		v, err := marshalPlain(o.Values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalPlain encodes v without escaping <, > and & so exported documents
// stay readable.
func marshalPlain(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// AsObject accepts *Object, Object or map[string]any. Plain maps are visited in
// sorted key order.
func AsObject(v any) (*Object, bool) {
	switch t := v.(type) {
	case *Object:
		if t == nil {
			return nil, false
		}
		return t, true
	case Object:
		return &t, true
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return &Object{Keys: keys, Values: t}, true
	default:
		return nil, false
	}
}

type ImportSource string

const (
	SourceText      ImportSource = "text"
	SourceHTMLTable ImportSource = "html_table"
	SourceXLSX      ImportSource = "xlsx"
	SourcePDF       ImportSource = "pdf"
)

// ImportedProduct is one product line recovered from an external document.
type ImportedProduct struct {
	LineNo   int
	Source   ImportSource
	RawLine  string
	Category string
	Product  Product
}
