package render

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"vitrina/internal"
	"vitrina/internal/util"
)

//go:embed templates/catalog.html.tmpl
var templateFS embed.FS

var catalogTemplate = template.Must(
	template.New("catalog.html.tmpl").
		Funcs(template.FuncMap{"esc": EscapeHTML}).
		ParseFS(templateFS, "templates/catalog.html.tmpl"),
)

type link struct {
	Label string
	URL   string
}

type card struct {
	ID        string
	Name      string
	ShortDesc string
	Price     string
	Image     string
	Icon      string
}

type section struct {
	ID          string
	Name        string
	Icon        string
	Description string
	Active      bool
	Products    []card
}

type page struct {
	Title        string
	Config       internal.Config
	LogoURL      string
	Sections     []section
	Contacts     []link
	Socials      []link
	ProductIndex string
	WhatsAppJSON string
}

// indexEntry is what the exported page script reads to fill the product modal.
type indexEntry struct {
	ID        string   `json:"id"`
	Category  string   `json:"category"`
	Name      string   `json:"name"`
	ShortDesc string   `json:"shortDesc"`
	LongDesc  string   `json:"longDesc"`
	Price     string   `json:"price"`
	PriceRaw  string   `json:"priceRaw"`
	Features  []string `json:"features"`
	Specs     []Spec   `json:"specs"`
	Image     string   `json:"image"`
	Icon      string   `json:"icon"`
	OwnIcon   string   `json:"ownIcon,omitempty"`
}

type Projector struct {
	prices PriceFormatter
}

func NewProjector(prices PriceFormatter) *Projector {
	return &Projector{prices: prices}
}

var defaultProjector = NewProjector(defaultPrices)

func Project(c internal.Catalog, cfg internal.Config) ([]byte, error) {
	return defaultProjector.Project(c, cfg)
}

// Project renders the catalog as one standalone HTML document. Only categories
// with products get a tab and a section; the first of them starts active.
// The catalog is read, never modified.
func (p *Projector) Project(c internal.Catalog, cfg internal.Config) ([]byte, error) {
	data := page{
		Title:   util.FirstNonEmpty(cfg.BusinessName, "Catálogo"),
		Config:  cfg,
		LogoURL: safeURL(cfg.Logo),
	}

	index := map[string]indexEntry{}
	for _, cat := range c.Categories {
		bucket := c.Products[cat.ID]
		if len(bucket) == 0 {
			continue
		}
		sec := section{
			ID:          cat.ID,
			Name:        cat.Name,
			Icon:        cat.Icon,
			Description: cat.Description,
			Active:      len(data.Sections) == 0,
		}
		for _, prod := range bucket {
			icon := prod.Icon
			if icon == "" {
				icon = cat.Icon
			}
			price := p.prices.Format(prod.Price)
			image := safeURL(prod.Image)
			sec.Products = append(sec.Products, card{
				ID:        prod.ID,
				Name:      prod.Name,
				ShortDesc: prod.ShortDesc,
				Price:     price,
				Image:     image,
				Icon:      icon,
				OwnIcon:   prod.Icon,
			})
			features := prod.Features
			if features == nil {
				features = []string{}
			}
			index[prod.ID] = indexEntry{
				ID:        prod.ID,
				Category:  cat.ID,
				Name:      prod.Name,
				ShortDesc: prod.ShortDesc,
				LongDesc:  prod.LongDesc,
				Price:     price,
				PriceRaw:  prod.Price,
				Features:  features,
				Specs:     ParseSpecs(prod.Specs),
				Image:     image,
				Icon:      icon,
			}
		}
		data.Sections = append(data.Sections, sec)
	}

	var err error
	if data.ProductIndex, err = ScriptJSON(index); err != nil {
		return nil, fmt.Errorf("product index: %w", err)
	}
	if data.WhatsAppJSON, err = ScriptJSON(digitsOnly(cfg.WhatsApp)); err != nil {
		return nil, fmt.Errorf("whatsapp: %w", err)
	}
	data.Contacts = contactLinks(cfg)
	data.Socials = socialLinks(cfg)

	var buf bytes.Buffer
	if err := catalogTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render catalog: %w", err)
	}
	return buf.Bytes(), nil
}

func contactLinks(cfg internal.Config) []link {
	var out []link
	if d := digitsOnly(cfg.WhatsApp); d != "" {
		out = append(out, link{Label: "WhatsApp", URL: "https://wa.me/" + d})
	}
	if d := digitsOnly(cfg.Phone); d != "" {
		out = append(out, link{Label: strings.TrimSpace(cfg.Phone), URL: "tel:+" + d})
	}
	if e := strings.TrimSpace(cfg.Email); e != "" && !strings.ContainsAny(e, " \t\r\n") {
		out = append(out, link{Label: e, URL: "mailto:" + e})
	}
	if u := safeURL(cfg.Website); u != "" {
		out = append(out, link{Label: "Sitio web", URL: u})
	}
	return out
}

func socialLinks(cfg internal.Config) []link {
	var out []link
	for _, s := range []link{
		{Label: "Instagram", URL: cfg.Instagram},
		{Label: "Facebook", URL: cfg.Facebook},
		{Label: "TikTok", URL: cfg.TikTok},
	} {
		if u := safeURL(s.URL); u != "" {
			out = append(out, link{Label: s.Label, URL: u})
		}
	}
	return out
}
