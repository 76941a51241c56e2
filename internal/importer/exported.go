package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"vitrina/internal"
	"vitrina/internal/util"
)

var ErrNotExported = errors.New("document is not an exported catalog")

type exportedEntry struct {
	Name      string   `json:"name"`
	ShortDesc string   `json:"shortDesc"`
	LongDesc  string   `json:"longDesc"`
	Price     string   `json:"price"`
	PriceRaw  string   `json:"priceRaw"`
	Features  []string `json:"features"`
	Specs     []struct {
		Label string `json:"label"`
		Value string `json:"value"`
	} `json:"specs"`
	Image   string `json:"image"`
	Icon    string `json:"icon"`
	OwnIcon string `json:"ownIcon"`
}

// ReadExported rebuilds a catalog from a previously exported catalog page,
// using its sections for order and its embedded product index for details.
// Categories that had no products were never exported and cannot come back.
func ReadExported(r io.Reader) (internal.Catalog, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return internal.Catalog{}, err
	}
	indexNode := doc.Find("script#product-index")
	if indexNode.Length() == 0 {
		return internal.Catalog{}, ErrNotExported
	}
	index := map[string]exportedEntry{}
	if err := json.Unmarshal([]byte(indexNode.Text()), &index); err != nil {
		return internal.Catalog{}, fmt.Errorf("product index: %w", err)
	}

	c := internal.Catalog{
		Config:   exportedConfig(doc),
		Products: map[string][]internal.Product{},
	}
	doc.Find("section[data-category-id]").Each(func(_ int, sec *goquery.Selection) {
		id, _ := sec.Attr("data-category-id")
		cat := internal.Category{
			ID:          id,
			Name:        util.NormalizeSpaces(sec.Find(".cat-name").First().Text()),
			Icon:        strings.TrimSpace(sec.Find(".cat-icon").First().Text()),
			Description: util.NormalizeSpaces(sec.Find(".cat-desc").First().Text()),
		}
		c.Categories = append(c.Categories, cat)

		bucket := []internal.Product{}
		sec.Find("article[data-product-id]").Each(func(_ int, card *goquery.Selection) {
			pid, _ := card.Attr("data-product-id")
			entry, ok := index[pid]
			if !ok {
				entry = exportedEntry{Name: util.NormalizeSpaces(card.Find("h3").First().Text())}
			}
			bucket = append(bucket, entry.product(pid, cat.Icon))
		})
		c.Products[id] = bucket
	})
	if len(c.Categories) > 0 {
		c.CurrentCategory = c.Categories[0].ID
	}
	return c, nil
}

func (e exportedEntry) product(id, categoryIcon string) internal.Product {
	specs := make([]string, 0, len(e.Specs))
	for _, s := range e.Specs {
		specs = append(specs, s.Label+": "+s.Value)
	}
	features := e.Features
	if features == nil {
		features = []string{}
	}
	// Pages without ownIcon only carry the displayed icon, which falls back
	// to the category's.
	icon := e.OwnIcon
	if icon == "" && e.Icon != categoryIcon {
		icon = e.Icon
	}
	return internal.Product{
		ID:        id,
		Name:      e.Name,
		ShortDesc: e.ShortDesc,
		LongDesc:  e.LongDesc,
		Price:     util.FirstNonEmpty(e.PriceRaw, e.Price),
		Features:  features,
		Specs:     strings.Join(specs, "\n"),
		Image:     e.Image,
		Icon:      icon,
	}
}

func exportedConfig(doc *goquery.Document) internal.Config {
	text := func(sel string) string {
		return util.NormalizeSpaces(doc.Find(sel).First().Text())
	}
	cfg := internal.Config{
		BusinessName: text("header.site h1"),
		Tagline:      text("header.site .tagline"),
		Description:  text("header.site .about"),
		Address:      text("footer.site .address"),
		FooterText:   text("footer.site .footer-text"),
	}
	cfg.Logo, _ = doc.Find("header.site img.logo").Attr("src")

	doc.Find("footer.site a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		label := util.NormalizeSpaces(a.Text())
		switch {
		case strings.HasPrefix(href, "https://wa.me/"):
			cfg.WhatsApp = strings.TrimPrefix(href, "https://wa.me/")
		case strings.HasPrefix(href, "tel:"):
			cfg.Phone = label
		case strings.HasPrefix(href, "mailto:"):
			cfg.Email = strings.TrimPrefix(href, "mailto:")
		case label == "Instagram":
			cfg.Instagram = href
		case label == "Facebook":
			cfg.Facebook = href
		case label == "TikTok":
			cfg.TikTok = href
		default:
			cfg.Website = href
		}
	})
	return cfg
}
