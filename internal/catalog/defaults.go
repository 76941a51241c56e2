package catalog

import "vitrina/internal"

const (
	DefaultIcon         = "📦"
	PlaceholderCategory = "Categoría"
)

type configField struct {
	key     string
	aliases []string
	field   func(*internal.Config) *string
}

var configFields = []configField{
	{key: "businessName", aliases: []string{"siteName", "name", "title"}, field: func(c *internal.Config) *string { return &c.BusinessName }},
	{key: "tagline", aliases: []string{"slogan", "subtitle"}, field: func(c *internal.Config) *string { return &c.Tagline }},
	{key: "description", aliases: []string{"desc"}, field: func(c *internal.Config) *string { return &c.Description }},
	{key: "logo", aliases: []string{"logoUrl"}, field: func(c *internal.Config) *string { return &c.Logo }},
	{key: "whatsapp", aliases: []string{"whatsApp"}, field: func(c *internal.Config) *string { return &c.WhatsApp }},
	{key: "phone", aliases: []string{"telefono"}, field: func(c *internal.Config) *string { return &c.Phone }},
	{key: "email", aliases: []string{"correo"}, field: func(c *internal.Config) *string { return &c.Email }},
	{key: "address", aliases: []string{"direccion"}, field: func(c *internal.Config) *string { return &c.Address }},
	{key: "website", aliases: []string{"web"}, field: func(c *internal.Config) *string { return &c.Website }},
	{key: "instagram", field: func(c *internal.Config) *string { return &c.Instagram }},
	{key: "facebook", field: func(c *internal.Config) *string { return &c.Facebook }},
	{key: "tiktok", aliases: []string{"tikTok"}, field: func(c *internal.Config) *string { return &c.TikTok }},
	{key: "footerText", aliases: []string{"footer"}, field: func(c *internal.Config) *string { return &c.FooterText }},
}

func DefaultConfig() internal.Config {
	return internal.Config{
		BusinessName: "Mi Negocio",
		Tagline:      "Catálogo de productos",
		Description:  "Conoce nuestros productos y escríbenos para hacer tu pedido.",
		FooterText:   "Precios sujetos a cambio sin previo aviso.",
	}
}

func DefaultCategories() []internal.Category {
	return []internal.Category{
		{ID: "productos", Name: "Productos", Icon: "📦", Description: "Nuestros productos principales."},
		{ID: "servicios", Name: "Servicios", Icon: "🛠️", Description: "Servicios que ofrecemos."},
		{ID: "ofertas", Name: "Ofertas", Icon: "🏷️", Description: "Promociones por tiempo limitado."},
	}
}

// DefaultCatalog is what Reconcile returns for input it cannot read at all.
func DefaultCatalog() internal.Catalog {
	cats := DefaultCategories()
	products := make(map[string][]internal.Product, len(cats))
	for _, c := range cats {
		products[c.ID] = []internal.Product{}
	}
	return internal.Catalog{
		Config:          DefaultConfig(),
		Categories:      cats,
		Products:        products,
		CurrentCategory: cats[0].ID,
	}
}

func defaultCategoryEntries() []any {
	out := make([]any, 0, 3)
	for _, c := range DefaultCategories() {
		entry := internal.NewObject()
		entry.Set("id", c.ID)
		entry.Set("name", c.Name)
		entry.Set("icon", c.Icon)
		entry.Set("description", c.Description)
		out = append(out, entry)
	}
	return out
}

func coerceConfig(v any) internal.Config {
	obj, ok := internal.AsObject(v)
	if !ok {
		return DefaultConfig()
	}
	var cfg internal.Config
	for _, f := range configFields {
		keys := append([]string{f.key}, f.aliases...)
		*f.field(&cfg) = firstField(obj, keys...)
	}
	return cfg
}
